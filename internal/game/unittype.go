package game

import (
	"image/color"

	"ironhold/internal/terrain"
)

// Unit variable indices.
const (
	VarHP = iota
	VarShield
	VarBuild
	VarTraining
	VarXP
	VarSightRange
	VarSupply
	VarDemand
	VarTrainQuantity
	NumVariables
)

// Variable is a unit statistic with a current value and a maximum.
type Variable struct {
	Value  int
	Max    int
	Enable bool
}

// UnitStats are the per-player statistics of a unit type.
type UnitStats struct {
	Costs     Costs
	Variables [NumVariables]Variable
}

// ConstructionFrame is one keyframe of a building's construction sequence,
// active once progress reaches Percent.
type ConstructionFrame struct {
	Percent int
	Frame   int
}

// Variation is a visual variant of a unit type, restricted to some terrains.
type Variation struct {
	Ident            string
	Name             string
	Terrains         []*terrain.Type // required under the unit, empty means any
	ForbiddenTerrain []*terrain.Type
}

// Allows returns true if the variation may be shown on tile.
func (v *Variation) Allows(tile *terrain.Tile) bool {
	for _, f := range v.ForbiddenTerrain {
		if tile.Terrain == f || tile.Overlay == f {
			return false
		}
	}
	if len(v.Terrains) == 0 {
		return true
	}
	for _, t := range v.Terrains {
		if tile.Terrain == t || tile.Overlay == t {
			return true
		}
	}
	return false
}

// MovementKind is the medium a unit moves through.
type MovementKind int

const (
	MoveLand MovementKind = iota
	MoveAir
	MoveSea
)

// UnitType is the static description of a unit.
type UnitType struct {
	Ident string
	Name  string
	Slot  int

	TileSize      Pos
	Movement      MovementKind
	NumDirections int
	StillFrame    int

	Building        bool
	TownHall        bool
	Wall            bool
	Item            bool
	Decoration      bool
	Diminutive      bool
	BuilderOutside  bool
	BuilderLost     bool
	NoRandomPlacing bool
	AirUnpassable   bool
	Vanishes        bool

	AutoBuildRate int
	TrainQuantity int
	DecayRate     int
	RepairHP      int
	RepairRange   int

	// Construction frames sorted by increasing Percent.
	Construction []ConstructionFrame
	// TerrainType is stamped onto the map instead of keeping a unit once built.
	TerrainType *terrain.Type

	GivesResource    int  // resource stored in a deposit of this type
	CanHarvest       bool // deposit can be harvested directly
	ResourceCapacity int
	Harvests         []int
	CanStore         [MaxCosts]bool
	OnTopOf          *UnitType
	CanBuild         []*UnitType
	CanTrain         []*UnitType

	NeutralMinimapColor color.RGBA
	Variations          []*Variation

	DefaultStats UnitStats
	Stats        [PlayerMax]UnitStats
}

// InitStats copies the default statistics to every player slot.
func (t *UnitType) InitStats() {
	for i := range t.Stats {
		t.Stats[i] = t.DefaultStats
	}
}

// StatsFor returns the statistics of the type for player.
func (t *UnitType) StatsFor(player int) *UnitStats {
	return &t.Stats[player]
}

// TimeCost returns the build or train time of the type for player.
func (t *UnitType) TimeCost(player int) int {
	return t.Stats[player].Costs[CostTime]
}

// Quantity returns how many units a single training order produces.
func (t *UnitType) Quantity() int {
	if t.TrainQuantity > 0 {
		return t.TrainQuantity
	}
	return 1
}

// DisplayName prefers the name of the default variation when it has one.
func (t *UnitType) DisplayName() string {
	if len(t.Variations) > 0 && t.Variations[0].Name != "" {
		return t.Variations[0].Name
	}
	return t.Name
}

// CanHarvestResource returns true if units of this type gather res.
func (t *UnitType) CanHarvestResource(res int) bool {
	for _, r := range t.Harvests {
		if r == res {
			return true
		}
	}
	return false
}

// CanBuildType returns true if b is in the type's build list.
func (t *UnitType) CanBuildType(b *UnitType) bool {
	for _, c := range t.CanBuild {
		if c == b {
			return true
		}
	}
	return false
}

// CanTrainType returns true if u is in the type's training list.
func (t *UnitType) CanTrainType(u *UnitType) bool {
	for _, c := range t.CanTrain {
		if c == u {
			return true
		}
	}
	return false
}

// OccupancyFlag is the tile flag set while a unit of this type stands on it.
func (t *UnitType) OccupancyFlag() terrain.Flag {
	switch {
	case t.Building:
		return terrain.FlagBuilding
	case t.Item:
		return terrain.FlagItem
	case t.Movement == MoveAir:
		return terrain.FlagAirUnit
	case t.Movement == MoveSea:
		return terrain.FlagSeaUnit
	default:
		return terrain.FlagLandUnit
	}
}

// CanStandOn returns true if a unit of this type may be placed on tile.
func (t *UnitType) CanStandOn(tile *terrain.Tile) bool {
	switch t.Movement {
	case MoveAir:
		return !tile.Flags.Has(terrain.FlagAirUnpassable | terrain.FlagAirUnit)
	case MoveSea:
		return tile.Flags.Has(terrain.FlagWater) &&
			!tile.Flags.Has(terrain.FlagUnpassable|terrain.FlagBuilding|terrain.FlagSeaUnit)
	default:
		if tile.Flags.Has(terrain.FlagWater|terrain.FlagSpace) && !tile.Flags.Has(terrain.FlagBridge) {
			return false
		}
		return !tile.Flags.Has(terrain.FlagUnpassable | terrain.FlagBuilding | terrain.FlagLandUnit)
	}
}
