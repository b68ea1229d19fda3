package game

import (
	"fmt"
	"image/color"
)

// PlayerType describes who controls a slot.
type PlayerType int

const (
	PlayerNobody PlayerType = iota
	PlayerPerson
	PlayerComputer
	PlayerNeutral
)

// String returns the save-file name of the type.
func (t PlayerType) String() string {
	switch t {
	case PlayerPerson:
		return "person"
	case PlayerComputer:
		return "computer"
	case PlayerNeutral:
		return "neutral"
	default:
		return "nobody"
	}
}

// ParsePlayerType is the inverse of PlayerType.String.
func ParsePlayerType(s string) (PlayerType, error) {
	for t := PlayerNobody; t <= PlayerNeutral; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return PlayerNobody, fmt.Errorf("%w: player type %q", ErrBadSave, s)
}

// Faction is a playable civilisation.
type Faction struct {
	Ident string
	Name  string
	// NoWorkforce factions have no builders; their structures construct at full
	// rate on their own.
	NoWorkforce bool
}

// Player is one player slot.
type Player struct {
	Index        int
	Name         string
	Type         PlayerType
	AI           bool
	Faction      *Faction
	MinimapColor color.RGBA

	Resources Costs
	Supply    int
	Demand    int

	SpeedBuild int
	SpeedTrain int

	UnitLimit      int
	BuildingLimit  int
	TotalUnitLimit int

	TotalUnits                    int
	NumBuildings                  int
	NumBuildingsUnderConstruction int
	UnitTypesCount                map[*UnitType]int
	UnitTypesUnderConstruction    map[*UnitType]int

	Allies       uint32
	SharedVision uint32

	Objectives []Objective
}

// NewPlayer creates a player slot with default speeds and limits.
func NewPlayer(index int, name string, typ PlayerType, s Settings) *Player {
	return &Player{
		Index:                      index,
		Name:                       name,
		Type:                       typ,
		AI:                         typ == PlayerComputer,
		SpeedBuild:                 s.SpeedupFactor,
		SpeedTrain:                 s.SpeedupFactor,
		UnitLimit:                  200,
		BuildingLimit:              200,
		TotalUnitLimit:             400,
		UnitTypesCount:             make(map[*UnitType]int),
		UnitTypesUnderConstruction: make(map[*UnitType]int),
	}
}

// IsNeutral returns true for the neutral player.
func (p *Player) IsNeutral() bool {
	return p.Type == PlayerNeutral || p.Index == PlayerNumNeutral
}

// IsAllied returns true if p is allied with other or is other.
func (p *Player) IsAllied(other *Player) bool {
	if other == nil {
		return false
	}
	return p == other || p.Allies&(1<<uint(other.Index)) != 0
}

// VisionMask returns the players whose sight p shares, including p.
func (p *Player) VisionMask() uint32 {
	return p.SharedVision | 1<<uint(p.Index)
}

// BuildAmount returns the construction progress a building of type t gains per
// cycle before the player's build speed is applied.
func (p *Player) BuildAmount(t *UnitType) int {
	if p.Faction != nil && p.Faction.NoWorkforce {
		return 100
	}
	if t.BuilderOutside {
		return t.AutoBuildRate
	}
	return 100
}

// CheckCosts reports whether the player can afford costs quantity times.
func (p *Player) CheckCosts(costs Costs, quantity int) error {
	for i := 1; i < MaxCosts; i++ {
		if p.Resources[i] < costs[i]*quantity {
			return fmt.Errorf("%w: not enough %s", ErrInsufficientResources, CostName(i))
		}
	}
	return nil
}

// SubCosts removes costs quantity times from the stockpile.
func (p *Player) SubCosts(costs Costs, quantity int) {
	for i := 1; i < MaxCosts; i++ {
		p.Resources[i] -= costs[i] * quantity
	}
}

// AddCostsFactor returns factor percent of costs to the stockpile.
func (p *Player) AddCostsFactor(costs Costs, factor int) {
	refund := costs.Scaled(factor)
	for i := 1; i < MaxCosts; i++ {
		p.Resources[i] += refund[i]
	}
}

// CheckLimits reports whether quantity more units of type t may be created.
func (p *Player) CheckLimits(t *UnitType, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	if t.Building && p.NumBuildings+quantity > p.BuildingLimit {
		return ErrBuildingLimit
	}
	if !t.Building && p.TotalUnits-p.NumBuildings+quantity > p.UnitLimit {
		return ErrPlayerUnitLimit
	}
	demand := t.StatsFor(p.Index).Variables[VarDemand].Value
	if demand > 0 && p.Demand+demand*quantity > p.Supply {
		return ErrSupplyLimit
	}
	if p.TotalUnits+quantity > p.TotalUnitLimit {
		return ErrTotalUnitLimit
	}
	return nil
}

func (p *Player) changeUnderConstruction(t *UnitType, delta int) {
	p.UnitTypesUnderConstruction[t] += delta
	if t.Building {
		p.NumBuildingsUnderConstruction += delta
	}
}
