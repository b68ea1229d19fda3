package terrain

// DefaultTileMovementCost is the movement cost of a tile whose top terrain has no bonus.
const DefaultTileMovementCost = 8

// MaxPlayers is the number of player slots tracked per tile.
const MaxPlayers = 16

// Type is a terrain type, either a base terrain (grass, water) or an overlay
// drawn over one (forest, rock, wall, road).
type Type struct {
	Ident          string
	Name           string
	Index          int
	Overlay        bool
	Buildable      bool
	Pathway        bool // roads and railroads
	Flags          Flag
	MovementBonus  int
	Resource       int // resource granted by the overlay, 0 if none
	ResourceAmount int // default tile value for resource overlays
	HitPoints      int // default tile value for wall overlays
	BaseTypes      []*Type
	SolidTiles     []int
	DamagedTiles   []int
	DestroyedTiles []int
	Graphics       map[string]*Graphic // keyed by season ident, "" is the default
}

// IsCompatibleBase returns true if base is in the overlay's compatible base list.
func (t *Type) IsCompatibleBase(base *Type) bool {
	for _, b := range t.BaseTypes {
		if b == base {
			return true
		}
	}
	return false
}

// PrimaryBase returns the first compatible base type, or nil.
func (t *Type) PrimaryBase() *Type {
	if len(t.BaseTypes) == 0 {
		return nil
	}
	return t.BaseTypes[0]
}

// Graphic returns the tile sheet for season, falling back to the default sheet.
func (t *Type) Graphic(season string) *Graphic {
	if g, ok := t.Graphics[season]; ok && g != nil {
		return g
	}
	return t.Graphics[""]
}

// DefaultValue is the tile value installed together with this overlay.
func (t *Type) DefaultValue() int {
	switch {
	case t.Resource != 0:
		return t.ResourceAmount
	case t.Flags.Has(FlagWall):
		return t.HitPoints
	default:
		return 0
	}
}

// Feature is a named terrain feature (a river, a trade route) tagging a tile.
type Feature struct {
	Ident      string
	Name       string
	Terrain    *Type
	TradeRoute bool
}

// Category groups tiles by medium.
type Category int

const (
	CategoryLand Category = iota
	CategoryWater
	CategorySpace
)

// CategoryOf returns the medium described by flags.
func CategoryOf(f Flag) Category {
	switch {
	case f.Has(FlagSpace):
		return CategorySpace
	case f.Has(FlagWater):
		return CategoryWater
	default:
		return CategoryLand
	}
}
