// Package catalog loads the static game data: terrain types, unit types,
// factions and resources. The files are JSON and embedded in the binary;
// LoadFS reads the same layout from any directory.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"image/color"
	"io/fs"
	"path"

	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

//go:embed data/*.json
var dataFiles embed.FS

// File names inside a catalog directory.
const (
	TerrainFileName   = "terrain.json"
	UnitFileName      = "units.json"
	FactionFileName   = "factions.json"
	ResourceFileName  = "resources.json"
	defaultDataFolder = "data"
)

// Resource is a stockpiled resource with its presentation.
type Resource struct {
	Index int
	Ident string
	Name  string
	Color color.RGBA
}

// Catalog is a resolved set of game data. Unit types carry per-player
// statistics, so every world needs its own Catalog.
type Catalog struct {
	Terrain   []*terrain.Type
	Features  []*terrain.Feature
	Units     []*game.UnitType
	Factions  []*game.Faction
	Resources []*Resource
}

// Load reads the embedded catalog.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(dataFiles, defaultDataFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadFS reads a catalog from the four JSON files at the root of fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var (
		tf  TerrainFile
		uf  UnitFile
		ff  FactionFile
		rf  ResourceFile
		err error
	)
	if err = readJSON(fsys, TerrainFileName, &tf); err != nil {
		return nil, err
	}
	if err = readJSON(fsys, UnitFileName, &uf); err != nil {
		return nil, err
	}
	if err = readJSON(fsys, FactionFileName, &ff); err != nil {
		return nil, err
	}
	if err = readJSON(fsys, ResourceFileName, &rf); err != nil {
		return nil, err
	}
	return Resolve(&tf, uf, ff, rf)
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Resolve builds a catalog from parsed documents, linking idents to types.
func Resolve(tf *TerrainFile, uf UnitFile, ff FactionFile, rf ResourceFile) (*Catalog, error) {
	c := &Catalog{}
	if err := c.resolveResources(rf); err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	if err := c.resolveTerrain(tf); err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	if err := c.resolveUnits(uf); err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	seen := make(map[string]bool)
	for _, doc := range ff {
		if seen[doc.Ident] {
			return nil, fmt.Errorf("factions: %w: %q", ErrDuplicateIdent, doc.Ident)
		}
		seen[doc.Ident] = true
		c.Factions = append(c.Factions, &game.Faction{Ident: doc.Ident, Name: doc.Name, NoWorkforce: doc.NoWorkforce})
	}
	return c, nil
}

func (c *Catalog) resolveResources(rf ResourceFile) error {
	for _, doc := range rf {
		idx := game.CostIndex(doc.Ident)
		if idx < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownResource, doc.Ident)
		}
		col, err := ParseColor(doc.Color)
		if err != nil {
			return fmt.Errorf("resource %s: %w", doc.Ident, err)
		}
		c.Resources = append(c.Resources, &Resource{Index: idx, Ident: doc.Ident, Name: doc.Name, Color: col})
	}
	return nil
}

// resourceIndex maps a resource ident to its cost slot. The empty string is 0.
func resourceIndex(ident string) (int, error) {
	if ident == "" {
		return 0, nil
	}
	idx := game.CostIndex(ident)
	if idx <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResource, ident)
	}
	return idx, nil
}

func (c *Catalog) resolveTerrain(tf *TerrainFile) error {
	for i, doc := range tf.Types {
		if c.TerrainType(doc.Ident) != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateIdent, doc.Ident)
		}
		flags, err := terrain.ParseFlags(doc.Flags)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Ident, err)
		}
		res, err := resourceIndex(doc.Resource)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Ident, err)
		}
		t := &terrain.Type{
			Ident:          doc.Ident,
			Name:           doc.Name,
			Index:          i,
			Overlay:        doc.Overlay,
			Buildable:      doc.Buildable,
			Pathway:        doc.Pathway,
			Flags:          flags,
			MovementBonus:  doc.MovementBonus,
			Resource:       res,
			ResourceAmount: doc.ResourceAmount,
			HitPoints:      doc.HitPoints,
			SolidTiles:     doc.SolidTiles,
			DamagedTiles:   doc.DamagedTiles,
			DestroyedTiles: doc.DestroyedTiles,
			Graphics:       make(map[string]*terrain.Graphic),
		}
		col, err := ParseColor(doc.Color)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Ident, err)
		}
		t.Graphics[""] = terrain.SolidGraphic(col)
		for season, s := range doc.SeasonColors {
			col, err := ParseColor(s)
			if err != nil {
				return fmt.Errorf("%s season %s: %w", doc.Ident, season, err)
			}
			t.Graphics[season] = terrain.SolidGraphic(col)
		}
		c.Terrain = append(c.Terrain, t)
	}

	// Base types may name terrain defined later in the file.
	for i, doc := range tf.Types {
		t := c.Terrain[i]
		for _, ident := range doc.BaseTypes {
			base := c.TerrainType(ident)
			if base == nil {
				return fmt.Errorf("%s base: %w: %q", doc.Ident, ErrUnknownTerrain, ident)
			}
			t.BaseTypes = append(t.BaseTypes, base)
		}
	}

	for _, doc := range tf.Features {
		t := c.TerrainType(doc.Terrain)
		if t == nil {
			return fmt.Errorf("feature %s: %w: %q", doc.Ident, ErrUnknownTerrain, doc.Terrain)
		}
		c.Features = append(c.Features, &terrain.Feature{Ident: doc.Ident, Name: doc.Name, Terrain: t, TradeRoute: doc.TradeRoute})
	}
	return nil
}

func parseMovement(s string) (game.MovementKind, error) {
	switch s {
	case "", "land":
		return game.MoveLand, nil
	case "air":
		return game.MoveAir, nil
	case "sea":
		return game.MoveSea, nil
	}
	return game.MoveLand, fmt.Errorf("unknown movement %q", s)
}

func (c *Catalog) resolveUnits(uf UnitFile) error {
	for i, doc := range uf {
		if c.UnitType(doc.Ident) != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateIdent, doc.Ident)
		}
		if doc.Width <= 0 || doc.Height <= 0 {
			return fmt.Errorf("%s: %w: %dx%d", doc.Ident, ErrInvalidDimension, doc.Width, doc.Height)
		}
		t, err := c.newUnitType(i, &doc)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Ident, err)
		}
		c.Units = append(c.Units, t)
	}

	// Second pass: links between unit types.
	for i, doc := range uf {
		t := c.Units[i]
		var err error
		if t.CanBuild, err = c.unitList(doc.CanBuild); err != nil {
			return fmt.Errorf("%s can build: %w", doc.Ident, err)
		}
		if t.CanTrain, err = c.unitList(doc.CanTrain); err != nil {
			return fmt.Errorf("%s can train: %w", doc.Ident, err)
		}
		if doc.OnTopOf != "" {
			if t.OnTopOf = c.UnitType(doc.OnTopOf); t.OnTopOf == nil {
				return fmt.Errorf("%s on top of: %w: %q", doc.Ident, ErrUnknownUnitType, doc.OnTopOf)
			}
		}
		t.InitStats()
	}
	return nil
}

func (c *Catalog) newUnitType(i int, doc *UnitDocument) (*game.UnitType, error) {
	movement, err := parseMovement(doc.Movement)
	if err != nil {
		return nil, err
	}
	t := &game.UnitType{
		Ident:            doc.Ident,
		Name:             doc.Name,
		Slot:             i,
		TileSize:         game.Pos{X: doc.Width, Y: doc.Height},
		Movement:         movement,
		NumDirections:    doc.NumDirections,
		StillFrame:       doc.StillFrame,
		Building:         doc.Building,
		TownHall:         doc.TownHall,
		Wall:             doc.Wall,
		Item:             doc.Item,
		Decoration:       doc.Decoration,
		Diminutive:       doc.Diminutive,
		BuilderOutside:   doc.BuilderOutside,
		BuilderLost:      doc.BuilderLost,
		NoRandomPlacing:  doc.NoRandomPlacing,
		AirUnpassable:    doc.AirUnpassable,
		Vanishes:         doc.Vanishes,
		AutoBuildRate:    doc.AutoBuildRate,
		TrainQuantity:    doc.TrainQuantity,
		DecayRate:        doc.DecayRate,
		RepairHP:         doc.RepairHP,
		RepairRange:      doc.RepairRange,
		CanHarvest:       doc.CanHarvest,
		ResourceCapacity: doc.ResourceCapacity,
	}

	prev := -1
	for _, f := range doc.Construction {
		if f.Percent < prev {
			return nil, fmt.Errorf("construction frames must be sorted by percent")
		}
		prev = f.Percent
		t.Construction = append(t.Construction, game.ConstructionFrame{Percent: f.Percent, Frame: f.Frame})
	}

	if doc.TerrainType != "" {
		if t.TerrainType = c.TerrainType(doc.TerrainType); t.TerrainType == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerrain, doc.TerrainType)
		}
	}
	if t.GivesResource, err = resourceIndex(doc.GivesResource); err != nil {
		return nil, err
	}
	for _, r := range doc.Harvests {
		idx, err := resourceIndex(r)
		if err != nil {
			return nil, err
		}
		t.Harvests = append(t.Harvests, idx)
	}
	for _, r := range doc.CanStore {
		idx, err := resourceIndex(r)
		if err != nil {
			return nil, err
		}
		t.CanStore[idx] = true
	}
	if t.NeutralMinimapColor, err = ParseColor(doc.NeutralMinimapColor); err != nil {
		return nil, err
	}

	for _, vd := range doc.Variations {
		v := &game.Variation{Ident: vd.Ident, Name: vd.Name}
		if v.Terrains, err = c.terrainList(vd.Terrains); err != nil {
			return nil, fmt.Errorf("variation %s: %w", vd.Ident, err)
		}
		if v.ForbiddenTerrain, err = c.terrainList(vd.ForbiddenTerrain); err != nil {
			return nil, fmt.Errorf("variation %s: %w", vd.Ident, err)
		}
		t.Variations = append(t.Variations, v)
	}

	for name, amount := range doc.Costs {
		idx := game.CostIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("cost: %w: %q", ErrUnknownResource, name)
		}
		t.DefaultStats.Costs[idx] = amount
	}
	vars := &t.DefaultStats.Variables
	setVariable(vars, game.VarHP, doc.HitPoints)
	setVariable(vars, game.VarShield, doc.Shield)
	setVariable(vars, game.VarSightRange, doc.SightRange)
	setVariable(vars, game.VarSupply, doc.Supply)
	setVariable(vars, game.VarDemand, doc.Demand)
	return t, nil
}

func setVariable(vars *[game.NumVariables]game.Variable, idx, value int) {
	if value == 0 {
		return
	}
	vars[idx] = game.Variable{Value: value, Max: value, Enable: true}
}

func (c *Catalog) unitList(idents []string) ([]*game.UnitType, error) {
	var out []*game.UnitType
	for _, ident := range idents {
		t := c.UnitType(ident)
		if t == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownUnitType, ident)
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Catalog) terrainList(idents []string) ([]*terrain.Type, error) {
	var out []*terrain.Type
	for _, ident := range idents {
		t := c.TerrainType(ident)
		if t == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerrain, ident)
		}
		out = append(out, t)
	}
	return out, nil
}

// TerrainType finds a terrain type by ident.
func (c *Catalog) TerrainType(ident string) *terrain.Type {
	for _, t := range c.Terrain {
		if t.Ident == ident {
			return t
		}
	}
	return nil
}

// UnitType finds a unit type by ident.
func (c *Catalog) UnitType(ident string) *game.UnitType {
	for _, t := range c.Units {
		if t.Ident == ident {
			return t
		}
	}
	return nil
}

// Resource returns the presentation of cost slot idx, or nil.
func (c *Catalog) Resource(idx int) *Resource {
	for _, r := range c.Resources {
		if r.Index == idx {
			return r
		}
	}
	return nil
}

// Install hands the catalog's tables to w. The catalog must not be installed
// into a second world.
func (c *Catalog) Install(w *game.World) {
	w.Map.TerrainTypes = c.Terrain
	w.Map.Features = c.Features
	w.UnitTypes = c.Units
	w.Factions = c.Factions
}
