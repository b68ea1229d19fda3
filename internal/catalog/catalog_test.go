package catalog

import (
	"errors"
	"image/color"
	"testing"
	"testing/fstest"

	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

func TestLoad_EmbeddedCatalogResolves(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	forest := c.TerrainType("forest")
	if forest == nil {
		t.Fatal("Expected forest terrain")
	}
	if !forest.Overlay || forest.Resource != game.CostWood || forest.ResourceAmount != 100 {
		t.Errorf("Unexpected forest definition: %+v", forest)
	}
	if forest.PrimaryBase() != c.TerrainType("grass") {
		t.Errorf("Expected grass as primary forest base, got %v", forest.PrimaryBase())
	}
	if !forest.Flags.Has(terrain.FlagTree) {
		t.Error("Expected forest to carry the wood flag")
	}
	if forest.Graphic("winter") == forest.Graphic("") {
		t.Error("Expected a separate winter graphic for forest")
	}
	if c.TerrainType("grass").Graphic("summer") != c.TerrainType("grass").Graphic("") {
		t.Error("Expected unknown season to fall back to the default graphic")
	}

	hall := c.UnitType("unit-town-hall")
	worker := c.UnitType("unit-worker")
	if hall == nil || worker == nil {
		t.Fatal("Expected town hall and worker unit types")
	}
	if !hall.CanTrainType(worker) {
		t.Error("Expected town hall to train workers")
	}
	if !worker.CanBuildType(hall) {
		t.Error("Expected worker to build town halls")
	}
	if got := hall.TimeCost(0); got != 10 {
		t.Errorf("Expected hall time cost 10 for player 0, got %d", got)
	}
	if hp := hall.StatsFor(3).Variables[game.VarHP]; hp.Max != 1200 || !hp.Enable {
		t.Errorf("Expected per-player stats initialised, got %+v", hp)
	}
	if !hall.CanStore[game.CostWood] || hall.CanStore[game.CostOil] {
		t.Errorf("Unexpected hall storage: %v", hall.CanStore)
	}

	platform := c.UnitType("unit-oil-platform")
	if platform.OnTopOf != c.UnitType("unit-oil-patch") {
		t.Errorf("Expected oil platform on top of oil patch, got %v", platform.OnTopOf)
	}
	if wall := c.UnitType("unit-stone-wall"); wall.TerrainType != c.TerrainType("wall") {
		t.Errorf("Expected stone wall to stamp wall terrain, got %v", wall.TerrainType)
	}
	footman := c.UnitType("unit-footman")
	if len(footman.Variations) != 2 || footman.Variations[1].Terrains[0] != c.TerrainType("snow") {
		t.Errorf("Unexpected footman variations: %+v", footman.Variations)
	}

	if f := c.Factions[1]; f.Ident != "automatons" || !f.NoWorkforce {
		t.Errorf("Unexpected faction: %+v", f)
	}
	if r := c.Resource(game.CostGold); r == nil || r.Name != "Gold" {
		t.Errorf("Expected gold resource, got %+v", r)
	}
}

func TestLoad_ReturnsFreshTypes(t *testing.T) {
	a, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	a.UnitType("unit-worker").Stats[0].Costs[game.CostGold] = 1
	if got := b.UnitType("unit-worker").Stats[0].Costs[game.CostGold]; got != 50 {
		t.Errorf("Expected independent catalogs, got gold cost %d", got)
	}
}

func TestInstall(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	w := game.NewWorld(game.DefaultSettings(), nil)
	c.Install(w)

	if w.Map.TerrainType("water") != c.TerrainType("water") {
		t.Error("Expected world map to resolve catalog terrain")
	}
	if w.UnitType("unit-farm") != c.UnitType("unit-farm") {
		t.Error("Expected world to resolve catalog unit types")
	}
	if w.Faction("humans") == nil {
		t.Error("Expected world to resolve catalog factions")
	}
	if w.Map.Feature("river") == nil {
		t.Error("Expected world map to resolve catalog features")
	}
}

// Helper to build a catalog directory from overrides of the embedded files
func catalogFS(t *testing.T, overrides map[string]string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, name := range []string{TerrainFileName, UnitFileName, FactionFileName, ResourceFileName} {
		data, err := dataFiles.ReadFile("data/" + name)
		if err != nil {
			t.Fatalf("Failed to read embedded %s: %v", name, err)
		}
		fsys[name] = &fstest.MapFile{Data: data}
	}
	for name, data := range overrides {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func TestLoadFS_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		want      error
	}{
		{
			name:      "unknown base terrain",
			overrides: map[string]string{TerrainFileName: `{"types": [{"ident": "forest", "overlay": true, "flags": ["wood"], "baseTypes": ["moss"], "color": "green"}]}`},
			want:      ErrUnknownTerrain,
		},
		{
			name:      "unknown flag",
			overrides: map[string]string{TerrainFileName: `{"types": [{"ident": "grass", "flags": ["lava"], "color": "green"}]}`},
			want:      terrain.ErrUnknownFlag,
		},
		{
			name:      "duplicate terrain",
			overrides: map[string]string{TerrainFileName: `{"types": [{"ident": "grass", "flags": ["land"], "color": "green"}, {"ident": "grass", "flags": ["land"], "color": "green"}]}`},
			want:      ErrDuplicateIdent,
		},
		{
			name:      "bad colour",
			overrides: map[string]string{TerrainFileName: `{"types": [{"ident": "grass", "flags": ["land"], "color": "#12345"}]}`},
			want:      ErrInvalidColor,
		},
		{
			name:      "unknown trainee",
			overrides: map[string]string{UnitFileName: `[{"ident": "unit-hall", "width": 2, "height": 2, "canTrain": ["unit-dragon"]}]`},
			want:      ErrUnknownUnitType,
		},
		{
			name:      "zero size",
			overrides: map[string]string{UnitFileName: `[{"ident": "unit-hall", "width": 0, "height": 2}]`},
			want:      ErrInvalidDimension,
		},
		{
			name:      "unknown cost",
			overrides: map[string]string{UnitFileName: `[{"ident": "unit-hall", "width": 1, "height": 1, "costs": {"mana": 3}}]`},
			want:      ErrUnknownResource,
		},
		{
			name:      "unknown resource",
			overrides: map[string]string{ResourceFileName: `[{"ident": "mana", "name": "Mana"}]`},
			want:      ErrUnknownResource,
		},
		{
			name:      "duplicate faction",
			overrides: map[string]string{FactionFileName: `[{"ident": "humans"}, {"ident": "humans"}]`},
			want:      ErrDuplicateIdent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFS(catalogFS(t, tt.overrides))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFS_MissingFile(t *testing.T) {
	fsys := catalogFS(t, nil)
	delete(fsys, UnitFileName)
	if _, err := LoadFS(fsys); err == nil {
		t.Error("Expected error for missing units file")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff8000", color.RGBA{R: 255, G: 128, A: 255}},
		{"#FF8000", color.RGBA{R: 255, G: 128, A: 255}},
		{"red", color.RGBA{R: 255, A: 255}},
		{" Gold ", color.RGBA{R: 255, G: 215, A: 255}},
		{"transparent", color.RGBA{}},
		{"", color.RGBA{}},
		{"#ffffff00", color.RGBA{}},
		{"#ff000080", color.RGBA{R: 128, A: 128}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"#12", "#gggggg", "notacolour"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("Expected ErrInvalidColor for %q, got %v", bad, err)
		}
	}
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	for _, name := range []string{TerrainFileName, UnitFileName, FactionFileName, ResourceFileName} {
		s, ok := schemas[name]
		if !ok || s == nil {
			t.Errorf("Expected schema for %s", name)
			continue
		}
		if s.Title == "" {
			t.Errorf("Expected title on %s schema", name)
		}
	}
}
