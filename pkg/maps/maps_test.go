package maps

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"ironhold/internal/catalog"
	"ironhold/internal/game"
)

// Helper to build a world from an embedded map
func buildTestWorld(t *testing.T, name string) *game.World {
	t.Helper()
	m, err := Load(name)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", name, err)
	}
	return buildFrom(t, m)
}

// Helper to build a world from a processed map with a fresh catalog
func buildFrom(t *testing.T, m *Map) *game.World {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	w, err := m.Build(cat, game.DefaultSettings(), logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return w
}

func TestLoadAll(t *testing.T) {
	if err := LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	m, err := Get("twin-fords")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Width != 32 || m.Height != 24 || len(m.Layers) != 1 {
		t.Errorf("Unexpected map shape %dx%d with %d layers", m.Width, m.Height, len(m.Layers))
	}
	if _, err := Get("atlantis"); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("Expected ErrMapNotFound, got %v", err)
	}

	found := false
	for _, info := range List() {
		if info.ID == "twin-fords" {
			found = true
			if info.SettlementCount != 4 {
				t.Errorf("Expected 4 settlements, got %d", info.SettlementCount)
			}
		}
	}
	if !found {
		t.Error("Expected twin-fords in the map list")
	}
}

func TestProcess_ExpandsLegend(t *testing.T) {
	m, err := Load("twin-fords.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	tests := []struct {
		x, y int
		want Cell
	}{
		{0, 0, Cell{Base: "water"}},
		{7, 1, Cell{Base: "grass", Overlay: "forest"}},
		{5, 5, Cell{Base: "dirt"}},
		{3, 10, Cell{Base: "dirt", Overlay: "rock"}},
		{18, 3, Cell{Base: "shallow-water"}},
		{18, 7, Cell{Base: "grass", Overlay: "road"}},
	}
	for _, tt := range tests {
		got, ok := m.CellAt(tt.x, tt.y, 0)
		if !ok || got != tt.want {
			t.Errorf("CellAt(%d,%d) = %+v, expected %+v", tt.x, tt.y, got, tt.want)
		}
	}
	if _, ok := m.CellAt(32, 0, 0); ok {
		t.Error("Expected out of bounds cell to fail")
	}
}

func TestLoadFromJSON_Invalid(t *testing.T) {
	valid := `{"id": "m", "name": "M", "width": 2, "height": 1, "legend": {".": "grass"}, "layers": [[".."]]`
	tests := []struct {
		name string
		json string
		want error
	}{
		{"missing id", `{"name": "M", "width": 2, "height": 1, "legend": {".": "grass"}, "layers": [[".."]]}`, ErrInvalidMap},
		{"short row", `{"id": "m", "name": "M", "width": 3, "height": 1, "legend": {".": "grass"}, "layers": [[".."]]}`, ErrInvalidMap},
		{"no layers", `{"id": "m", "name": "M", "width": 2, "height": 1, "legend": {".": "grass"}, "layers": []}`, ErrInvalidMap},
		{"unknown symbol", `{"id": "m", "name": "M", "width": 2, "height": 1, "legend": {".": "grass"}, "layers": [[".x"]]}`, ErrUnknownSymbol},
		{"long symbol", `{"id": "m", "name": "M", "width": 2, "height": 1, "legend": {"..": "grass"}, "layers": [[".."]]}`, ErrInvalidMap},
		{"settlement outside", valid + `, "settlements": [{"ident": "a", "x": 5, "y": 0}]}`, ErrInvalidMap},
		{"unit names unknown site", valid + `, "units": [{"type": "unit-worker", "x": 0, "y": 0, "site": "b"}]}`, ErrInvalidMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromJSON([]byte(tt.json))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	base := `{"id": "m", "name": "M", "width": 2, "height": 1, "legend": {".": "grass", "l": "lava"}, "layers": [["%s"]]%s}`
	tests := []struct {
		name  string
		row   string
		extra string
		want  error
	}{
		{"unknown terrain", "l.", "", catalog.ErrUnknownTerrain},
		{"unknown unit", "..", `, "units": [{"type": "unit-dragon", "x": 0, "y": 0}]`, catalog.ErrUnknownUnitType},
		{"bad player", "..", `, "players": [{"index": 15, "type": "person"}]`, ErrInvalidMap},
		{"unknown faction", "..", `, "players": [{"index": 0, "type": "person", "faction": "elves"}]`, ErrInvalidMap},
		{"bad resource", "..", `, "players": [{"index": 0, "type": "person", "resources": {"mana": 5}}]`, catalog.ErrUnknownResource},
		{"bad objective", "..", `, "players": [{"index": 0, "type": "person", "objectives": [{"build": "unit-castle", "quantity": 1}]}]`, catalog.ErrUnknownUnitType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js := strings.Replace(strings.Replace(base, "%s", tt.row, 1), "%s", tt.extra, 1)
			m, err := LoadFromJSON([]byte(js))
			if err != nil {
				t.Fatalf("LoadFromJSON failed: %v", err)
			}
			cat, err := catalog.Load()
			if err != nil {
				t.Fatalf("catalog.Load failed: %v", err)
			}
			if _, err := m.Build(cat, game.DefaultSettings(), nil); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuild_TwinFords(t *testing.T) {
	w := buildTestWorld(t, "twin-fords.json")

	if w.Rand.Seed != 4711 {
		t.Errorf("Expected seed 4711, got %d", w.Rand.Seed)
	}
	tile := w.Map.Field(game.Pos{X: 7, Y: 1}, 0)
	if tile.Overlay == nil || tile.Overlay.Ident != "forest" || tile.Value != 100 {
		t.Errorf("Expected forest with 100 wood at 7,1, got %+v", tile)
	}

	red, blue := w.Players[0], w.Players[1]
	if red.Type != game.PlayerPerson || !blue.AI {
		t.Errorf("Unexpected player setup: %v %v", red.Type, blue.AI)
	}
	if red.Resources[game.CostGold] != 2000 || red.Faction == nil || red.Faction.Ident != "humans" {
		t.Errorf("Unexpected red player: %+v", red)
	}
	if len(red.Objectives) != 1 {
		t.Errorf("Expected one objective for red, got %d", len(red.Objectives))
	}

	west := w.SettlementByIdent("westhold")
	east := w.SettlementByIdent("easthold")
	if west.Owner != red || east.Owner != blue {
		t.Errorf("Expected site units to hand over ownership, got %v / %v", west.Owner, east.Owner)
	}
	if w.SettlementByIdent("low-mill").Owner != nil {
		t.Error("Expected low-mill to stay unowned")
	}
	if got := w.TileOwner(game.Pos{X: 2, Y: 2}, 0); got != red {
		t.Errorf("Expected red to own the north-west corner, got %v", got)
	}
	if got := w.TileOwner(game.Pos{X: 29, Y: 2}, 0); got != blue {
		t.Errorf("Expected blue to own the north-east corner, got %v", got)
	}
	if w.Map.Field(game.Pos{X: 9, Y: 20}, 0).Settlement != w.SettlementByIdent("low-mill").ID {
		t.Error("Expected the south-west to belong to low-mill")
	}

	if red.Supply != 5 || red.Demand != 2 {
		t.Errorf("Expected red supply 5 and demand 2, got %d/%d", red.Supply, red.Demand)
	}
	if blue.NumBuildingsUnderConstruction != 1 {
		t.Errorf("Expected blue's farm under construction, got %d", blue.NumBuildingsUnderConstruction)
	}
	if w.Units.Len() != 9 {
		t.Errorf("Expected 9 units, got %d", w.Units.Len())
	}
}

func TestAssignLandmasses(t *testing.T) {
	w := buildTestWorld(t, "twin-fords.json")
	regions := AssignLandmasses(w, 0)

	var land, water []*Landmass
	for _, r := range regions {
		if r.Water {
			water = append(water, r)
		} else {
			land = append(land, r)
		}
	}
	// The road joins both banks and the river runs into the border sea.
	if len(land) != 1 || len(water) != 1 {
		t.Fatalf("Expected 1 land and 1 water region, got %d and %d", len(land), len(water))
	}
	if land[0].ID != 1 || water[0].ID != -1 {
		t.Errorf("Expected IDs 1 and -1, got %d and %d", land[0].ID, water[0].ID)
	}
	if len(land[0].Adjacent) != 1 || land[0].Adjacent[0] != -1 {
		t.Errorf("Expected land to touch the sea, got %v", land[0].Adjacent)
	}
	if total := len(land[0].Cells) + len(water[0].Cells); total != 32*24 {
		t.Errorf("Expected every tile in a region, got %d", total)
	}
	if w.Map.Field(game.Pos{X: 18, Y: 3}, 0).Landmass != -1 {
		t.Error("Expected shallow water in the water region")
	}
}

func TestAssignLandmasses_Islands(t *testing.T) {
	m, err := LoadFromJSON([]byte(`{
		"id": "isles", "name": "Isles", "width": 7, "height": 3,
		"legend": {".": "grass", "~": "water", "f": "grass/forest"},
		"layers": [["~~~~~~~", "~.~f~.~", "~~~~~~~"]]
	}`))
	if err != nil {
		t.Fatalf("LoadFromJSON failed: %v", err)
	}
	w := buildFrom(t, m)
	regions := AssignLandmasses(w, 0)

	if len(regions) != 4 {
		t.Fatalf("Expected 1 sea and 3 islands, got %d regions", len(regions))
	}
	want := map[int]int{1: 1, 2: 1, 3: 1, -1: 18}
	for _, r := range regions {
		if len(r.Cells) != want[r.ID] {
			t.Errorf("Region %s: expected %d cells, got %d", LandmassIDToString(r.ID), want[r.ID], len(r.Cells))
		}
	}
	if got := w.Map.Field(game.Pos{X: 5, Y: 1}, 0).Landmass; got != 3 {
		t.Errorf("Expected east island to be region 3, got %d", got)
	}
	if sea := regions[0]; !sea.Water || len(sea.Adjacent) != 3 {
		t.Errorf("Expected the sea first and touching 3 islands, got %+v", sea)
	}

	out := Debug(w, 0, regions)
	if !strings.Contains(out, "w1: 18 cells, touches [l1 l2 l3]") {
		t.Errorf("Unexpected debug output:\n%s", out)
	}
}

func TestLandmassIDStrings(t *testing.T) {
	tests := []struct {
		id int
		s  string
	}{
		{3, "l3"},
		{-2, "w2"},
	}
	for _, tt := range tests {
		if got := LandmassIDToString(tt.id); got != tt.s {
			t.Errorf("LandmassIDToString(%d) = %q, expected %q", tt.id, got, tt.s)
		}
		if got := StringToLandmassID(tt.s); got != tt.id {
			t.Errorf("StringToLandmassID(%q) = %d, expected %d", tt.s, got, tt.id)
		}
	}
	for _, bad := range []string{"", "x1", "l", "lx"} {
		if got := StringToLandmassID(bad); got != 0 {
			t.Errorf("StringToLandmassID(%q) = %d, expected 0", bad, got)
		}
	}
}
