package terrain

import (
	"errors"
	"image/color"
	"math/rand"
	"testing"

	"ironhold/internal/savefile"
)

type testTypes struct {
	grass, dirt, snow, water, forest, rock, wall, road, deepwater *Type
}

func newTestTypes() testTypes {
	var tt testTypes
	tt.grass = &Type{Ident: "grass", Flags: FlagLand | FlagGrass, SolidTiles: []int{0, 1, 2}}
	tt.dirt = &Type{Ident: "dirt", Flags: FlagLand | FlagDirt, SolidTiles: []int{0}}
	tt.snow = &Type{Ident: "snow", Flags: FlagLand | FlagSnow, SolidTiles: []int{0}}
	tt.water = &Type{Ident: "shallow-water", Flags: FlagWater, SolidTiles: []int{0}}
	tt.forest = &Type{
		Ident: "forest", Overlay: true, Flags: FlagTree | FlagUnpassable | FlagNoBuilding,
		Resource: 2, ResourceAmount: 100, MovementBonus: -2,
		BaseTypes: []*Type{tt.grass, tt.dirt}, SolidTiles: []int{4, 5}, DestroyedTiles: []int{9},
	}
	tt.rock = &Type{
		Ident: "rock", Overlay: true, Flags: FlagRock | FlagUnpassable,
		Resource: 3, ResourceAmount: 50, BaseTypes: []*Type{tt.dirt},
	}
	tt.wall = &Type{
		Ident: "wall", Overlay: true, Flags: FlagWall | FlagUnpassable | FlagNoBuilding,
		HitPoints: 400, BaseTypes: []*Type{tt.dirt, tt.grass},
	}
	tt.road = &Type{
		Ident: "road", Overlay: true, Pathway: true, Flags: FlagRoad, MovementBonus: 2,
		BaseTypes: []*Type{tt.grass, tt.dirt, tt.snow},
	}
	tt.deepwater = &Type{
		Ident: "deep-water", Overlay: true, Flags: FlagWater, BaseTypes: []*Type{tt.dirt},
	}
	return tt
}

func TestSetTerrain_OverlaySwitchesIncompatibleBase(t *testing.T) {
	tt := newTestTypes()
	tile := NewTile(tt.snow)

	if err := tile.SetTerrain(tt.forest, SetOptions{Editor: true}); err != nil {
		t.Fatalf("SetTerrain: %v", err)
	}
	if tile.Terrain != tt.grass {
		t.Fatalf("base = %s, want primary base grass", tile.Terrain.Ident)
	}
	if tile.Flags.Has(FlagSnow) {
		t.Error("snow flag survived base switch")
	}
	if !tile.Flags.Has(FlagTree | FlagGrass) {
		t.Errorf("flags = %v, want wood and grass", tile.Flags.Tags())
	}
	if tile.Value != 100 {
		t.Errorf("value = %d, want resource default 100", tile.Value)
	}
	if tile.OverlaySolidTile != 4 {
		t.Errorf("editor placement should pick the first solid tile, got %d", tile.OverlaySolidTile)
	}
}

func TestSetTerrain_IncompatibleBaseClearsOverlay(t *testing.T) {
	tt := newTestTypes()
	tile := NewTile(tt.grass)
	tile.SetTerrain(tt.forest, SetOptions{})

	tile.SetTerrain(tt.snow, SetOptions{})
	if tile.Overlay != nil {
		t.Fatal("overlay should be cleared when the new base is incompatible")
	}
	if tile.Value != 0 {
		t.Errorf("value = %d, resource value must go with the overlay", tile.Value)
	}
	if tile.Flags.Has(FlagTree | FlagUnpassable) {
		t.Errorf("overlay flags left behind: %v", tile.Flags.Tags())
	}
}

func TestSetTerrain_CompatibilityInvariant(t *testing.T) {
	tt := newTestTypes()
	all := []*Type{tt.grass, tt.dirt, tt.snow, tt.water, tt.forest, tt.rock, tt.wall, tt.road, tt.deepwater}
	r := rand.New(rand.NewSource(7))
	tile := NewTile(tt.grass)

	for i := 0; i < 2000; i++ {
		typ := all[r.Intn(len(all))]
		if err := tile.SetTerrain(typ, SetOptions{Rand: r.Intn}); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if r.Intn(5) == 0 {
			tile.SetOverlayTerrainDestroyed(r.Intn(2) == 0)
		}
		if tile.Overlay != nil && !tile.Overlay.IsCompatibleBase(tile.Terrain) {
			t.Fatalf("step %d: overlay %s on incompatible base %s", i, tile.Overlay.Ident, tile.Terrain.Ident)
		}
		if tile.Value != 0 && (tile.Overlay == nil || tile.OverlayDestroyed) {
			t.Fatalf("step %d: value %d without a live overlay", i, tile.Value)
		}
		if want := DefaultTileMovementCost - tile.TopTerrain().MovementBonus; tile.MovementCost != want {
			t.Fatalf("step %d: movement cost %d, want %d", i, tile.MovementCost, want)
		}
	}
}

func TestSetTerrain_WaterOverlayStripsGround(t *testing.T) {
	tt := newTestTypes()
	tile := NewTile(tt.dirt)
	tile.SetTerrain(tt.deepwater, SetOptions{})

	if tile.Flags.Has(FlagLand | FlagDirt) {
		t.Errorf("ground flags under water: %v", tile.Flags.Tags())
	}
	if tile.Category() != CategoryWater {
		t.Errorf("category = %d, want water", tile.Category())
	}

	tile.RemoveOverlayTerrain()
	if !tile.Flags.Has(FlagLand) || tile.Category() != CategoryLand {
		t.Errorf("ground flags not restored: %v", tile.Flags.Tags())
	}
}

func TestSetOverlayTerrainDestroyed(t *testing.T) {
	tt := newTestTypes()

	tile := NewTile(tt.grass)
	tile.SetTerrain(tt.forest, SetOptions{})
	tile.SetOverlayTerrainDestroyed(true)
	if !tile.Flags.Has(FlagStumps) || tile.Flags.Has(FlagTree|FlagUnpassable) {
		t.Errorf("destroyed forest flags = %v", tile.Flags.Tags())
	}
	if tile.MovementCost != DefaultTileMovementCost {
		t.Errorf("destroyed overlay should not affect cost, got %d", tile.MovementCost)
	}
	tile.RemoveOverlayTerrain()
	if tile.Flags.Has(FlagStumps) {
		t.Error("stumps survived overlay removal")
	}

	tile = NewTile(tt.dirt)
	tile.SetTerrain(tt.wall, SetOptions{})
	if tile.Value != 400 {
		t.Errorf("wall value = %d, want hit points", tile.Value)
	}
	tile.SetOverlayTerrainDestroyed(true)
	if !tile.Flags.Has(FlagGravel) || tile.Flags.Has(FlagWall) {
		t.Errorf("destroyed wall flags = %v", tile.Flags.Tags())
	}
}

func TestRecomputeDerivedFlags(t *testing.T) {
	tt := newTestTypes()
	cases := []struct {
		name       string
		setup      func(*Tile)
		wantAir    bool
		wantNoRail bool
		wantCost   int
	}{
		{"plain", func(*Tile) {}, false, true, 8},
		{"railroad", func(tl *Tile) { tl.Flags |= FlagRailroad }, false, false, 8},
		{"surface wall", func(tl *Tile) { tl.SetTerrain(tt.wall, SetOptions{}) }, false, true, 8},
		{"underground wall", func(tl *Tile) {
			tl.SetTerrain(tt.wall, SetOptions{})
			tl.Flags |= FlagUnderground
		}, true, true, 8},
		{"underground destroyed wall", func(tl *Tile) {
			tl.SetTerrain(tt.wall, SetOptions{})
			tl.Flags |= FlagUnderground
			tl.SetOverlayTerrainDestroyed(true)
		}, false, true, 8},
		{"road", func(tl *Tile) { tl.SetTerrain(tt.road, SetOptions{}) }, false, true, 6},
		{"forest", func(tl *Tile) { tl.SetTerrain(tt.forest, SetOptions{}) }, false, true, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tile := NewTile(tt.grass)
			tc.setup(tile)
			tile.RecomputeDerivedFlags()
			if got := tile.Flags.Has(FlagAirUnpassable); got != tc.wantAir {
				t.Errorf("air-unpassable = %v, want %v", got, tc.wantAir)
			}
			if got := tile.Flags.Has(FlagNoRail); got != tc.wantNoRail {
				t.Errorf("no-rail = %v, want %v", got, tc.wantNoRail)
			}
			if tile.MovementCost != tc.wantCost {
				t.Errorf("movement cost = %d, want %d", tile.MovementCost, tc.wantCost)
			}
		})
	}
}

func TestSetTerrain_FeaturePreservedUnderPathway(t *testing.T) {
	tt := newTestTypes()
	trail := &Type{Ident: "trail", Overlay: true, Pathway: true, BaseTypes: []*Type{tt.grass}}
	route := &Feature{Ident: "silk-road", Terrain: trail, TradeRoute: true}
	river := &Feature{Ident: "river", Terrain: tt.deepwater}

	tile := NewTile(tt.grass)
	tile.SetTerrain(trail, SetOptions{})
	tile.Feature = route
	tile.SetTerrain(tt.road, SetOptions{})
	if tile.Feature != route {
		t.Error("trade route dropped under a pathway overlay")
	}
	tile.SetTerrain(tt.forest, SetOptions{})
	if tile.Feature != nil {
		t.Error("trade route kept under a non-pathway overlay")
	}

	tile.Feature = river
	tile.SetTerrain(tt.dirt, SetOptions{})
	if tile.Feature != river {
		t.Error("base change must not clear an overlay feature")
	}
}

func TestSetTerrain_OverlayWithoutBase(t *testing.T) {
	orphan := &Type{Ident: "orphan", Overlay: true}
	tile := &Tile{}
	if err := tile.SetTerrain(orphan, SetOptions{}); !errors.Is(err, ErrNoBaseTerrain) {
		t.Fatalf("err = %v, want ErrNoBaseTerrain", err)
	}
	if tile.Overlay != nil {
		t.Error("overlay installed without a base")
	}
}

func TestVisibilityFor(t *testing.T) {
	tile := &Tile{}
	if tile.VisibilityFor(0b11) != 0 {
		t.Error("fresh tile should be unexplored")
	}
	tile.Explore(1)
	if tile.VisibilityFor(0b01) != 0 || tile.VisibilityFor(0b11) != 1 {
		t.Error("explored bit not honoured per player")
	}
	tile.Visible[0]++
	if tile.VisibilityFor(0b01) != 2 {
		t.Error("visible tile should report 2")
	}
}

func TestSeenState(t *testing.T) {
	tt := newTestTypes()
	tile := NewTile(tt.grass)
	tile.SetTerrain(tt.forest, SetOptions{})
	if tile.SeenOverlay() != tt.forest {
		t.Error("unseen tile should fall back to live overlay")
	}
	tile.UpdateSeen()
	tile.RemoveOverlayTerrain()
	if tile.SeenOverlay() != tt.forest {
		t.Error("seen state should keep the forest after it was cut")
	}
	tile.UpdateSeen()
	if tile.SeenOverlay() != nil || !tile.IsSeenLand() {
		t.Error("refreshing seen state should drop the forest")
	}
}

type mapResolver struct {
	types    map[string]*Type
	features map[string]*Feature
	sites    map[string]SiteID
}

func (r mapResolver) TerrainType(ident string) *Type { return r.types[ident] }
func (r mapResolver) Feature(ident string) *Feature { return r.features[ident] }
func (r mapResolver) SiteByIdent(ident string) (SiteID, bool) {
	id, ok := r.sites[ident]
	return id, ok
}
func (r mapResolver) SiteIdent(id SiteID) string {
	for ident, sid := range r.sites {
		if sid == id {
			return ident
		}
	}
	return ""
}

func TestTileRecord(t *testing.T) {
	tt := newTestTypes()
	res := mapResolver{
		types: map[string]*Type{"grass": tt.grass, "dirt": tt.dirt, "forest": tt.forest},
		sites: map[string]SiteID{"site-ravenholm": 3},
	}
	tile := NewTile(tt.grass)
	tile.SetTerrain(tt.forest, SetOptions{})
	tile.Settlement = 3
	tile.Landmass = 2
	tile.Flags |= FlagLandUnit
	tile.Explore(0)
	tile.Explore(4)
	tile.TransitionTiles = []TransitionTile{{Terrain: tt.dirt, Tile: 7}}
	tile.UpdateSeen()

	text := tile.Record(res).String()
	rec, err := savefile.Parse(text)
	if err != nil {
		t.Fatalf("parse %s: %v", text, err)
	}
	var got Tile
	if err := got.ParseRecord(rec, res); err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if got.Terrain != tt.grass || got.Overlay != tt.forest || got.Value != 100 {
		t.Errorf("terrain stack not restored: %+v", got)
	}
	if got.Settlement != 3 || got.Landmass != 2 {
		t.Errorf("settlement %d landmass %d", got.Settlement, got.Landmass)
	}
	if !got.IsExplored(0) || !got.IsExplored(4) || got.IsExplored(1) {
		t.Errorf("explored mask = %b", got.Explored)
	}
	if got.Flags.Has(FlagLandUnit) {
		t.Error("occupancy flags should be rebuilt by units, not saved")
	}
	if got.Flags != tile.Flags&^OccupancyFlags {
		t.Errorf("flags = %v, want %v", got.Flags.Tags(), tile.Flags.Tags())
	}
	if len(got.TransitionTiles) != 1 || got.TransitionTiles[0].Tile != 7 {
		t.Errorf("transitions = %+v", got.TransitionTiles)
	}
}

func TestTileRecord_RejectsUnknownTag(t *testing.T) {
	tt := newTestTypes()
	res := mapResolver{types: map[string]*Type{"grass": tt.grass}}
	rec, err := savefile.Parse(`{"grass", "", "", false, false, "", "", 0, 0, 0, 0, 0, 8, 0, "", "land", "lava"}`)
	if err != nil {
		t.Fatal(err)
	}
	var tile Tile
	if err := tile.ParseRecord(rec, res); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("err = %v, want ErrUnknownFlag", err)
	}
}

func TestSolidGraphic(t *testing.T) {
	c := color.RGBA{R: 10, G: 200, B: 30, A: 255}
	g := SolidGraphic(c)
	if got := g.FramePixel(0, 7, 6); got != c {
		t.Errorf("sample = %v, want %v", got, c)
	}
	if got := g.FramePixel(0, 99, -5); got != c {
		t.Errorf("clamped sample = %v, want %v", got, c)
	}
}
