package game

import (
	"errors"
	"testing"
)

func TestUnitManager_StaleHandles(t *testing.T) {
	m := NewUnitManager(4)
	a, err := m.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	b, _ := m.Allocate()
	old := a.Handle

	m.Release(a)
	if m.Get(old) != nil {
		t.Error("Expected a released handle to resolve to nil")
	}
	if m.Get(NoUnit) != nil {
		t.Error("Expected the zero handle to resolve to nil")
	}

	c, _ := m.Allocate()
	if c.Handle.Index != old.Index {
		t.Errorf("Expected slot %d reused, got %d", old.Index, c.Handle.Index)
	}
	if c.Handle == old || m.Get(old) != nil {
		t.Error("Expected the reused slot to get a new generation")
	}
	if c.Serial != 3 {
		t.Errorf("serial = %d, want 3", c.Serial)
	}

	units := m.Units()
	if len(units) != 2 || units[0] != b || units[1] != c {
		t.Error("Expected iteration in creation order")
	}
	if m.BySerial(b.Serial) != b || m.BySerial(a.Serial) != nil {
		t.Error("Expected serial lookup to find only live units")
	}
}

func TestUnitManager_Capacity(t *testing.T) {
	m := NewUnitManager(2)
	for i := 0; i < 2; i++ {
		if _, err := m.Allocate(); err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
	}
	if _, err := m.Allocate(); !errors.Is(err, ErrUnitLimit) {
		t.Errorf("err = %v, want ErrUnitLimit", err)
	}
	m.Release(m.Units()[0])
	if _, err := m.Allocate(); err != nil {
		t.Errorf("Expected a freed slot to be usable: %v", err)
	}
}

func TestRingPositions(t *testing.T) {
	tests := []struct {
		name      string
		size      Pos
		r         int
		heading   int
		wantLen   int
		wantFirst Pos
	}{
		{name: "north first", size: Pos{1, 1}, r: 1, heading: 0, wantLen: 8, wantFirst: Pos{6, 4}},
		{name: "east first", size: Pos{1, 1}, r: 1, heading: 64, wantLen: 8, wantFirst: Pos{6, 6}},
		{name: "south first", size: Pos{1, 1}, r: 1, heading: 128, wantLen: 8, wantFirst: Pos{4, 6}},
		{name: "west first", size: Pos{1, 1}, r: 1, heading: 192, wantLen: 8, wantFirst: Pos{4, 4}},
		{name: "building ring", size: Pos{2, 2}, r: 2, heading: 0, wantLen: 20, wantFirst: Pos{8, 3}},
	}

	origin := Pos{5, 5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := ringPositions(origin, tt.size, tt.r, tt.heading)
			if len(ring) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(ring), tt.wantLen)
			}
			if ring[0] != tt.wantFirst {
				t.Errorf("first = %v, want %v", ring[0], tt.wantFirst)
			}
			seen := map[Pos]bool{}
			for _, p := range ring {
				if seen[p] {
					t.Errorf("position %v repeated", p)
				}
				seen[p] = true
				if d := distanceToRect(p, origin, tt.size); d != tt.r {
					t.Errorf("position %v at distance %d, want %d", p, d, tt.r)
				}
			}
		})
	}
}

func TestDropOutOnSide_SkipsBlockedTiles(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	hall := placeTestUnit(t, w, c.hall, p, Pos{5, 5})
	// block the whole first ring except one tile
	ring := ringPositions(hall.Pos, hall.Type.TileSize, 1, 0)
	for _, pos := range ring[:len(ring)-1] {
		placeTestUnit(t, w, c.footman, p, pos)
	}

	u, err := w.MakeUnit(c.worker, p)
	if err != nil {
		t.Fatalf("MakeUnit: %v", err)
	}
	if !w.DropOutOnSide(u, 0, hall) {
		t.Fatal("Expected a free tile to be found")
	}
	if u.Pos != ring[len(ring)-1] {
		t.Errorf("pos = %v, want the last free tile %v", u.Pos, ring[len(ring)-1])
	}
	if u.Removed {
		t.Error("Expected the unit placed on the map")
	}
}
