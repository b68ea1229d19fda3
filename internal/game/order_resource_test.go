package game

import (
	"testing"

	"ironhold/internal/terrain"
)

func TestResource_HarvestForestAndDeliver(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	placeTestUnit(t, w, c.hall, p, Pos{4, 8})
	worker := placeTestUnit(t, w, c.worker, p, Pos{8, 8})
	forest := Pos{9, 8}
	if err := w.SetTileTerrain(forest, 0, c.forest); err != nil {
		t.Fatalf("SetTileTerrain: %v", err)
	}

	w.CommandResourceLoc(worker, forest, 0, true)
	if _, ok := worker.CurrentOrder().(*ResourceOrder); !ok {
		t.Fatalf("Expected a resource order, got %T", worker.CurrentOrder())
	}

	tickN(w, 400)

	if got := p.Resources[CostWood]; got != 1100 {
		t.Errorf("wood = %d, want 1100", got)
	}
	if worker.ResourcesHeld != 0 {
		t.Errorf("worker still carries %d", worker.ResourcesHeld)
	}
	tile := w.Map.Field(forest, 0)
	if !tile.OverlayDestroyed || !tile.Flags.Has(terrain.FlagStumps) {
		t.Error("Expected the felled forest to leave stumps")
	}
	if tile.Flags.Has(terrain.FlagUnpassable) {
		t.Error("Expected stumps to be passable")
	}
	if _, ok := worker.CurrentOrder().(*StillOrder); !ok {
		t.Errorf("Expected idle worker once the forest is gone, got %T", worker.CurrentOrder())
	}
}

func TestReturnGoods_NoDepot(t *testing.T) {
	w, c, hooks := newTestWorld(t)
	worker := placeTestUnit(t, w, c.worker, w.Players[0], Pos{8, 8})
	worker.CurrentResource = CostGold
	worker.ResourcesHeld = 40

	w.CommandReturnGoods(worker, nil, true)
	w.Tick()

	if _, ok := worker.CurrentOrder().(*StillOrder); !ok {
		t.Errorf("Expected return order dropped, got %T", worker.CurrentOrder())
	}
	if len(hooks.notifications) != 1 {
		t.Errorf("notifications = %v, want one", hooks.notifications)
	}
}

func TestRepair_HelperSpeedsUpConstruction(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	b := constructTestBuilding(t, w, c.hall, p, Pos{4, 4})
	helper := placeTestUnit(t, w, c.worker, p, Pos{6, 4})

	w.CommandRepair(helper, b.Pos, 0, b, true)
	tickN(w, 31)

	if b.UnderConstruction {
		t.Fatal("Expected double progress to finish the hall in 31 cycles")
	}
	if _, ok := helper.CurrentOrder().(*StillOrder); !ok {
		t.Errorf("Expected helper idle, got %T", helper.CurrentOrder())
	}
}

func TestRepair_RestoresHP(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	c.hall.RepairHP = 10
	hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})
	hall.Variables[VarHP].Value = 1170
	helper := placeTestUnit(t, w, c.worker, p, Pos{6, 4})

	w.CommandRepair(helper, hall.Pos, 0, hall, true)
	tickN(w, 30)

	if got := hall.Variables[VarHP].Value; got != 1200 {
		t.Errorf("hp = %d, want 1200", got)
	}
	if _, ok := helper.CurrentOrder().(*StillOrder); !ok {
		t.Errorf("Expected helper idle after repair, got %T", helper.CurrentOrder())
	}
}
