package game

import (
	"errors"
	"testing"
)

func TestTrain_ProducesUnitAfterTimeCost(t *testing.T) {
	w, c, hooks := newTestWorld(t)
	p := w.Players[0]
	hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})

	if err := w.CommandTrainUnit(hall, c.footman); err != nil {
		t.Fatalf("CommandTrainUnit: %v", err)
	}
	if p.Resources[CostGold] != 940 {
		t.Errorf("gold = %d, want 940 after paying", p.Resources[CostGold])
	}

	// one tick of training every ShortWait+1 cycles, three ticks needed
	tickN(w, 12)
	if p.UnitTypesCount[c.footman] != 0 {
		t.Fatal("Expected no footman before the time cost is paid")
	}
	w.Tick()
	if p.UnitTypesCount[c.footman] != 1 {
		t.Fatalf("footmen = %d, want 1", p.UnitTypesCount[c.footman])
	}
	if _, ok := hall.CurrentOrder().(*StillOrder); !ok {
		t.Errorf("Expected idle hall, got %T", hall.CurrentOrder())
	}
	if p.Demand != 1 {
		t.Errorf("demand = %d, want 1", p.Demand)
	}
	if hooks.count(EventUnitTrained) != 1 {
		t.Error("Expected a unit-trained event")
	}

	tickN(w, 30)
	if p.UnitTypesCount[c.footman] != 1 {
		t.Errorf("Expected exactly one footman, got %d", p.UnitTypesCount[c.footman])
	}
}

func TestTrain_SupplyStallResetsTicks(t *testing.T) {
	tests := []struct {
		name           string
		ai             bool
		wantNeedSupply int
		wantNotified   bool
	}{
		{name: "person", wantNotified: true},
		{name: "computer", ai: true, wantNeedSupply: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c, hooks := newTestWorld(t)
			p := w.Players[0]
			p.AI = tt.ai
			hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})
			p.Supply = 0

			o := NewTrainOrder(c.footman, p)
			o.Ticks = 5
			hall.Orders = []Order{o}

			w.Tick()
			if o.Ticks != 0 {
				t.Errorf("ticks = %d, want 0", o.Ticks)
			}
			if hall.Wait != w.Settings.ShortWait() {
				t.Errorf("wait = %d, want %d", hall.Wait, w.Settings.ShortWait())
			}
			if o.Finished() {
				t.Error("Expected the order to stay queued")
			}
			if hooks.needSupply != tt.wantNeedSupply {
				t.Errorf("NeedMoreSupply calls = %d, want %d", hooks.needSupply, tt.wantNeedSupply)
			}
			if got := len(hooks.notifications) > 0; got != tt.wantNotified {
				t.Errorf("notified = %v, want %v", got, tt.wantNotified)
			}
		})
	}
}

func TestTrain_CancelRefundsEveryUnit(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "single", quantity: 1},
		{name: "pair", quantity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c, hooks := newTestWorld(t)
			c.footman.TrainQuantity = tt.quantity
			p := w.Players[0]
			hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})

			if err := w.CommandTrainUnit(hall, c.footman); err != nil {
				t.Fatalf("CommandTrainUnit: %v", err)
			}
			if want := 1000 - 60*tt.quantity; p.Resources[CostGold] != want {
				t.Fatalf("gold = %d, want %d", p.Resources[CostGold], want)
			}
			tickN(w, 3)

			if err := w.CommandCancelTraining(hall, -1); err != nil {
				t.Fatalf("CommandCancelTraining: %v", err)
			}
			if p.Resources[CostGold] != 1000 {
				t.Errorf("gold = %d, want full refund", p.Resources[CostGold])
			}
			if _, ok := hall.CurrentOrder().(*StillOrder); !ok {
				t.Errorf("Expected idle hall, got %T", hall.CurrentOrder())
			}
			if hooks.count(EventTrainingCancelled) != 1 {
				t.Error("Expected a training-cancelled event")
			}
		})
	}
}

func TestTrain_CancelKeepsOtherSlots(t *testing.T) {
	w, c, _ := newTestWorld(t)
	hall := placeTestUnit(t, w, c.hall, w.Players[0], Pos{4, 4})
	for _, typ := range []*UnitType{c.worker, c.footman, c.worker} {
		if err := w.CommandTrainUnit(hall, typ); err != nil {
			t.Fatalf("CommandTrainUnit(%s): %v", typ.Ident, err)
		}
	}

	if err := w.CommandCancelTraining(hall, 1); err != nil {
		t.Fatalf("CommandCancelTraining: %v", err)
	}
	if len(hall.Orders) != 2 {
		t.Fatalf("queue length = %d, want 2", len(hall.Orders))
	}
	for i, o := range hall.Orders {
		if tr := o.(*TrainOrder); tr.Type != c.worker {
			t.Errorf("slot %d trains %s, want worker", i, tr.Type.Ident)
		}
	}
	if err := w.CommandCancelTraining(hall, 5); !errors.Is(err, ErrNoSuchOrder) {
		t.Errorf("err = %v, want ErrNoSuchOrder", err)
	}
}

func TestTrain_Rejected(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	site := constructTestBuilding(t, w, c.hall, p, Pos{4, 4})
	if err := w.CommandTrainUnit(site, c.footman); !errors.Is(err, ErrUnderConstruction) {
		t.Errorf("under construction: err = %v, want ErrUnderConstruction", err)
	}

	hall := placeTestUnit(t, w, c.hall, p, Pos{10, 10})
	if err := w.CommandTrainUnit(hall, c.hall); !errors.Is(err, ErrCannotTrain) {
		t.Errorf("wrong type: err = %v, want ErrCannotTrain", err)
	}

	p.Resources[CostGold] = 10
	if err := w.CommandTrainUnit(hall, c.footman); !errors.Is(err, ErrInsufficientResources) {
		t.Errorf("poor: err = %v, want ErrInsufficientResources", err)
	}
}

func TestTrain_RallyPointSendsUnitToHarvest(t *testing.T) {
	w, c, _ := newTestWorld(t)
	p := w.Players[0]
	hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})
	forest := Pos{10, 4}
	if err := w.SetTileTerrain(forest, 0, c.forest); err != nil {
		t.Fatalf("SetTileTerrain: %v", err)
	}
	w.Map.Field(forest, 0).Explore(p.Index)
	w.CommandSetRallyPoint(hall, forest, 0)

	if err := w.CommandTrainUnit(hall, c.worker); err != nil {
		t.Fatalf("CommandTrainUnit: %v", err)
	}
	var worker *Unit
	for i := 0; i < 100 && worker == nil; i++ {
		w.Tick()
		for _, u := range w.Units.Units() {
			if u.Type == c.worker {
				worker = u
			}
		}
	}
	if worker == nil {
		t.Fatal("Expected a worker to be trained")
	}
	o, ok := worker.CurrentOrder().(*ResourceOrder)
	if !ok {
		t.Fatalf("Expected worker sent to harvest, got %T", worker.CurrentOrder())
	}
	if o.Goal != forest || o.Resource != CostWood {
		t.Errorf("harvest order = %+v, want wood at %v", o, forest)
	}
}

func TestTrain_ItemBelongsToNeutral(t *testing.T) {
	w, c, hooks := newTestWorld(t)
	p := w.Players[0]
	w.ThisPlayer = p
	potion := &UnitType{Ident: "unit-potion", Name: "Potion", Slot: 6, TileSize: Pos{1, 1}, Item: true}
	potion.DefaultStats.Costs = Costs{CostTime: 1, CostGold: 20}
	potion.DefaultStats.Variables[VarHP] = Variable{Value: 1, Max: 1, Enable: true}
	potion.InitStats()
	w.UnitTypes = append(w.UnitTypes, potion)
	c.hall.CanTrain = append(c.hall.CanTrain, potion)
	hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})

	if err := w.CommandTrainUnit(hall, potion); err != nil {
		t.Fatalf("CommandTrainUnit: %v", err)
	}
	w.Tick()

	var item *Unit
	for _, u := range w.Units.Units() {
		if u.Type == potion {
			item = u
		}
	}
	if item == nil {
		t.Fatal("Expected the potion to be made")
	}
	if item.Player != w.NeutralPlayer() {
		t.Errorf("potion owner = %d, want neutral", item.Player.Index)
	}
	if p.UnitTypesCount[potion] != 0 || w.NeutralPlayer().UnitTypesCount[potion] != 1 {
		t.Error("Expected the potion counted for the neutral player only")
	}
	ready := false
	for _, s := range hooks.sounds {
		if s.unit == item && s.cue == SoundReady {
			ready = true
		}
	}
	if !ready {
		t.Error("Expected the ready cue for the trainer's own item")
	}
}

func TestTrain_MakeUnitFailureRetries(t *testing.T) {
	w, c, hooks := newTestWorld(t)
	w.Units = NewUnitManager(2)
	p := w.Players[0]
	hall := placeTestUnit(t, w, c.hall, p, Pos{4, 4})
	blocker := placeTestUnit(t, w, c.worker, p, Pos{10, 10})

	if err := w.CommandTrainUnit(hall, c.footman); err != nil {
		t.Fatalf("CommandTrainUnit: %v", err)
	}
	tickN(w, 13)

	o, ok := hall.CurrentOrder().(*TrainOrder)
	if !ok {
		t.Fatalf("Expected the training order kept, got %T", hall.CurrentOrder())
	}
	if o.Ticks != o.Type.TimeCost(p.Index) {
		t.Errorf("ticks = %d, want %d", o.Ticks, o.Type.TimeCost(p.Index))
	}
	if hall.Wait != w.Settings.ShortWait() {
		t.Errorf("wait = %d, want %d", hall.Wait, w.Settings.ShortWait())
	}
	if len(hooks.notifications) != 1 || hooks.notifications[0] != "Unable to train Footman" {
		t.Errorf("notifications = %q, want one failure", hooks.notifications)
	}

	w.LetUnitDie(blocker)
	tickN(w, w.Settings.ShortWait()+1)
	if p.UnitTypesCount[c.footman] != 1 {
		t.Errorf("footmen = %d, want 1 once a slot is free", p.UnitTypesCount[c.footman])
	}
}
