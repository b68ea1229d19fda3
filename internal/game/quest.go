package game

// Objective is a player goal that reacts to game events.
type Objective interface {
	OnUnitBuilt(w *World, u *Unit)
	Complete() bool
}

// BuildUnitsObjective is met once Quantity buildings of Type are finished.
type BuildUnitsObjective struct {
	Type     *UnitType
	Quantity int
	Counter  int
}

// OnUnitBuilt counts finished buildings of the wanted type.
func (o *BuildUnitsObjective) OnUnitBuilt(w *World, u *Unit) {
	if u.Type != o.Type || o.Complete() {
		return
	}
	o.Counter++
	if o.Complete() {
		w.notify(u.Player, NotifyGreen, u.Pos, u.Z, "Objective complete: build %d %s", o.Quantity, o.Type.DisplayName())
	}
}

// Complete returns true once the goal is reached.
func (o *BuildUnitsObjective) Complete() bool {
	return o.Counter >= o.Quantity
}
