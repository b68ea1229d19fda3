package game

import (
	"fmt"

	"ironhold/internal/savefile"
)

// BuildOrder walks a worker to a building site and lays the foundation.
type BuildOrder struct {
	orderBase
	Type    *UnitType
	Goal    Pos
	Z       int
	blocked int
}

func (o *BuildOrder) Action() Action { return ActionBuild }

// Execute moves the worker next to the site and starts construction there.
func (o *BuildOrder) Execute(w *World, u *Unit) {
	arrived, blocked := w.stepToward(u, o.Goal, o.Type.TileSize, 1)
	if blocked {
		o.blocked++
		if o.blocked > maxBlockedRetries {
			w.notify(u.Player, NotifyYellow, o.Goal, o.Z, "You cannot reach building place")
			o.finished = true
		}
		return
	}
	if arrived {
		w.startBuilding(u, o)
	}
}

func (w *World) startBuilding(worker *Unit, o *BuildOrder) {
	o.finished = true
	p := worker.Player
	t := o.Type
	if !w.CanBuildUnitType(t, o.Goal, o.Z) {
		w.notify(p, NotifyYellow, o.Goal, o.Z, "You cannot build %s there", t.DisplayName())
		return
	}
	if err := p.CheckLimits(t, 1); err != nil {
		w.notify(p, NotifyYellow, o.Goal, o.Z, "Cannot build %s: %v", t.DisplayName(), err)
		return
	}
	costs := t.StatsFor(p.Index).Costs
	if err := p.CheckCosts(costs, 1); err != nil {
		w.notify(p, NotifyYellow, o.Goal, o.Z, "Cannot build %s: %v", t.DisplayName(), err)
		return
	}
	b, err := w.MakeUnit(t, p)
	if err != nil {
		w.notify(p, NotifyYellow, o.Goal, o.Z, "Unable to create building %s", t.DisplayName())
		return
	}
	if t.OnTopOf != nil {
		if deposit := w.unitOfTypeAt(t.OnTopOf, o.Goal, o.Z); deposit != nil {
			b.ResourcesHeld = deposit.ResourcesHeld
			w.removeUnit(deposit)
			w.unitLost(deposit)
			w.Units.Release(deposit)
		}
	}
	p.SubCosts(costs, 1)
	w.StartConstruction(b, worker, o.Goal, o.Z)

	if t.BuilderOutside {
		help := &RepairOrder{Target: b.Handle, Goal: b.Pos, Z: b.Z}
		worker.Orders = append([]Order{o, help}, worker.Orders[1:]...)
		return
	}
	w.removeUnit(worker)
	worker.Container = b.Handle
}

// Show marks the building site.
func (o *BuildOrder) Show(w *World, u *Unit) []Marker {
	return []Marker{{Pos: o.Goal, Z: o.Z, Label: o.Type.Ident}}
}

// Save implements Order.
func (o *BuildOrder) Save(w *World, u *Unit) savefile.Table {
	return o.header("action-build").
		AddKey("type", savefile.Str(o.Type.Ident)).
		AddKey("goal", posValue(o.Goal)).
		AddKey("z", savefile.Int(o.Z))
}

// ParseSpecificData implements Order.
func (o *BuildOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	var err error
	switch key {
	case "type":
		var ident string
		if ident, err = c.String(); err == nil {
			if o.Type = w.UnitType(ident); o.Type == nil {
				return true, fmt.Errorf("%w: %q", ErrUnknownUnitType, ident)
			}
		}
	case "goal":
		o.Goal, err = readPos(c)
	case "z":
		o.Z, err = c.Int()
	default:
		return false, nil
	}
	return true, err
}
