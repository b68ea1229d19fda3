package game

import (
	"ironhold/internal/savefile"
)

// maxBlockedRetries is how many cycles a moving unit waits for a blocked path.
const maxBlockedRetries = 10

// StillOrder keeps a unit idle.
type StillOrder struct {
	orderBase
}

func (o *StillOrder) Action() Action { return ActionStill }

// Execute does nothing; a still order lasts until replaced.
func (o *StillOrder) Execute(w *World, u *Unit) {}

// Save implements Order.
func (o *StillOrder) Save(w *World, u *Unit) savefile.Table {
	return o.header("action-still")
}

// ParseSpecificData implements Order.
func (o *StillOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	return false, nil
}

// MoveOrder walks a unit to a goal tile.
type MoveOrder struct {
	orderBase
	Goal    Pos
	Z       int
	Range   int
	blocked int
}

func (o *MoveOrder) Action() Action { return ActionMove }

// Execute steps one tile toward the goal.
func (o *MoveOrder) Execute(w *World, u *Unit) {
	arrived, blocked := w.stepToward(u, o.Goal, Pos{1, 1}, o.Range)
	switch {
	case arrived:
		o.finished = true
	case blocked:
		o.blocked++
		if o.blocked > maxBlockedRetries {
			o.finished = true
		}
	default:
		o.blocked = 0
	}
}

// Show marks the destination.
func (o *MoveOrder) Show(w *World, u *Unit) []Marker {
	return []Marker{{Pos: o.Goal, Z: o.Z, Label: "move"}}
}

// Save implements Order.
func (o *MoveOrder) Save(w *World, u *Unit) savefile.Table {
	return o.header("action-move").
		AddKey("goal", posValue(o.Goal)).
		AddKey("z", savefile.Int(o.Z)).
		AddKey("range", savefile.Int(o.Range))
}

// ParseSpecificData implements Order.
func (o *MoveOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	var err error
	switch key {
	case "goal":
		o.Goal, err = readPos(c)
	case "z":
		o.Z, err = c.Int()
	case "range":
		o.Range, err = c.Int()
	default:
		return false, nil
	}
	return true, err
}

// stepToward moves u one tile closer to the rectangle at goal with size. It
// reports arrival once u is within rng, and blocked when no step is possible.
func (w *World) stepToward(u *Unit, goal, size Pos, rng int) (arrived, blocked bool) {
	if distanceToRect(u.Pos, goal, size) <= rng {
		return true, false
	}
	if u.Wait > 0 {
		u.Wait--
		return false, false
	}

	target := Pos{
		X: min(max(u.Pos.X, goal.X), goal.X+max(1, size.X)-1),
		Y: min(max(u.Pos.Y, goal.Y), goal.Y+max(1, size.Y)-1),
	}
	dx, dy := sign(target.X-u.Pos.X), sign(target.Y-u.Pos.Y)
	for _, step := range []Pos{{dx, dy}, {dx, 0}, {0, dy}} {
		if step == (Pos{}) {
			continue
		}
		next := u.Pos.Add(step)
		tile := w.Map.Field(next, u.Z)
		if tile == nil || !u.Type.CanStandOn(tile) {
			continue
		}
		w.moveUnit(u, next)
		u.Wait = max(0, tile.MovementCost-1)
		return false, false
	}
	return false, true
}

func (w *World) moveUnit(u *Unit, to Pos) {
	w.UnmarkUnitSight(u)
	w.removeUnitFromTiles(u)
	u.Pos = to
	w.insertUnit(u)
	w.MarkUnitSight(u)
}
