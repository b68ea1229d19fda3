package game

import (
	"ironhold/internal/savefile"
)

// RepairOrder restores a damaged unit, or helps raise a building under
// construction.
type RepairOrder struct {
	orderBase
	Target  UnitHandle
	Goal    Pos
	Z       int
	blocked int
}

func (o *RepairOrder) Action() Action { return ActionRepair }

// Execute walks into range and repairs.
func (o *RepairOrder) Execute(w *World, u *Unit) {
	target := w.Units.Get(o.Target)
	if target == nil || target.Removed || !u.Player.IsAllied(target.Player) {
		o.finished = true
		return
	}
	arrived, blocked := w.stepToward(u, target.Pos, target.Type.TileSize, max(1, u.Type.RepairRange))
	if blocked {
		o.blocked++
		if o.blocked > maxBlockedRetries {
			o.finished = true
		}
		return
	}
	if !arrived {
		return
	}
	if u.Wait > 0 {
		u.Wait--
		return
	}

	if target.UnderConstruction {
		if built, ok := target.CurrentOrder().(*BuiltOrder); ok {
			built.Progress(w, target, 100)
		}
		return
	}
	hp := &target.Variables[VarHP]
	if hp.Value >= hp.Max {
		o.finished = true
		return
	}
	hp.Value = min(hp.Max, hp.Value+max(1, target.Type.RepairHP))
	u.Wait = w.Settings.ShortWait()
}

// Show marks the repair target.
func (o *RepairOrder) Show(w *World, u *Unit) []Marker {
	if t := w.Units.Get(o.Target); t != nil {
		return []Marker{{Pos: t.Pos, Z: t.Z, Label: "repair"}}
	}
	return nil
}

// Save implements Order.
func (o *RepairOrder) Save(w *World, u *Unit) savefile.Table {
	rec := o.header("action-repair")
	if ref, ok := unitRefValue(w, o.Target); ok {
		rec = rec.AddKey("target", ref)
	}
	return rec.AddKey("goal", posValue(o.Goal)).AddKey("z", savefile.Int(o.Z))
}

// ParseSpecificData implements Order.
func (o *RepairOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	var err error
	switch key {
	case "target":
		o.Target, err = readUnitRef(w, c)
	case "goal":
		o.Goal, err = readPos(c)
	case "z":
		o.Z, err = c.Int()
	default:
		return false, nil
	}
	return true, err
}
