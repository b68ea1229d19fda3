package game

import (
	"fmt"

	"ironhold/internal/savefile"
)

// BuiltOrder drives a building from its first construction frame to completion.
// Progress is counted in units of time cost × 600.
type BuiltOrder struct {
	orderBase
	// Worker is the unit credited with the construction, if any.
	Worker          UnitHandle
	ProgressCounter int
	// Frame is the index of the active entry in the type's construction list.
	Frame  int
	cancel bool
}

// NewBuiltOrder returns a construction order for a building raised by worker.
func NewBuiltOrder(worker *Unit) *BuiltOrder {
	o := &BuiltOrder{}
	if worker != nil {
		o.Worker = worker.Handle
	}
	return o
}

func (o *BuiltOrder) Action() Action { return ActionBuilt }

// IsCancelled returns true once a cancel has been requested.
func (o *BuiltOrder) IsCancelled() bool { return o.cancel }

// Cancel requests cancellation. It takes effect on the next Execute.
func (o *BuiltOrder) Cancel(w *World, u *Unit) {
	o.cancel = true
}

func buildCosts(u *Unit) int {
	return u.Type.TimeCost(u.Player.Index) * ConstructionProgressScale
}

// scaledProgress is the counter delta for amount at the owner's build speed.
func scaledProgress(w *World, u *Unit, amount int) int {
	return max(0, amount*u.Player.SpeedBuild/w.Settings.SpeedupFactor)
}

// Progress advances construction by amount.
func (o *BuiltOrder) Progress(w *World, u *Unit, amount int) {
	o.Boost(w, u, amount, VarHP)
	o.Boost(w, u, amount, VarShield)

	o.ProgressCounter = min(buildCosts(u), o.ProgressCounter+scaledProgress(w, u, amount))
	o.UpdateConstructionFrame(w, u)
}

// Boost raises a statistic along with progress. The full value is interpolated
// from the progress, and any damage taken while under construction is carried
// over unchanged.
func (o *BuiltOrder) Boost(w *World, u *Unit, amount, index int) {
	v := &u.Variables[index]
	if v.Max == 0 {
		return
	}
	costs := buildCosts(u)
	if costs <= 0 {
		v.Value = v.Max
		return
	}
	progress := o.ProgressCounter
	newProgress := min(costs, progress+scaledProgress(w, u, amount))

	damage := progress*v.Max/costs - v.Value
	v.Value = min(v.Max, newProgress*v.Max/costs-damage)
}

// UpdateConstructionFrame selects the last frame whose threshold does not
// exceed the current percentage. Flipped (negative) frames stay flipped.
func (o *BuiltOrder) UpdateConstructionFrame(w *World, u *Unit) {
	frames := u.Type.Construction
	if len(frames) == 0 {
		return
	}
	percent := 100
	if tc := u.Type.TimeCost(u.Player.Index); tc > 0 {
		percent = o.ProgressCounter / (tc * 6)
	}

	idx := 0
	for idx+1 < len(frames) && percent >= frames[idx+1].Percent {
		idx++
	}
	if idx == o.Frame {
		return
	}
	o.Frame = idx
	if f := frames[idx].Frame; u.Frame < 0 {
		u.Frame = -f - 1
	} else {
		u.Frame = f
	}
}

// Execute runs one cycle of construction.
func (o *BuiltOrder) Execute(w *World, u *Unit) {
	if !w.checkCurrent(u, o) {
		return
	}
	o.Progress(w, u, u.Player.BuildAmount(u.Type))

	if o.cancel || o.ProgressCounter < 0 {
		w.Log.Debugf("%d: %s canceled", u.Player.Index, u.Type.Ident)
		o.cancelBuilt(w, u)
		return
	}
	if o.ProgressCounter >= buildCosts(u) && !u.Anim.Unbreakable {
		o.finish(w, u)
	}
}

// cancelBuilt refunds part of the cost, ejects the worker and removes the site.
func (o *BuiltOrder) cancelBuilt(w *World, u *Unit) {
	if worker := w.Units.Get(o.Worker); worker != nil {
		worker.ClearOrders()
		if worker.Removed {
			w.DropOutOnSide(worker, LookingW, u)
		}
	}
	u.Player.AddCostsFactor(u.Stats().Costs, w.Settings.CancelBuildingCostsFactor)
	w.emit(unitEvent(EventBuildingCancelled, u))
	o.finished = true
	w.LetUnitDie(u)
}

func (o *BuiltOrder) finish(w *World, u *Unit) {
	typ := u.Type
	p := u.Player
	w.Log.Debugf("%d: building %s ready", p.Index, typ.Ident)

	p.changeUnderConstruction(typ, -1)
	for _, obj := range p.Objectives {
		obj.OnUnitBuilt(w, u)
	}
	if s := u.Settlement; s != nil && s.SiteUnit == u.Handle {
		s.SetOwner(w, siteOwner(p))
	}

	u.UnderConstruction = false
	if u.Frame < 0 {
		u.Frame = -typ.StillFrame - 1
	} else {
		u.Frame = typ.StillFrame
	}

	worker := w.Units.Get(o.Worker)
	helpers := w.constructionHelpers(u)
	for _, h := range helpers {
		w.autoHarvestOrReturn(h, u)
	}

	if xp := typ.TimeCost(p.Index) / 10; xp > 0 {
		credited := len(helpers)
		if worker != nil {
			credited++
		}
		if credited > 0 {
			share := xp / credited
			if worker != nil {
				gainXP(worker, share)
			}
			for _, h := range helpers {
				gainXP(h, share)
			}
		}
	}

	if worker != nil {
		if typ.BuilderLost || worker.Type.BuilderLost {
			w.LetUnitDie(worker)
		} else {
			worker.ClearOrders()
			if worker.Removed {
				w.DropOutOnSide(worker, LookingW, u)
			}
			w.autoHarvestOrReturn(worker, u)
			if p.AI {
				w.AI.WorkComplete(worker, u)
			}
		}
	}
	if p == w.ThisPlayer {
		w.Sound.PlayUnitSound(u, SoundConstructionEnd)
	}
	w.emit(unitEvent(EventBuildingFinished, u))

	if tt := typ.TerrainType; tt != nil {
		pos, z := u.Pos, u.Z
		if tile := w.Map.Field(pos, z); tile != nil && tile.Overlay == tt && tile.OverlayDestroyed {
			w.RemoveTileOverlayTerrain(pos, z)
		}
		o.finished = true
		w.releaseUnit(u)
		if err := w.SetTileTerrain(pos, z, tt); err != nil {
			w.Log.WithError(err).Warnf("stamping %s at %d,%d", tt.Ident, pos.X, pos.Y)
		}
		return
	}

	w.UpdateForNewUnit(u, false)
	switch {
	case typ.Wall:
		w.correctWallDirections(u)
		w.correctWallNeighbours(u)
	case typ.NumDirections > 1 && !typ.NoRandomPlacing:
		u.Direction = w.Rand.Next() & 0xFF
	}
	if u.Selected {
		if w.IsOnlySelected(u) {
			w.UI.UpdateButtonPanel()
		}
		w.UI.SelectionChanged()
	}
	w.UnmarkUnitSight(u)
	u.Variables[VarSightRange].Value = u.Stats().Variables[VarSightRange].Max
	w.MarkUnitSight(u)
	o.finished = true
}

func gainXP(u *Unit, xp int) {
	u.Variables[VarXP].Value += xp
	u.Variables[VarXP].Max += xp
}

// constructionHelpers returns the units repairing u from within their range.
func (w *World) constructionHelpers(u *Unit) []*Unit {
	var out []*Unit
	for _, h := range w.Units.Units() {
		if h == u || h.Removed {
			continue
		}
		r, ok := h.CurrentOrder().(*RepairOrder)
		if !ok || r.Target != u.Handle {
			continue
		}
		if u.DistanceTo(h.Pos) > max(1, h.Type.RepairRange) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// autoHarvestOrReturn sends a unit that helped finish b to work with it.
func (w *World) autoHarvestOrReturn(h, b *Unit) {
	res := b.Type.GivesResource
	if res != 0 && b.Type.CanHarvest && h.Type.CanHarvestResource(res) {
		w.CommandResource(h, b, false)
	}
	if h.ResourcesHeld > 0 && b.Type.CanStore[h.CurrentResource] {
		w.CommandReturnGoods(h, b, false)
	}
}

// Show marks the worker credited with the construction.
func (o *BuiltOrder) Show(w *World, u *Unit) []Marker {
	if worker := w.Units.Get(o.Worker); worker != nil && !worker.Removed {
		return []Marker{{Pos: worker.Pos, Z: worker.Z, Label: "builder"}}
	}
	return nil
}

// UpdateUnitVariables exposes construction progress for the UI.
func (o *BuiltOrder) UpdateUnitVariables(w *World, u *Unit) {
	v := &u.Variables[VarBuild]
	v.Max = buildCosts(u)
	v.Value = max(0, min(o.ProgressCounter, v.Max))
	v.Enable = true
}

// AiUnitKilled lets the AI forget the building it planned.
func (o *BuiltOrder) AiUnitKilled(w *World, u *Unit) {
	if u.Player.AI {
		w.AI.ReduceMadeInBuilt(u.Player, u.Type)
	}
}

// Save implements Order.
func (o *BuiltOrder) Save(w *World, u *Unit) savefile.Table {
	rec := o.header("action-built")
	if ref, ok := unitRefValue(w, o.Worker); ok {
		rec = rec.AddKey("worker", ref)
	}
	rec = rec.AddKey("progress", savefile.Int(o.ProgressCounter))
	rec = rec.AddKey("frame", savefile.Int(o.Frame))
	if o.cancel {
		rec = rec.Add(savefile.Str("cancel"))
	}
	return rec
}

// ParseSpecificData implements Order. The frame is stored as an ordinal into
// the construction list and is validated against it.
func (o *BuiltOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	var err error
	switch key {
	case "worker":
		o.Worker, err = readUnitRef(w, c)
	case "progress":
		o.ProgressCounter, err = c.Int()
	case "frame":
		var n int
		if n, err = c.Int(); err == nil {
			if n < 0 || (n > 0 && n >= len(u.Type.Construction)) {
				return true, fmt.Errorf("%w: construction frame %d of %s", ErrBadSave, n, u.Type.Ident)
			}
			o.Frame = n
		}
	case "cancel":
		o.cancel = true
	default:
		return false, nil
	}
	return true, err
}
