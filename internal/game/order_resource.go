package game

import (
	"fmt"

	"ironhold/internal/savefile"
)

// defaultResourceCapacity applies to harvesters without a declared capacity.
const defaultResourceCapacity = 100

// ResourceOrder gathers from a deposit unit or a resource tile and carries the
// load home.
type ResourceOrder struct {
	orderBase
	// Target is the deposit; NoUnit when harvesting terrain at Goal.
	Target   UnitHandle
	Goal     Pos
	Z        int
	Resource int
	// TimeAtResource counts cycles spent gathering the current load.
	TimeAtResource int
	blocked        int
}

func (o *ResourceOrder) Action() Action { return ActionResource }

func resourceCapacity(t *UnitType) int {
	if t.ResourceCapacity > 0 {
		return t.ResourceCapacity
	}
	return defaultResourceCapacity
}

// Execute walks to the resource, gathers a load and queues its delivery.
func (o *ResourceOrder) Execute(w *World, u *Unit) {
	if u.ResourcesHeld >= resourceCapacity(u.Type) {
		o.deliver(w, u)
		return
	}

	var deposit *Unit
	goal, size := o.Goal, Pos{1, 1}
	if o.Target.Valid() {
		if deposit = w.Units.Get(o.Target); deposit == nil || deposit.ResourcesHeld <= 0 {
			o.finished = true
			return
		}
		goal, size = deposit.Pos, deposit.Type.TileSize
	} else if tileResource(w.Map.Field(o.Goal, o.Z)) == 0 {
		o.finished = true
		return
	}

	arrived, blocked := w.stepToward(u, goal, size, 1)
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

	o.TimeAtResource++
	if o.TimeAtResource < 2*w.Settings.CyclesPerSecond {
		return
	}
	o.TimeAtResource = 0

	want := resourceCapacity(u.Type) - u.ResourcesHeld
	var got int
	if deposit != nil {
		got = min(want, deposit.ResourcesHeld)
		deposit.ResourcesHeld -= got
		if deposit.ResourcesHeld <= 0 {
			w.LetUnitDie(deposit)
		}
	} else {
		tile := w.Map.Field(o.Goal, o.Z)
		got = min(want, tile.Value)
		tile.Value -= got
		if tile.Value <= 0 {
			w.SetOverlayTerrainDestroyed(o.Goal, o.Z, true)
		}
	}
	if u.CurrentResource != o.Resource {
		u.ResourcesHeld = 0
	}
	u.CurrentResource = o.Resource
	u.ResourcesHeld += got
	if u.ResourcesHeld >= resourceCapacity(u.Type) || got < want {
		o.deliver(w, u)
	}
}

// deliver ends this trip and queues a return that resumes harvesting.
func (o *ResourceOrder) deliver(w *World, u *Unit) {
	o.finished = true
	resume := &ResourceOrder{Target: o.Target, Goal: o.Goal, Z: o.Z, Resource: o.Resource}
	ret := &ReturnGoodsOrder{Resume: resume}
	u.Orders = append([]Order{o, ret}, u.Orders[1:]...)
}

// Show marks the resource being gathered.
func (o *ResourceOrder) Show(w *World, u *Unit) []Marker {
	if d := w.Units.Get(o.Target); d != nil {
		return []Marker{{Pos: d.Pos, Z: d.Z, Label: "harvest"}}
	}
	return []Marker{{Pos: o.Goal, Z: o.Z, Label: "harvest"}}
}

// Save implements Order.
func (o *ResourceOrder) Save(w *World, u *Unit) savefile.Table {
	rec := o.header("action-resource")
	if ref, ok := unitRefValue(w, o.Target); ok {
		rec = rec.AddKey("target", ref)
	}
	return rec.AddKey("goal", posValue(o.Goal)).
		AddKey("z", savefile.Int(o.Z)).
		AddKey("resource", savefile.Str(CostName(o.Resource))).
		AddKey("time-at-resource", savefile.Int(o.TimeAtResource))
}

// ParseSpecificData implements Order.
func (o *ResourceOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	var err error
	switch key {
	case "target":
		o.Target, err = readUnitRef(w, c)
	case "goal":
		o.Goal, err = readPos(c)
	case "z":
		o.Z, err = c.Int()
	case "resource":
		var name string
		if name, err = c.String(); err == nil {
			if o.Resource = CostIndex(name); o.Resource <= CostTime {
				return true, fmt.Errorf("%w: resource %q", ErrBadSave, name)
			}
		}
	case "time-at-resource":
		o.TimeAtResource, err = c.Int()
	default:
		return false, nil
	}
	return true, err
}

// ReturnGoodsOrder carries a harvester's load to a depot.
type ReturnGoodsOrder struct {
	orderBase
	Depot UnitHandle
	// Resume is queued after delivery to go back for more.
	Resume  *ResourceOrder
	blocked int
}

func (o *ReturnGoodsOrder) Action() Action { return ActionReturnGoods }

// Execute walks to the depot and unloads.
func (o *ReturnGoodsOrder) Execute(w *World, u *Unit) {
	if u.ResourcesHeld <= 0 {
		o.finishAndResume(u)
		return
	}
	depot := w.Units.Get(o.Depot)
	if depot == nil || depot.UnderConstruction || !depot.Type.CanStore[u.CurrentResource] {
		if depot = w.FindDepot(u, u.CurrentResource); depot == nil {
			w.notify(u.Player, NotifyYellow, u.Pos, u.Z, "No place to deliver %s", CostName(u.CurrentResource))
			o.finished = true
			return
		}
		o.Depot = depot.Handle
	}

	arrived, blocked := w.stepToward(u, depot.Pos, depot.Type.TileSize, 1)
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
	u.Player.Resources[u.CurrentResource] += u.ResourcesHeld
	u.ResourcesHeld = 0
	o.finishAndResume(u)
}

func (o *ReturnGoodsOrder) finishAndResume(u *Unit) {
	o.finished = true
	if o.Resume == nil {
		return
	}
	next := *o.Resume
	next.finished = false
	u.Orders = append([]Order{o, &next}, u.Orders[1:]...)
}

// Show marks the depot.
func (o *ReturnGoodsOrder) Show(w *World, u *Unit) []Marker {
	if d := w.Units.Get(o.Depot); d != nil {
		return []Marker{{Pos: d.Pos, Z: d.Z, Label: "deliver"}}
	}
	return nil
}

// Save implements Order.
func (o *ReturnGoodsOrder) Save(w *World, u *Unit) savefile.Table {
	rec := o.header("action-return-goods")
	if ref, ok := unitRefValue(w, o.Depot); ok {
		rec = rec.AddKey("depot", ref)
	}
	if o.Resume != nil {
		rec = rec.AddKey("resume", savefile.Tab(o.Resume.Save(w, u)))
	}
	return rec
}

// ParseSpecificData implements Order.
func (o *ReturnGoodsOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	switch key {
	case "depot":
		h, err := readUnitRef(w, c)
		o.Depot = h
		return true, err
	case "resume":
		rec, err := c.Table()
		if err != nil {
			return true, err
		}
		next, err := ParseOrder(w, rec, u)
		if err != nil {
			return true, err
		}
		r, ok := next.(*ResourceOrder)
		if !ok {
			return true, ErrBadSave
		}
		o.Resume = r
		return true, nil
	}
	return false, nil
}
