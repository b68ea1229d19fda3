package game

import (
	"fmt"

	"ironhold/internal/savefile"
)

// Action identifies an order kind.
type Action int

const (
	ActionStill Action = iota
	ActionMove
	ActionBuild
	ActionBuilt
	ActionTrain
	ActionRepair
	ActionResource
	ActionReturnGoods
)

// Marker is a viewport hint drawn for the selected unit's orders.
type Marker struct {
	Pos   Pos
	Z     int
	Label string
}

// Order is a per-unit behaviour state machine. The set of implementations is
// closed; World.executeOrder dispatches on the concrete type.
type Order interface {
	Action() Action
	Finished() bool
	// Cancel ends the order at the player's request.
	Cancel(w *World, u *Unit)
	Save(w *World, u *Unit) savefile.Table
	// ParseSpecificData consumes one keyed entry of a saved record. It returns
	// false if the key is not one of the order's own.
	ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error)
	Show(w *World, u *Unit) []Marker
	UpdateUnitVariables(w *World, u *Unit)
	AiUnitKilled(w *World, u *Unit)

	base() *orderBase
}

type orderBase struct {
	finished bool
}

func (b *orderBase) Finished() bool { return b.finished }

func (b *orderBase) base() *orderBase { return b }

func (b *orderBase) Show(*World, *Unit) []Marker { return nil }

func (b *orderBase) UpdateUnitVariables(*World, *Unit) {}

func (b *orderBase) AiUnitKilled(*World, *Unit) {}

func (b *orderBase) Cancel(*World, *Unit) { b.finished = true }

func (b *orderBase) header(name string) savefile.Table {
	rec := savefile.Table{savefile.Str(name)}
	if b.finished {
		rec = rec.Add(savefile.Str("finished"))
	}
	return rec
}

var orderNames = map[string]func() Order{
	"action-still":        func() Order { return &StillOrder{} },
	"action-move":         func() Order { return &MoveOrder{} },
	"action-build":        func() Order { return &BuildOrder{} },
	"action-built":        func() Order { return &BuiltOrder{} },
	"action-train":        func() Order { return &TrainOrder{} },
	"action-repair":       func() Order { return &RepairOrder{} },
	"action-resource":     func() Order { return &ResourceOrder{} },
	"action-return-goods": func() Order { return &ReturnGoodsOrder{} },
}

// ParseOrder rebuilds an order from its saved record.
func ParseOrder(w *World, rec savefile.Table, u *Unit) (Order, error) {
	c := rec.Cursor()
	name, err := c.String()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownOrder, err)
	}
	ctor, ok := orderNames[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, name)
	}
	o := ctor()
	for c.More() {
		key, err := c.String()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if key == "finished" {
			o.base().finished = true
			continue
		}
		handled, err := o.ParseSpecificData(w, key, c, u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if !handled {
			return nil, fmt.Errorf("%w: %s: unknown key %q", ErrBadSave, name, key)
		}
	}
	return o, nil
}

// checkCurrent asserts that o is u's current order.
func (w *World) checkCurrent(u *Unit, o Order) bool {
	if u.CurrentOrder() != o {
		w.invariant("unit %s: %v: %T", u.Ref(), ErrNotCurrentOrder, o)
		return false
	}
	return true
}

func readUnitRef(w *World, c *savefile.Cursor) (UnitHandle, error) {
	ref, err := c.String()
	if err != nil {
		return NoUnit, err
	}
	u, err := w.UnitByRef(ref)
	if err != nil {
		return NoUnit, err
	}
	return u.Handle, nil
}

func readPos(c *savefile.Cursor) (Pos, error) {
	t, err := c.Table()
	if err != nil {
		return Pos{}, err
	}
	tc := t.Cursor()
	x, err := tc.Int()
	if err != nil {
		return Pos{}, err
	}
	y, err := tc.Int()
	if err != nil {
		return Pos{}, err
	}
	return Pos{x, y}, nil
}

func posValue(p Pos) savefile.Value {
	return savefile.Tab(savefile.Table{savefile.Int(p.X), savefile.Int(p.Y)})
}

func unitRefValue(w *World, h UnitHandle) (savefile.Value, bool) {
	u := w.Units.Get(h)
	if u == nil {
		return savefile.Value{}, false
	}
	return savefile.Str(u.Ref()), true
}
