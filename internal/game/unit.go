package game

import "fmt"

// UnitHandle is a generation-checked reference into the unit arena. A handle to
// a released unit resolves to nil.
type UnitHandle struct {
	Index int32
	Gen   uint32
}

// NoUnit is the zero handle, which never resolves.
var NoUnit = UnitHandle{}

// Valid returns true if the handle was ever issued.
func (h UnitHandle) Valid() bool {
	return h.Gen != 0
}

// AnimState is the part of the animation state the simulation cares about.
type AnimState struct {
	// Unbreakable is set while an animation segment must not be interrupted.
	Unbreakable bool
	Wait        int
}

// Unit is a live unit or building.
type Unit struct {
	Handle UnitHandle
	// Serial is the creation number, used for ordering and save references.
	Serial int

	Type   *UnitType
	Player *Player

	Pos       Pos
	Z         int
	Direction int
	Frame     int
	Variation int

	Variables [NumVariables]Variable

	UnderConstruction bool
	Removed           bool
	Container         UnitHandle
	Selected          bool

	Wait   int
	Anim   AnimState
	Orders []Order

	TTL int

	RallyPoint    Pos
	RallyPointZ   int
	HasRallyPoint bool

	CurrentResource int
	ResourcesHeld   int

	// Attacked is the cycle the unit was last hit, 0 if never.
	Attacked int

	Settlement *Settlement

	// supplied is set once the unit's supply has been credited to its owner.
	supplied bool
	sight    sightMark
}

// Ref returns the save-file reference of the unit.
func (u *Unit) Ref() string {
	return fmt.Sprintf("U%04X", u.Serial)
}

// CurrentOrder returns the order being executed, or nil.
func (u *Unit) CurrentOrder() Order {
	if len(u.Orders) == 0 {
		return nil
	}
	return u.Orders[0]
}

// Stats returns the type statistics for the unit's owner.
func (u *Unit) Stats() *UnitStats {
	return u.Type.StatsFor(u.Player.Index)
}

// Center returns the tile at the middle of the unit's footprint.
func (u *Unit) Center() Pos {
	return Pos{u.Pos.X + (u.Type.TileSize.X-1)/2, u.Pos.Y + (u.Type.TileSize.Y-1)/2}
}

// DistanceTo returns the Chebyshev distance from p to the unit's footprint.
func (u *Unit) DistanceTo(p Pos) int {
	return distanceToRect(p, u.Pos, u.Type.TileSize)
}

// IsAlive returns true if the unit is on the map or inside a container.
func (u *Unit) IsAlive() bool {
	return u.Variables[VarHP].Value > 0 || u.UnderConstruction
}

// ClearOrders replaces the order queue with a single still order.
func (u *Unit) ClearOrders() {
	u.Orders = []Order{&StillOrder{}}
	u.Wait = 0
}

type unitSlot struct {
	unit *Unit
	gen  uint32
}

// UnitManager is the unit arena. Iteration follows creation order, which keeps
// per-cycle order execution deterministic.
type UnitManager struct {
	slots    []unitSlot
	free     []int32
	live     []*Unit
	capacity int
	serials  int
}

// NewUnitManager creates an arena holding at most capacity units.
func NewUnitManager(capacity int) *UnitManager {
	return &UnitManager{capacity: capacity}
}

// Allocate returns a fresh unit. It fails with ErrUnitLimit when the arena is full.
func (m *UnitManager) Allocate() (*Unit, error) {
	if len(m.live) >= m.capacity {
		return nil, ErrUnitLimit
	}
	var idx int32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = int32(len(m.slots))
		m.slots = append(m.slots, unitSlot{})
	}
	slot := &m.slots[idx]
	slot.gen++
	m.serials++
	u := &Unit{Handle: UnitHandle{Index: idx, Gen: slot.gen}, Serial: m.serials}
	slot.unit = u
	m.live = append(m.live, u)
	return u, nil
}

// restoreSerial lets a loaded unit keep its saved serial.
func (m *UnitManager) restoreSerial(u *Unit, serial int) {
	u.Serial = serial
	if serial > m.serials {
		m.serials = serial
	}
}

// Get resolves a handle, returning nil for stale or empty handles.
func (m *UnitManager) Get(h UnitHandle) *Unit {
	if !h.Valid() || int(h.Index) >= len(m.slots) {
		return nil
	}
	slot := m.slots[h.Index]
	if slot.gen != h.Gen {
		return nil
	}
	return slot.unit
}

// Release frees the unit's slot. Outstanding handles become stale.
func (m *UnitManager) Release(u *Unit) {
	if m.Get(u.Handle) != u {
		return
	}
	slot := &m.slots[u.Handle.Index]
	slot.unit = nil
	slot.gen++
	m.free = append(m.free, u.Handle.Index)
	for i, l := range m.live {
		if l == u {
			m.live = append(m.live[:i], m.live[i+1:]...)
			break
		}
	}
}

// Units returns a snapshot of the live units in creation order.
func (m *UnitManager) Units() []*Unit {
	out := make([]*Unit, len(m.live))
	copy(out, m.live)
	return out
}

// Len returns the number of live units.
func (m *UnitManager) Len() int {
	return len(m.live)
}

// BySerial finds a live unit by creation number.
func (m *UnitManager) BySerial(serial int) *Unit {
	for _, u := range m.live {
		if u.Serial == serial {
			return u
		}
	}
	return nil
}
