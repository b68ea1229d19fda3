// Package game contains the deterministic simulation: units, orders, players,
// the tile map and the settlement territory index.
//
// All state lives in a World and is mutated from a single goroutine, one cycle
// at a time. Every client running the same commands reaches the same state.
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ironhold/internal/terrain"
)

// World is the simulation context threaded through every operation.
type World struct {
	ID       string
	Settings Settings
	Cycle    int
	Rand     SyncRand

	Map         *Map
	Players     [PlayerMax]*Player
	Units       *UnitManager
	UnitTypes   []*UnitType
	Factions    []*Faction
	Settlements []*Settlement

	// ThisPlayer is the player at the local screen, nil on a headless host.
	ThisPlayer    *Player
	EditorRunning bool
	Season        string
	// Debug turns invariant violations into panics.
	Debug bool

	Log      *logrus.Entry
	AI       AIHooks
	Sound    SoundPlayer
	Notifier Notifier
	Minimap  MinimapUpdater
	UI       UIHooks
	Events   EventSink

	selected []UnitHandle
}

// NewWorld creates an empty world with every player slot filled.
func NewWorld(settings Settings, log *logrus.Entry) *World {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	w := &World{
		ID:       uuid.New().String(),
		Settings: settings,
		Map:      NewMap(),
		Units:    NewUnitManager(settings.MaxUnits),
		Log:      log,
		AI:       nopHooks{},
		Sound:    nopHooks{},
		Notifier: nopHooks{},
		Minimap:  nopHooks{},
		UI:       nopHooks{},
		Events:   nopHooks{},
	}
	for i := range w.Players {
		typ := PlayerNobody
		if i == PlayerNumNeutral {
			typ = PlayerNeutral
		}
		w.Players[i] = NewPlayer(i, fmt.Sprintf("Player %d", i+1), typ, settings)
	}
	w.Players[PlayerNumNeutral].Name = "Neutral"
	return w
}

// NeutralPlayer returns the neutral player.
func (w *World) NeutralPlayer() *Player {
	return w.Players[PlayerNumNeutral]
}

// UnitType finds a unit type by ident.
func (w *World) UnitType(ident string) *UnitType {
	for _, t := range w.UnitTypes {
		if t.Ident == ident {
			return t
		}
	}
	return nil
}

// Faction finds a faction by ident.
func (w *World) Faction(ident string) *Faction {
	for _, f := range w.Factions {
		if f.Ident == ident {
			return f
		}
	}
	return nil
}

func (w *World) terrainOptions() terrain.SetOptions {
	return terrain.SetOptions{Editor: w.EditorRunning, Rand: w.Rand.Intn}
}

// invariant reports a programming error. It panics in debug builds.
func (w *World) invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.Debug {
		panic(msg)
	}
	w.Log.Error(msg)
}

// Tick advances the simulation by one cycle.
func (w *World) Tick() {
	w.Cycle++
	for _, u := range w.Units.Units() {
		if w.Units.Get(u.Handle) != u {
			continue // died earlier this cycle
		}
		if u.TTL != 0 && u.TTL <= w.Cycle {
			w.LetUnitDie(u)
			continue
		}
		if u.Removed {
			continue
		}
		w.handleUnitAction(u)
	}
}

func (w *World) handleUnitAction(u *Unit) {
	if u.Anim.Wait > 0 {
		u.Anim.Wait--
		if u.Anim.Wait == 0 {
			u.Anim.Unbreakable = false
		}
	}
	if len(u.Orders) == 0 {
		u.ClearOrders()
	}

	order := u.CurrentOrder()
	w.executeOrder(u, order)
	if w.Units.Get(u.Handle) != u {
		return
	}

	if len(u.Orders) > 0 && u.Orders[0] == order && order.Finished() {
		u.Orders = u.Orders[1:]
		if len(u.Orders) == 0 {
			u.ClearOrders()
		}
	}
	if o := u.CurrentOrder(); o != nil {
		o.UpdateUnitVariables(w, u)
	}
}

// executeOrder dispatches on the concrete order kind.
func (w *World) executeOrder(u *Unit, order Order) {
	switch o := order.(type) {
	case *StillOrder:
		o.Execute(w, u)
	case *MoveOrder:
		o.Execute(w, u)
	case *BuildOrder:
		o.Execute(w, u)
	case *BuiltOrder:
		o.Execute(w, u)
	case *TrainOrder:
		o.Execute(w, u)
	case *RepairOrder:
		o.Execute(w, u)
	case *ResourceOrder:
		o.Execute(w, u)
	case *ReturnGoodsOrder:
		o.Execute(w, u)
	default:
		w.invariant("unit %s: unhandled order %T", u.Ref(), order)
	}
}

// Select adds u to the current selection.
func (w *World) Select(u *Unit) {
	if u.Selected {
		return
	}
	u.Selected = true
	w.selected = append(w.selected, u.Handle)
	w.UI.SelectionChanged()
}

// Unselect removes u from the current selection.
func (w *World) Unselect(u *Unit) {
	if !u.Selected {
		return
	}
	u.Selected = false
	for i, h := range w.selected {
		if h == u.Handle {
			w.selected = append(w.selected[:i], w.selected[i+1:]...)
			break
		}
	}
	w.UI.SelectionChanged()
}

// IsOnlySelected returns true if u is the single selected unit.
func (w *World) IsOnlySelected(u *Unit) bool {
	return len(w.selected) == 1 && w.selected[0] == u.Handle
}
