package game

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// AIHooks receives the notifications the order layer sends to computer players.
type AIHooks interface {
	WorkComplete(worker, building *Unit)
	TrainingComplete(trainer, unit *Unit)
	NeedMoreSupply(p *Player)
	ReduceMadeInBuilt(p *Player, t *UnitType)
}

// SoundCue names an opaque sound event.
type SoundCue string

const (
	SoundReady           SoundCue = "ready"
	SoundWorkComplete    SoundCue = "work-complete"
	SoundBuildingPlaced  SoundCue = "placement-success"
	SoundConstructionEnd SoundCue = "construction-complete"
)

// SoundPlayer plays cues.
type SoundPlayer interface {
	PlayUnitSound(u *Unit, cue SoundCue)
}

// NotifyKind selects how a notification is presented.
type NotifyKind int

const (
	NotifyGreen NotifyKind = iota
	NotifyYellow
	NotifyRed
)

// Notifier shows messages to a player.
type Notifier interface {
	Notify(p *Player, kind NotifyKind, pos Pos, z int, msg string)
}

// MinimapUpdater is told about tile and territory changes.
type MinimapUpdater interface {
	UpdateXY(pos Pos, z int)
	UpdateSettlementTerritory(s *Settlement)
}

// UIHooks refreshes the local interface after selection-relevant changes.
type UIHooks interface {
	SelectionChanged()
	UpdateButtonPanel()
}

// EventSink receives world events for history and spectators.
type EventSink interface {
	Emit(e Event)
}

type nopHooks struct{}

func (nopHooks) WorkComplete(*Unit, *Unit) {}
func (nopHooks) TrainingComplete(*Unit, *Unit) {}
func (nopHooks) NeedMoreSupply(*Player) {}
func (nopHooks) ReduceMadeInBuilt(*Player, *UnitType) {}
func (nopHooks) PlayUnitSound(*Unit, SoundCue) {}
func (nopHooks) Notify(*Player, NotifyKind, Pos, int, string) {}
func (nopHooks) UpdateXY(Pos, int) {}
func (nopHooks) UpdateSettlementTerritory(*Settlement) {}
func (nopHooks) SelectionChanged() {}
func (nopHooks) UpdateButtonPanel() {}
func (nopHooks) Emit(Event) {}

// LogNotifier writes notifications to the log, at most a few per second for
// each player.
type LogNotifier struct {
	log      *logrus.Entry
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[int]*rate.Limiter
}

// NewLogNotifier creates a notifier allowing perSecond messages per player.
func NewLogNotifier(log *logrus.Entry, perSecond float64, burst int) *LogNotifier {
	return &LogNotifier{
		log:      log,
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[int]*rate.Limiter),
	}
}

func (n *LogNotifier) limiter(player int) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.limiters[player]
	if !ok {
		l = rate.NewLimiter(n.limit, n.burst)
		n.limiters[player] = l
	}
	return l
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(p *Player, kind NotifyKind, pos Pos, z int, msg string) {
	if p == nil || !n.limiter(p.Index).Allow() {
		return
	}
	entry := n.log.WithFields(logrus.Fields{
		"player": p.Index,
		"x":      pos.X,
		"y":      pos.Y,
		"z":      z,
	})
	switch kind {
	case NotifyRed:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}

func (w *World) notify(p *Player, kind NotifyKind, pos Pos, z int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Notifier.Notify(p, kind, pos, z, msg)
	w.emit(Event{Kind: EventNotification, Player: p.Index, Pos: pos, Z: z, Message: msg})
}
