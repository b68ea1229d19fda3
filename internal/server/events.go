package server

import (
	"ironhold/internal/game"
	"ironhold/internal/protocol"
)

// eventLog collects world events during a tick and hands them to the history
// table and spectators once the tick is over.
type eventLog struct {
	sim     *Simulation
	pending []game.Event
}

var _ game.EventSink = (*eventLog)(nil)

func newEventLog(s *Simulation) *eventLog {
	return &eventLog{sim: s}
}

// Emit implements game.EventSink.
func (l *eventLog) Emit(e game.Event) {
	l.pending = append(l.pending, e)
}

func (l *eventLog) flush() {
	if len(l.pending) == 0 {
		return
	}
	s := l.sim
	for _, e := range l.pending {
		if s.store != nil && s.session != nil {
			if err := s.store.AddHistoryEvent(s.session.ID, e.Cycle, e.Player, string(e.Kind), e.Unit, e.Message); err != nil {
				s.log.WithError(err).WithField("event", e.Kind).Warn("Recording event failed")
			}
		}
		if s.out == nil {
			continue
		}
		msg, err := protocol.NewMessage(protocol.TypeEvent, protocol.EventPayload{
			Kind:    string(e.Kind),
			Cycle:   e.Cycle,
			Player:  e.Player,
			Unit:    e.Unit,
			Type:    e.Type,
			X:       e.Pos.X,
			Y:       e.Pos.Y,
			Z:       e.Z,
			Message: e.Message,
		})
		if err != nil {
			continue
		}
		s.out.BroadcastMessage(msg)
	}
	l.pending = l.pending[:0]
}
