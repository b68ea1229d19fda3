package game

// EventKind classifies world events.
type EventKind string

const (
	EventBuildingStarted   EventKind = "building-started"
	EventBuildingFinished  EventKind = "building-finished"
	EventBuildingCancelled EventKind = "building-cancelled"
	EventUnitTrained       EventKind = "unit-trained"
	EventTrainingCancelled EventKind = "training-cancelled"
	EventUnitDied          EventKind = "unit-died"
	EventSettlementOwner   EventKind = "settlement-owner"
	EventTerrainChanged    EventKind = "terrain-changed"
	EventNotification      EventKind = "notification"
)

// Event is a notable change in the world.
type Event struct {
	Kind    EventKind `json:"kind"`
	Cycle   int       `json:"cycle"`
	Player  int       `json:"player"`
	Unit    string    `json:"unit,omitempty"`
	Type    string    `json:"type,omitempty"`
	Pos     Pos       `json:"pos"`
	Z       int       `json:"z"`
	Message string    `json:"message,omitempty"`
}

func (w *World) emit(e Event) {
	e.Cycle = w.Cycle
	w.Events.Emit(e)
}

func unitEvent(kind EventKind, u *Unit) Event {
	return Event{
		Kind:   kind,
		Player: u.Player.Index,
		Unit:   u.Ref(),
		Type:   u.Type.Ident,
		Pos:    u.Pos,
		Z:      u.Z,
	}
}
