package database

import "time"

// HistoryEvent represents a single world event in the history log.
type HistoryEvent struct {
	ID        int64
	SessionID string
	Cycle     int
	Player    int
	EventType string
	Unit      string
	Message   string
	CreatedAt time.Time
}

// AddHistoryEvent appends an event to the history of a session.
func (db *DB) AddHistoryEvent(sessionID string, cycle, player int, eventType, unit, message string) error {
	_, err := db.conn.Exec(`
		INSERT INTO history (session_id, cycle, player, event_type, unit, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, cycle, player, eventType, unit, message, time.Now())
	return err
}

// GetHistory retrieves all history events of a session, ordered chronologically.
func (db *DB) GetHistory(sessionID string) ([]*HistoryEvent, error) {
	return db.GetHistorySince(sessionID, 0)
}

// GetHistorySince retrieves history events after a given ID (for incremental updates).
func (db *DB) GetHistorySince(sessionID string, afterID int64) ([]*HistoryEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, cycle, player, event_type, COALESCE(unit, ''), COALESCE(message, ''), created_at
		FROM history
		WHERE session_id = ? AND id > ?
		ORDER BY id ASC
	`, sessionID, afterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*HistoryEvent
	for rows.Next() {
		e := &HistoryEvent{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Cycle, &e.Player, &e.EventType, &e.Unit, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// TruncateHistory deletes the events of a session recorded after cycle, used
// when a session is rolled back to an earlier save.
func (db *DB) TruncateHistory(sessionID string, cycle int) error {
	_, err := db.conn.Exec(`DELETE FROM history WHERE session_id = ? AND cycle > ?`, sessionID, cycle)
	return err
}
