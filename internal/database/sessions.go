package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the state of a hosted simulation.
type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"
	SessionStopped  SessionStatus = "stopped"
	SessionFinished SessionStatus = "finished"
)

// Session is one simulation hosted by the server.
type Session struct {
	ID        string
	Name      string
	MapID     string
	Status    SessionStatus
	Cycle     int
	SaveCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateSession records a new running session on mapID.
func (db *DB) CreateSession(name, mapID string) (*Session, error) {
	id := uuid.New().String()
	now := time.Now()
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, name, map_id, status, cycle, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, id, name, mapID, SessionRunning, now, now)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		Name:      name,
		MapID:     mapID,
		Status:    SessionRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := db.conn.QueryRow(`
		SELECT s.id, s.name, s.map_id, s.status, s.cycle, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM saves WHERE session_id = s.id) AS save_count
		FROM sessions s WHERE s.id = ?
	`, id).Scan(&s.ID, &s.Name, &s.MapID, &s.Status, &s.Cycle, &s.CreatedAt, &s.UpdatedAt, &s.SaveCount)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions with the given status, newest first. An empty
// status lists all of them.
func (db *DB) ListSessions(status SessionStatus) ([]*Session, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.name, s.map_id, s.status, s.cycle, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM saves WHERE session_id = s.id) AS save_count
		FROM sessions s
		WHERE ? = '' OR s.status = ?
		ORDER BY s.created_at DESC
	`, status, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Name, &s.MapID, &s.Status, &s.Cycle,
			&s.CreatedAt, &s.UpdatedAt, &s.SaveCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// UpdateSessionProgress records the last cycle a session reached.
func (db *DB) UpdateSessionProgress(id string, cycle int) error {
	return db.updateSession(`UPDATE sessions SET cycle = ?, updated_at = ? WHERE id = ?`, cycle, time.Now(), id)
}

// SetSessionStatus changes the status of a session.
func (db *DB) SetSessionStatus(id string, status SessionStatus) error {
	return db.updateSession(`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
}

func (db *DB) updateSession(query string, args ...any) error {
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession permanently deletes a session and all associated data.
func (db *DB) DeleteSession(id string) error {
	return db.inTx(func(tx *sql.Tx) error {
		// Delete in order of dependencies
		if _, err := tx.Exec(`DELETE FROM history WHERE session_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM saves WHERE session_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// StopRunningSessions marks sessions left running by a previous process as
// stopped and returns how many were changed.
func (db *DB) StopRunningSessions() (int, error) {
	result, err := db.conn.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE status = ?
	`, SessionStopped, time.Now(), SessionRunning)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
