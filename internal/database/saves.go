package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ironhold/pkg/codec"
)

// SaveInfo describes a stored save without its body.
type SaveInfo struct {
	ID        string
	SessionID string
	Name      string
	Cycle     int
	SyncHash  string
	Checksum  string
	Size      int
	CreatedAt time.Time
}

// Save is a stored save with its decompressed body.
type Save struct {
	SaveInfo
	Body []byte
}

// SaveGame stores body, the save record text of the session at cycle. The body
// is compressed and its checksum recorded so corruption is caught on load.
func (db *DB) SaveGame(sessionID, name string, cycle int, syncHash string, body []byte) (*SaveInfo, error) {
	packed, err := codec.Compress(body)
	if err != nil {
		return nil, fmt.Errorf("compressing save: %w", err)
	}

	info := SaveInfo{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Name:      name,
		Cycle:     cycle,
		SyncHash:  syncHash,
		Checksum:  codec.Checksum(body),
		Size:      len(body),
		CreatedAt: time.Now(),
	}

	err = db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO saves (id, session_id, name, cycle, sync_hash, checksum, size, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, info.ID, info.SessionID, info.Name, info.Cycle, info.SyncHash, info.Checksum,
			info.Size, packed, info.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE sessions SET cycle = ?, updated_at = ? WHERE id = ?`,
			cycle, info.CreatedAt, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	db.log.WithFields(logrus.Fields{
		"save":       info.ID,
		"cycle":      cycle,
		"size":       info.Size,
		"compressed": len(packed),
	}).Debug("Stored save")
	return &info, nil
}

// LoadSave retrieves a save by ID and verifies its checksum.
func (db *DB) LoadSave(id string) (*Save, error) {
	var s Save
	var packed []byte
	err := db.conn.QueryRow(`
		SELECT id, session_id, name, cycle, sync_hash, checksum, size, body, created_at
		FROM saves WHERE id = ?
	`, id).Scan(&s.ID, &s.SessionID, &s.Name, &s.Cycle, &s.SyncHash, &s.Checksum,
		&s.Size, &packed, &s.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, err
	}

	body, err := codec.Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", id, err)
	}
	if sum := codec.Checksum(body); sum != s.Checksum {
		return nil, fmt.Errorf("%w: save %s has %s, stored %s", ErrChecksumMismatch, id, sum, s.Checksum)
	}
	s.Body = body
	return &s, nil
}

// LatestSave returns the save of sessionID with the highest cycle.
func (db *DB) LatestSave(sessionID string) (*Save, error) {
	var id string
	err := db.conn.QueryRow(`
		SELECT id FROM saves WHERE session_id = ?
		ORDER BY cycle DESC, created_at DESC LIMIT 1
	`, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.LoadSave(id)
}

// ListSaves returns the saves of a session, oldest first.
func (db *DB) ListSaves(sessionID string) ([]*SaveInfo, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, name, cycle, sync_hash, checksum, size, created_at
		FROM saves
		WHERE session_id = ?
		ORDER BY cycle ASC, created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saves []*SaveInfo
	for rows.Next() {
		var s SaveInfo
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Name, &s.Cycle, &s.SyncHash,
			&s.Checksum, &s.Size, &s.CreatedAt); err != nil {
			return nil, err
		}
		saves = append(saves, &s)
	}
	return saves, rows.Err()
}

// DeleteSave removes a save.
func (db *DB) DeleteSave(id string) error {
	result, err := db.conn.Exec(`DELETE FROM saves WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSaveNotFound
	}
	return nil
}

// PruneSaves keeps the newest keep saves of a session and deletes the rest.
// It returns the number of saves removed.
func (db *DB) PruneSaves(sessionID string, keep int) (int, error) {
	result, err := db.conn.Exec(`
		DELETE FROM saves
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM saves WHERE session_id = ?
			ORDER BY cycle DESC, created_at DESC LIMIT ?
		)
	`, sessionID, sessionID, keep)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
