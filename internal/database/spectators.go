package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Spectator is a viewer identified by a bearer token.
type Spectator struct {
	ID         string
	Token      string
	Name       string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// CreateSpectator creates a new spectator with a generated token.
func (db *DB) CreateSpectator(name string) (*Spectator, error) {
	id := uuid.New().String()
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = db.conn.Exec(`
		INSERT INTO spectators (id, token, name, created_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, token, name, now, now)
	if err != nil {
		return nil, err
	}

	return &Spectator{
		ID:         id,
		Token:      token,
		Name:       name,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// GetSpectatorByToken retrieves a spectator by their token.
func (db *DB) GetSpectatorByToken(token string) (*Spectator, error) {
	var s Spectator
	err := db.conn.QueryRow(`
		SELECT id, token, name, created_at, last_seen_at
		FROM spectators WHERE token = ?
	`, token).Scan(&s.ID, &s.Token, &s.Name, &s.CreatedAt, &s.LastSeenAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpectatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TouchSpectator updates the last seen timestamp.
func (db *DB) TouchSpectator(id string) error {
	result, err := db.conn.Exec(`
		UPDATE spectators SET last_seen_at = ? WHERE id = ?
	`, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSpectatorNotFound
	}
	return nil
}

// generateToken creates a secure random token.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
