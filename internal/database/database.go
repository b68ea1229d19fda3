// Package database provides SQLite persistence for sessions, saves and
// event history.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	log  *logrus.Entry
}

// New opens the database at dbPath, creating the file and its directory if
// needed, and applies pending migrations.
func New(dbPath string, log *logrus.Entry) (*DB, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The tick loop and the hub share one writer
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, log: log.WithField("db", filepath.Base(dbPath))}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := db.isMigrationApplied(m.id)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if err := db.runMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.id, m.name, err)
		}
		db.log.WithField("migration", m.name).Info("Applied migration")
	}

	return nil
}

func (db *DB) isMigrationApplied(id int) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM migrations WHERE id = ?", id).Scan(&count)
	return count > 0, err
}

func (db *DB) runMigration(m migration) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(m.sql); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO migrations (id, name) VALUES (?, ?)", m.id, m.name)
		return err
	})
}

// inTx runs fn in a transaction, committing if it returns nil.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
