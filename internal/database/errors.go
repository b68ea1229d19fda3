package database

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSaveNotFound      = errors.New("save not found")
	ErrChecksumMismatch  = errors.New("save checksum mismatch")
	ErrSpectatorNotFound = errors.New("spectator not found")
)
