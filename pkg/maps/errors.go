package maps

import "errors"

var (
	ErrInvalidMap    = errors.New("invalid map")
	ErrUnknownSymbol = errors.New("unknown legend symbol")
	ErrMapNotFound   = errors.New("map not found")
)
