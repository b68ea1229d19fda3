package catalog

import "errors"

var (
	ErrUnknownTerrain   = errors.New("unknown terrain type")
	ErrUnknownUnitType  = errors.New("unknown unit type")
	ErrUnknownResource  = errors.New("unknown resource")
	ErrDuplicateIdent   = errors.New("duplicate ident")
	ErrInvalidColor     = errors.New("invalid colour")
	ErrInvalidDimension = errors.New("invalid dimension")
)
