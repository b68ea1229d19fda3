package terrain

import "errors"

// Terrain errors
var (
	ErrUnknownFlag    = errors.New("unknown tile flag")
	ErrUnknownTerrain = errors.New("unknown terrain type")
	ErrUnknownFeature = errors.New("unknown terrain feature")
	ErrUnknownSite    = errors.New("unknown settlement")
	ErrNoBaseTerrain  = errors.New("overlay terrain has no compatible base terrain")
	ErrBadRecord      = errors.New("malformed tile record")
)
