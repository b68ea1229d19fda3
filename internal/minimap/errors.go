package minimap

import "errors"

var (
	ErrTextureSize = errors.New("minimap texture size must be a power of two")
	ErrUnknownMode = errors.New("unknown minimap mode")
)
