package minimap

// Mode selects what the minimap presents.
type Mode int

const (
	// ModeTerrain shows terrain with units on top.
	ModeTerrain Mode = iota
	// ModeUnits hides terrain and shows only units.
	ModeUnits
	// ModeTerritories tints land tiles with their owner's colour.
	ModeTerritories
	// ModeTerritoriesWithNonLand also tints water and space, half transparent.
	ModeTerritoriesWithNonLand
	// ModeSettlements colours tiles by settlement.
	ModeSettlements
	numModes
)

var modeNames = [numModes]string{
	ModeTerrain:                "terrain",
	ModeUnits:                  "units",
	ModeTerritories:            "territories",
	ModeTerritoriesWithNonLand: "territories-with-non-land",
	ModeSettlements:            "settlements",
}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return ModeTerrain, ErrUnknownMode
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	return (m + 1) % numModes
}

// HasOverlay returns true if the mode draws a cached per-mode overlay buffer.
func (m Mode) HasOverlay() bool {
	return m == ModeTerritories || m == ModeTerritoriesWithNonLand || m == ModeSettlements
}

// ShowsTerrain returns false for the units-only presentation.
func (m Mode) ShowsTerrain() bool {
	return m != ModeUnits
}

// ShowsUnits returns true if unit markers are drawn.
func (m Mode) ShowsUnits() bool {
	return m == ModeTerrain || m == ModeUnits
}

// ShowsFog returns true if fog of war is shaded.
func (m Mode) ShowsFog() bool {
	return m == ModeTerrain || m == ModeUnits
}
