package terrain

// SiteID identifies a settlement. Zero means the tile belongs to no settlement.
type SiteID int32

// TransitionTile is one layer of a blended edge between two terrain types.
type TransitionTile struct {
	Terrain *Type
	Tile    int
}

// SeenState is the fog-of-war snapshot of a tile's terrain as last observed.
type SeenState struct {
	Terrain                *Type
	Overlay                *Type
	SolidTile              int
	OverlaySolidTile       int
	TransitionTiles        []TransitionTile
	OverlayTransitionTiles []TransitionTile
}

// Tile is one map cell.
type Tile struct {
	Terrain          *Type
	Overlay          *Type
	OverlayDestroyed bool
	OverlayDamaged   bool
	SolidTile        int
	OverlaySolidTile int
	Feature          *Feature
	Flags            Flag
	Value            int
	MovementCost     int
	Landmass         int
	Settlement       SiteID
	OwnershipBorder  uint8 // neighbour directions belonging to another settlement

	TransitionTiles        []TransitionTile
	OverlayTransitionTiles []TransitionTile

	Seen     SeenState
	Visible  [MaxPlayers]uint16
	Explored uint32 // bit per player
}

// SetOptions control how SetTerrain seeds render state.
type SetOptions struct {
	Editor bool            // editor placement picks the first solid tile
	Rand   func(n int) int // deterministic source for solid tile selection
}

func (o SetOptions) pick(tiles []int) int {
	if len(tiles) == 0 {
		return 0
	}
	if o.Editor || o.Rand == nil {
		return tiles[0]
	}
	return tiles[o.Rand(len(tiles))]
}

// NewTile returns a tile of the given base terrain.
func NewTile(base *Type) *Tile {
	t := &Tile{MovementCost: DefaultTileMovementCost}
	if base != nil {
		t.SetTerrain(base, SetOptions{Editor: true})
	}
	return t
}

// TopTerrain returns the overlay if present and not destroyed, else the base.
func (t *Tile) TopTerrain() *Type {
	if t.Overlay != nil && !t.OverlayDestroyed {
		return t.Overlay
	}
	return t.Terrain
}

// Category returns the tile's medium from its live flags.
func (t *Tile) Category() Category {
	return CategoryOf(t.Flags)
}

// SetTerrain installs typ as the base terrain or, for overlay types, as the
// overlay. Incompatible pairs are resolved so that the overlay's base list always
// contains the base. The only error is an overlay declaring no base terrain.
func (t *Tile) SetTerrain(typ *Type, opts SetOptions) error {
	if typ == nil {
		return nil
	}

	if typ.Overlay {
		t.removeOverlayFlags()
		if t.Terrain == nil || !typ.IsCompatibleBase(t.Terrain) {
			base := typ.PrimaryBase()
			if base == nil {
				t.applyFlags()
				return ErrNoBaseTerrain
			}
			t.setBase(base, opts)
		}
		t.Overlay = typ
		t.OverlayDestroyed = false
		t.OverlayDamaged = false
		t.OverlaySolidTile = opts.pick(typ.SolidTiles)
		t.OverlayTransitionTiles = nil
		t.Value = typ.DefaultValue()
	} else {
		t.setBase(typ, opts)
		if t.Overlay != nil && !t.Overlay.IsCompatibleBase(typ) {
			t.clearOverlay()
		}
	}

	t.applyFlags()
	t.clearIncompatibleFeature(typ)
	t.RecomputeDerivedFlags()
	return nil
}

// RemoveOverlayTerrain strips the overlay and everything it contributed.
func (t *Tile) RemoveOverlayTerrain() {
	if t.Overlay == nil {
		return
	}
	t.clearOverlay()
	t.applyFlags()
	t.RecomputeDerivedFlags()
}

// SetOverlayTerrainDestroyed toggles the destroyed state of the overlay. A
// destroyed forest leaves stumps, a destroyed rock or wall leaves gravel.
func (t *Tile) SetOverlayTerrainDestroyed(destroyed bool) {
	if t.Overlay == nil || t.OverlayDestroyed == destroyed {
		return
	}
	t.removeOverlayFlags()
	t.OverlayDestroyed = destroyed
	if destroyed {
		t.OverlayDamaged = false
		t.Value = 0
		if len(t.Overlay.DestroyedTiles) > 0 {
			t.OverlaySolidTile = t.Overlay.DestroyedTiles[0]
		}
	} else if len(t.Overlay.SolidTiles) > 0 {
		t.OverlaySolidTile = t.Overlay.SolidTiles[0]
	}
	t.applyFlags()
	t.RecomputeDerivedFlags()
}

// SetOverlayTerrainDamaged toggles the damaged state of the overlay.
func (t *Tile) SetOverlayTerrainDamaged(damaged bool) {
	if t.Overlay == nil || t.OverlayDestroyed || t.OverlayDamaged == damaged {
		return
	}
	t.OverlayDamaged = damaged
	if damaged && len(t.Overlay.DamagedTiles) > 0 {
		t.OverlaySolidTile = t.Overlay.DamagedTiles[0]
	} else if !damaged && len(t.Overlay.SolidTiles) > 0 {
		t.OverlaySolidTile = t.Overlay.SolidTiles[0]
	}
}

// RecomputeDerivedFlags re-derives no-rail, air-unpassable and movement cost
// from the terrain stack. Unit-imposed air blocking is restored by the map.
func (t *Tile) RecomputeDerivedFlags() {
	if t.Flags.Has(FlagRailroad) {
		t.Flags &^= FlagNoRail
	} else {
		t.Flags |= FlagNoRail
	}

	air := false
	if t.Terrain != nil && t.Terrain.Flags.Has(FlagAirUnpassable) {
		air = true
	}
	if o := t.Overlay; o != nil && !t.OverlayDestroyed {
		if o.Flags.Has(FlagAirUnpassable) {
			air = true
		}
		if o.Flags.Has(FlagWall) && t.Flags.Has(FlagUnderground) {
			air = true
		}
	}
	if air {
		t.Flags |= FlagAirUnpassable
	} else {
		t.Flags &^= FlagAirUnpassable
	}

	t.UpdateMovementCost()
}

// UpdateMovementCost sets the cost from the top terrain's bonus.
func (t *Tile) UpdateMovementCost() {
	t.MovementCost = DefaultTileMovementCost
	if top := t.TopTerrain(); top != nil {
		t.MovementCost -= top.MovementBonus
	}
}

func (t *Tile) setBase(base *Type, opts SetOptions) {
	if t.Terrain != nil {
		t.Flags &^= t.Terrain.Flags
	}
	t.Terrain = base
	t.SolidTile = opts.pick(base.SolidTiles)
	t.TransitionTiles = nil
}

func (t *Tile) clearOverlay() {
	t.removeOverlayFlags()
	t.Overlay = nil
	t.OverlayDestroyed = false
	t.OverlayDamaged = false
	t.OverlaySolidTile = 0
	t.OverlayTransitionTiles = nil
	t.Value = 0
}

// removeOverlayFlags strips what the current overlay contributed.
func (t *Tile) removeOverlayFlags() {
	o := t.Overlay
	if o == nil {
		return
	}
	if t.OverlayDestroyed {
		switch {
		case o.Flags.Has(FlagTree):
			t.Flags &^= FlagStumps
		case o.Flags.Has(FlagRock | FlagWall):
			t.Flags &^= FlagGravel
		}
		return
	}
	t.Flags &^= o.Flags
}

// applyFlags ORs in the flags of the current base and overlay. Water and space
// overlays replace the ground, so the base contributes nothing under them.
func (t *Tile) applyFlags() {
	if t.Terrain != nil {
		t.Flags |= t.Terrain.Flags
	}
	o := t.Overlay
	if o == nil {
		return
	}
	if t.OverlayDestroyed {
		switch {
		case o.Flags.Has(FlagTree):
			t.Flags |= FlagStumps
		case o.Flags.Has(FlagRock | FlagWall):
			t.Flags |= FlagGravel
		}
		return
	}
	if o.Flags.Has(FlagWater|FlagSpace) && t.Terrain != nil {
		t.Flags &^= t.Terrain.Flags
	}
	t.Flags |= o.Flags
}

func (t *Tile) clearIncompatibleFeature(changed *Type) {
	f := t.Feature
	if f == nil || f.Terrain == nil || f.Terrain == changed {
		return
	}
	if f.Terrain.Overlay != changed.Overlay {
		return
	}
	if f.TradeRoute && changed.Pathway {
		return
	}
	t.Feature = nil
}

// UpdateSeen copies the live terrain state into the fog-of-war snapshot.
func (t *Tile) UpdateSeen() {
	t.Seen.Terrain = t.Terrain
	t.Seen.SolidTile = t.SolidTile
	t.Seen.TransitionTiles = append(t.Seen.TransitionTiles[:0], t.TransitionTiles...)
	if t.Overlay != nil && !t.OverlayDestroyed {
		t.Seen.Overlay = t.Overlay
		t.Seen.OverlaySolidTile = t.OverlaySolidTile
		t.Seen.OverlayTransitionTiles = append(t.Seen.OverlayTransitionTiles[:0], t.OverlayTransitionTiles...)
	} else {
		t.Seen.Overlay = nil
		t.Seen.OverlaySolidTile = 0
		t.Seen.OverlayTransitionTiles = nil
	}
}

// SeenTerrain returns the last seen base terrain, or the live one if the tile
// has never been seen.
func (t *Tile) SeenTerrain() *Type {
	if t.Seen.Terrain == nil {
		return t.Terrain
	}
	return t.Seen.Terrain
}

// SeenOverlay returns the last seen overlay, or the live top overlay if the tile
// has never been seen.
func (t *Tile) SeenOverlay() *Type {
	if t.Seen.Terrain == nil {
		if t.OverlayDestroyed {
			return nil
		}
		return t.Overlay
	}
	return t.Seen.Overlay
}

// SeenSolidTiles returns the solid tile indices matching SeenTerrain and SeenOverlay.
func (t *Tile) SeenSolidTiles() (base, overlay int) {
	if t.Seen.Terrain == nil {
		return t.SolidTile, t.OverlaySolidTile
	}
	return t.Seen.SolidTile, t.Seen.OverlaySolidTile
}

// IsSeenWater returns true if the seen terrain stack is water.
func (t *Tile) IsSeenWater() bool {
	return CategoryOf(t.seenFlags()) == CategoryWater
}

// IsSeenSpace returns true if the seen terrain stack is space.
func (t *Tile) IsSeenSpace() bool {
	return CategoryOf(t.seenFlags()) == CategorySpace
}

// IsSeenLand returns true if the seen terrain stack is neither water nor space.
func (t *Tile) IsSeenLand() bool {
	return CategoryOf(t.seenFlags()) == CategoryLand
}

func (t *Tile) seenFlags() Flag {
	var f Flag
	if base := t.SeenTerrain(); base != nil {
		f = base.Flags
	}
	if o := t.SeenOverlay(); o != nil {
		if o.Flags.Has(FlagWater | FlagSpace) {
			f = 0
		}
		f |= o.Flags
	}
	return f
}

// IsExplored returns true if player has ever seen the tile.
func (t *Tile) IsExplored(player int) bool {
	return t.Explored&(1<<uint(player)) != 0
}

// Explore marks the tile explored by player and reports whether it was new.
func (t *Tile) Explore(player int) bool {
	bit := uint32(1) << uint(player)
	if t.Explored&bit != 0 {
		return false
	}
	t.Explored |= bit
	return true
}

// IsVisible returns true if any unit of player currently sees the tile.
func (t *Tile) IsVisible(player int) bool {
	return t.Visible[player] > 0
}

// VisibilityFor returns the combined visibility for the players in mask:
// 0 unexplored, 1 explored but not in sight, 2 in sight.
func (t *Tile) VisibilityFor(mask uint32) int {
	explored := false
	for p := 0; p < MaxPlayers; p++ {
		if mask&(1<<uint(p)) == 0 {
			continue
		}
		if t.Visible[p] > 0 {
			return 2
		}
		if t.IsExplored(p) {
			explored = true
		}
	}
	if explored {
		return 1
	}
	return 0
}
