package terrain

import (
	"fmt"

	"ironhold/internal/savefile"
)

// Resolver maps save-file idents to loaded objects.
type Resolver interface {
	TerrainType(ident string) *Type
	Feature(ident string) *Feature
	SiteByIdent(ident string) (SiteID, bool)
	SiteIdent(id SiteID) string
}

// Record encodes the tile as a save-file table. Occupancy flags are not written;
// units restore them when they are placed on load.
func (t *Tile) Record(res Resolver) savefile.Table {
	rec := savefile.Table{
		savefile.Str(typeIdent(t.Terrain)),
		savefile.Str(typeIdent(t.Overlay)),
		savefile.Str(featureIdent(t.Feature)),
		savefile.Bool(t.OverlayDamaged),
		savefile.Bool(t.OverlayDestroyed),
		savefile.Str(typeIdent(t.Seen.Terrain)),
		savefile.Str(typeIdent(t.Seen.Overlay)),
		savefile.Int(t.SolidTile),
		savefile.Int(t.OverlaySolidTile),
		savefile.Int(t.Seen.SolidTile),
		savefile.Int(t.Seen.OverlaySolidTile),
		savefile.Int(t.Value),
		savefile.Int(t.MovementCost),
		savefile.Int(t.Landmass),
	}
	site := ""
	if t.Settlement != 0 {
		site = res.SiteIdent(t.Settlement)
	}
	rec = rec.Add(savefile.Str(site))

	rec = addTransitions(rec, "transition-tile", t.TransitionTiles)
	rec = addTransitions(rec, "overlay-transition-tile", t.OverlayTransitionTiles)
	rec = addTransitions(rec, "seen-transition-tile", t.Seen.TransitionTiles)
	rec = addTransitions(rec, "seen-overlay-transition-tile", t.Seen.OverlayTransitionTiles)

	for p := 0; p < MaxPlayers; p++ {
		if t.IsExplored(p) {
			rec = rec.AddKey("explored", savefile.Int(p))
		}
	}
	for _, tag := range (t.Flags &^ OccupancyFlags).Tags() {
		rec = rec.Add(savefile.Str(tag))
	}
	return rec
}

func addTransitions(rec savefile.Table, key string, tiles []TransitionTile) savefile.Table {
	for _, tt := range tiles {
		rec = rec.Add(savefile.Str(key), savefile.Str(typeIdent(tt.Terrain)), savefile.Int(tt.Tile))
	}
	return rec
}

func typeIdent(t *Type) string {
	if t == nil {
		return ""
	}
	return t.Ident
}

func featureIdent(f *Feature) string {
	if f == nil {
		return ""
	}
	return f.Ident
}

// ParseRecord replaces the tile's state with the contents of rec.
func (t *Tile) ParseRecord(rec savefile.Table, res Resolver) error {
	c := rec.Cursor()
	var n Tile

	var err error
	if n.Terrain, err = readType(c, res); err != nil {
		return err
	}
	if n.Overlay, err = readType(c, res); err != nil {
		return err
	}
	ident, err := c.String()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if ident != "" {
		if n.Feature = res.Feature(ident); n.Feature == nil {
			return fmt.Errorf("%w: %q", ErrUnknownFeature, ident)
		}
	}
	if n.OverlayDamaged, err = c.Bool(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if n.OverlayDestroyed, err = c.Bool(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if n.Seen.Terrain, err = readType(c, res); err != nil {
		return err
	}
	if n.Seen.Overlay, err = readType(c, res); err != nil {
		return err
	}
	ints := []*int{
		&n.SolidTile, &n.OverlaySolidTile, &n.Seen.SolidTile, &n.Seen.OverlaySolidTile,
		&n.Value, &n.MovementCost, &n.Landmass,
	}
	for _, p := range ints {
		if *p, err = c.Int(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
	}
	if ident, err = c.String(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if ident != "" {
		id, ok := res.SiteByIdent(ident)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSite, ident)
		}
		n.Settlement = id
	}

	for c.More() {
		key, err := c.String()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		switch key {
		case "transition-tile":
			err = readTransition(c, res, &n.TransitionTiles)
		case "overlay-transition-tile":
			err = readTransition(c, res, &n.OverlayTransitionTiles)
		case "seen-transition-tile":
			err = readTransition(c, res, &n.Seen.TransitionTiles)
		case "seen-overlay-transition-tile":
			err = readTransition(c, res, &n.Seen.OverlayTransitionTiles)
		case "explored":
			var p int
			if p, err = c.Int(); err == nil {
				if p < 0 || p >= MaxPlayers {
					return fmt.Errorf("%w: explored player %d", ErrBadRecord, p)
				}
				n.Explore(p)
			}
		default:
			var f Flag
			if f, err = ParseFlag(key); err != nil {
				return err
			}
			n.Flags |= f &^ OccupancyFlags
		}
		if err != nil {
			return err
		}
	}

	if n.Overlay != nil && n.Terrain != nil && !n.Overlay.IsCompatibleBase(n.Terrain) {
		return fmt.Errorf("%w: overlay %q on base %q", ErrBadRecord, n.Overlay.Ident, n.Terrain.Ident)
	}
	*t = n
	return nil
}

func readType(c *savefile.Cursor, res Resolver) (*Type, error) {
	ident, err := c.String()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if ident == "" {
		return nil, nil
	}
	typ := res.TerrainType(ident)
	if typ == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerrain, ident)
	}
	return typ, nil
}

func readTransition(c *savefile.Cursor, res Resolver, dst *[]TransitionTile) error {
	typ, err := readType(c, res)
	if err != nil {
		return err
	}
	idx, err := c.Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	*dst = append(*dst, TransitionTile{Terrain: typ, Tile: idx})
	return nil
}
