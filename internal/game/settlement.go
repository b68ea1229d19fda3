package game

import (
	"image/color"

	"ironhold/internal/terrain"
)

// Settlement is a site on the map that owns a territory of tiles. Its owner is
// whoever controls the site unit.
type Settlement struct {
	ID    terrain.SiteID
	Ident string
	Name  string
	// Major settlements can host a town hall.
	Major    bool
	Owner    *Player
	SiteUnit UnitHandle
	Center   Pos
	Z        int
	Color    color.RGBA

	// TerritoryRect bounds every tile tagged with this settlement.
	TerritoryRect Rect
	hasTerritory  bool
	// BorderTiles are territory tiles adjacent to another settlement's territory.
	BorderTiles []Pos
}

// AddSettlement registers a settlement and returns it.
func (w *World) AddSettlement(ident, name string, center Pos, z int, major bool, c color.RGBA) *Settlement {
	s := &Settlement{
		ID:     terrain.SiteID(len(w.Settlements) + 1),
		Ident:  ident,
		Name:   name,
		Major:  major,
		Center: center,
		Z:      z,
		Color:  c,
	}
	w.Settlements = append(w.Settlements, s)
	return s
}

// Settlement returns the settlement with id, or nil.
func (w *World) Settlement(id terrain.SiteID) *Settlement {
	if id <= 0 || int(id) > len(w.Settlements) {
		return nil
	}
	return w.Settlements[id-1]
}

// SettlementByIdent finds a settlement by ident.
func (w *World) SettlementByIdent(ident string) *Settlement {
	for _, s := range w.Settlements {
		if s.Ident == ident {
			return s
		}
	}
	return nil
}

// SiteTile returns the tile the settlement's category is judged by: the center
// of its site unit, or its declared center when it has none.
func (s *Settlement) SiteTile(w *World) *terrain.Tile {
	if u := w.Units.Get(s.SiteUnit); u != nil {
		return w.Map.Field(u.Center(), u.Z)
	}
	return w.Map.Field(s.Center, s.Z)
}

// SetSiteUnit makes u the settlement's site unit. A finished site unit passes
// its owner to the settlement.
func (s *Settlement) SetSiteUnit(w *World, u *Unit) {
	if u == nil {
		s.SiteUnit = NoUnit
		return
	}
	s.SiteUnit = u.Handle
	u.Settlement = s
	if !u.UnderConstruction {
		s.SetOwner(w, siteOwner(u.Player))
	}
}

func siteOwner(p *Player) *Player {
	if p == nil || p.IsNeutral() {
		return nil
	}
	return p
}

// SetOwner changes the controlling player. Once the game clock runs, a change of
// owner on a major settlement recomputes border transitions and repaints the
// minimap territory. During scenario setup only the owner is stored.
func (s *Settlement) SetOwner(w *World, p *Player) {
	if s.Owner == p {
		return
	}
	s.Owner = p
	if !s.Major || w.Cycle <= 0 {
		return
	}

	w.Log.Debugf("%d: settlement %s now owned by %s", w.Cycle, s.Ident, playerName(p))
	w.recomputeBorderTransitions(s)
	w.Minimap.UpdateSettlementTerritory(s)
	idx := -1
	if p != nil {
		idx = p.Index
	}
	w.emit(Event{Kind: EventSettlementOwner, Player: idx, Pos: s.Center, Z: s.Z, Message: s.Name})
}

func playerName(p *Player) string {
	if p == nil {
		return "nobody"
	}
	return p.Name
}

// recomputeBorderTransitions refreshes ownership transitions on the border tiles
// and on neighbouring tiles of other settlements.
func (w *World) recomputeBorderTransitions(s *Settlement) {
	for _, pos := range s.BorderTiles {
		w.CalculateTileOwnershipTransition(pos, s.Z)
		for _, d := range Neighbours {
			n := pos.Add(d)
			tile := w.Map.Field(n, s.Z)
			if tile == nil || tile.Settlement == s.ID {
				continue
			}
			w.CalculateTileOwnershipTransition(n, s.Z)
		}
	}
}

// TileOwner returns the player controlling the settlement a tile belongs to.
func (w *World) TileOwner(pos Pos, z int) *Player {
	tile := w.Map.Field(pos, z)
	if tile == nil {
		return nil
	}
	if s := w.Settlement(tile.Settlement); s != nil {
		return s.Owner
	}
	return nil
}

// CalculateTileOwnershipTransition sets the tile's border mask: bit d is set
// when the neighbour in direction d has a different owner.
func (w *World) CalculateTileOwnershipTransition(pos Pos, z int) {
	tile := w.Map.Field(pos, z)
	if tile == nil {
		return
	}
	owner := w.TileOwner(pos, z)
	var mask uint8
	if owner != nil {
		for d, off := range Neighbours {
			n := pos.Add(off)
			if !w.Map.Inside(n, z) {
				continue
			}
			if w.TileOwner(n, z) != owner {
				mask |= 1 << uint(d)
			}
		}
	}
	tile.OwnershipBorder = mask
}

// SetTileSettlement tags a tile with a settlement and keeps rectangles and
// border lists current.
func (w *World) SetTileSettlement(pos Pos, z int, id terrain.SiteID) {
	tile := w.Map.Field(pos, z)
	if tile == nil || tile.Settlement == id {
		return
	}
	old := w.Settlement(tile.Settlement)
	tile.Settlement = id
	if s := w.Settlement(id); s != nil {
		s.extend(pos)
	}

	touched := map[*Settlement]bool{}
	if old != nil {
		touched[old] = true
	}
	if s := w.Settlement(id); s != nil {
		touched[s] = true
	}
	for _, d := range Neighbours {
		if t := w.Map.Field(pos.Add(d), z); t != nil {
			if s := w.Settlement(t.Settlement); s != nil {
				touched[s] = true
			}
		}
	}
	for _, s := range w.Settlements {
		if touched[s] {
			w.updateBorderTiles(s)
		}
	}
	w.CalculateTileOwnershipTransition(pos, z)
	for _, d := range Neighbours {
		w.CalculateTileOwnershipTransition(pos.Add(d), z)
	}
	w.Minimap.UpdateXY(pos, z)
}

func (s *Settlement) extend(pos Pos) {
	if !s.hasTerritory {
		s.TerritoryRect = Rect{Min: pos, Max: pos}
		s.hasTerritory = true
		return
	}
	s.TerritoryRect = s.TerritoryRect.Extend(pos)
}

// HasTerritory returns true once any tile has been assigned to the settlement.
func (s *Settlement) HasTerritory() bool {
	return s.hasTerritory
}

func (w *World) updateBorderTiles(s *Settlement) {
	s.BorderTiles = s.BorderTiles[:0]
	if !s.hasTerritory {
		return
	}
	r := s.TerritoryRect
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			pos := Pos{x, y}
			tile := w.Map.Field(pos, s.Z)
			if tile == nil || tile.Settlement != s.ID {
				continue
			}
			for _, d := range Neighbours {
				n := w.Map.Field(pos.Add(d), s.Z)
				if n != nil && n.Settlement != 0 && n.Settlement != s.ID {
					s.BorderTiles = append(s.BorderTiles, pos)
					break
				}
			}
		}
	}
}

// AssignTerritories gives every tile of layer z to its nearest settlement by a
// breadth-first fill from all settlement centers at once. Ties go to the
// settlement registered first.
func (w *World) AssignTerritories(z int) {
	if z < 0 || z >= len(w.Map.Layers) {
		return
	}
	l := w.Map.Layers[z]
	for i := range l.Fields {
		l.Fields[i].Settlement = 0
	}

	var queue []Pos
	for _, s := range w.Settlements {
		if s.Z != z {
			continue
		}
		s.hasTerritory = false
		s.BorderTiles = nil
		tile := w.Map.Field(s.Center, z)
		if tile == nil || tile.Settlement != 0 {
			continue
		}
		tile.Settlement = s.ID
		s.extend(s.Center)
		queue = append(queue, s.Center)
	}

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		id := w.Map.Field(pos, z).Settlement
		s := w.Settlement(id)
		for _, d := range Neighbours {
			if d.X != 0 && d.Y != 0 {
				continue // orthogonal growth only
			}
			n := pos.Add(d)
			tile := w.Map.Field(n, z)
			if tile == nil || tile.Settlement != 0 {
				continue
			}
			tile.Settlement = id
			s.extend(n)
			queue = append(queue, n)
		}
	}

	for _, s := range w.Settlements {
		if s.Z == z {
			w.updateBorderTiles(s)
		}
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			w.CalculateTileOwnershipTransition(Pos{x, y}, z)
		}
	}
}
