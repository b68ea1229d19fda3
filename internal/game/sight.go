package game

// sightMark remembers what MarkUnitSight counted so the unmark is exact.
type sightMark struct {
	active bool
	pos    Pos
	size   Pos
	z      int
	rng    int
	player int
}

// sightRange is 1 while a building is under construction.
func sightRange(u *Unit) int {
	if u.UnderConstruction {
		return 1
	}
	return u.Variables[VarSightRange].Value
}

// MarkUnitSight adds the unit's vision to the tiles around it.
func (w *World) MarkUnitSight(u *Unit) {
	if u.sight.active {
		w.UnmarkUnitSight(u)
	}
	m := sightMark{
		active: true,
		pos:    u.Pos,
		size:   u.Type.TileSize,
		z:      u.Z,
		rng:    sightRange(u),
		player: u.Player.Index,
	}
	u.sight = m
	w.forSight(m, func(pos Pos) {
		tile := w.Map.Field(pos, m.z)
		tile.Visible[m.player]++
		tile.Explore(m.player)
		if w.ThisPlayer != nil && w.ThisPlayer.VisionMask()&(1<<uint(m.player)) != 0 {
			before := tile.SeenTerrain()
			beforeOverlay := tile.SeenOverlay()
			tile.UpdateSeen()
			if before != tile.SeenTerrain() || beforeOverlay != tile.SeenOverlay() {
				w.Minimap.UpdateXY(pos, m.z)
			}
		}
	})
}

// UnmarkUnitSight removes the vision added by the last MarkUnitSight.
func (w *World) UnmarkUnitSight(u *Unit) {
	m := u.sight
	if !m.active {
		return
	}
	u.sight = sightMark{}
	w.forSight(m, func(pos Pos) {
		tile := w.Map.Field(pos, m.z)
		if tile.Visible[m.player] > 0 {
			tile.Visible[m.player]--
		}
	})
}

func (w *World) forSight(m sightMark, fn func(pos Pos)) {
	size := Pos{max(1, m.size.X), max(1, m.size.Y)}
	for y := m.pos.Y - m.rng; y < m.pos.Y+size.Y+m.rng; y++ {
		for x := m.pos.X - m.rng; x < m.pos.X+size.X+m.rng; x++ {
			pos := Pos{x, y}
			if !w.Map.Inside(pos, m.z) {
				continue
			}
			if distanceToRect(pos, m.pos, size) > m.rng {
				continue
			}
			fn(pos)
		}
	}
}
