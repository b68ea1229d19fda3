package game

import (
	"ironhold/internal/terrain"
)

// dropSearchRadius bounds how far DropOutOnSide looks for a free tile.
const dropSearchRadius = 16

// MakeUnit allocates a unit of type t for p. The unit starts removed; place it
// with PlaceUnit or DropOutOnSide.
func (w *World) MakeUnit(t *UnitType, p *Player) (*Unit, error) {
	u, err := w.Units.Allocate()
	if err != nil {
		w.Log.WithError(err).Warnf("%d: cannot make %s", p.Index, t.Ident)
		return nil, err
	}
	u.Type = t
	u.Player = p
	u.Removed = true
	u.Container = NoUnit
	u.Variables = t.StatsFor(p.Index).Variables
	u.Frame = t.StillFrame
	u.ClearOrders()
	w.assignToPlayer(u, p)
	return u, nil
}

func (w *World) assignToPlayer(u *Unit, p *Player) {
	u.Player = p
	t := u.Type
	if t.Vanishes {
		return
	}
	p.UnitTypesCount[t]++
	p.TotalUnits++
	if t.Building {
		p.NumBuildings++
	}
	p.Demand += u.Variables[VarDemand].Value
	if u.UnderConstruction {
		p.changeUnderConstruction(t, 1)
	}
	if u.supplied {
		p.Supply += u.Variables[VarSupply].Value
	}
}

func (w *World) removeFromPlayer(u *Unit) {
	p := u.Player
	t := u.Type
	if t.Vanishes {
		return
	}
	p.UnitTypesCount[t]--
	p.TotalUnits--
	if t.Building {
		p.NumBuildings--
	}
	p.Demand -= u.Variables[VarDemand].Value
	if u.UnderConstruction {
		p.changeUnderConstruction(t, -1)
	}
	if u.supplied {
		p.Supply -= u.Variables[VarSupply].Value
	}
}

// UpdateForNewUnit credits a finished unit's supply to its owner.
func (w *World) UpdateForNewUnit(u *Unit, upgrade bool) {
	if u.supplied && !upgrade {
		return
	}
	if u.supplied {
		u.Player.Supply -= u.Variables[VarSupply].Value
	}
	u.supplied = true
	u.Player.Supply += u.Variables[VarSupply].Value
}

// PlaceUnit puts a removed unit on the map at pos.
func (w *World) PlaceUnit(u *Unit, pos Pos, z int) {
	u.Pos = pos
	u.Z = z
	u.Removed = false
	u.Container = NoUnit
	w.insertUnit(u)
	tile := w.Map.Field(pos, z)
	if tile != nil && u.Variation < len(u.Type.Variations) && !u.Type.Variations[u.Variation].Allows(tile) {
		w.chooseVariation(u)
	}
	w.MarkUnitSight(u)
}

// removeUnit takes u off the map. Its counters are left alone.
func (w *World) removeUnit(u *Unit) {
	if u.Removed {
		return
	}
	w.UnmarkUnitSight(u)
	w.removeUnitFromTiles(u)
	u.Removed = true
}

// unitLost removes u from its owner's counters and gives up any settlement it
// held.
func (w *World) unitLost(u *Unit) {
	w.removeFromPlayer(u)
	if s := u.Settlement; s != nil && s.SiteUnit == u.Handle {
		s.SiteUnit = NoUnit
		s.SetOwner(w, nil)
	}
	u.Settlement = nil
}

// LetUnitDie destroys u and releases its slot.
func (w *World) LetUnitDie(u *Unit) {
	if w.Units.Get(u.Handle) != u {
		return
	}
	w.Log.Debugf("%d: %s %s dies", u.Player.Index, u.Type.Ident, u.Ref())
	if o := u.CurrentOrder(); o != nil {
		o.AiUnitKilled(w, u)
	}
	for _, inside := range w.Units.Units() {
		if inside.Container == u.Handle {
			inside.ClearOrders()
			w.DropOutOnSide(inside, LookingW, u)
		}
	}
	w.emit(unitEvent(EventUnitDied, u))
	w.releaseUnit(u)
}

// releaseUnit takes u off the map, the owner's counts and the selection, then
// frees its slot.
func (w *World) releaseUnit(u *Unit) {
	w.removeUnit(u)
	w.unitLost(u)
	w.Unselect(u)
	w.Units.Release(u)
}

// DropOutOnSide places u on the first free tile around container, starting on
// the side it is heading to. Without a container the search starts from u's own
// position.
func (w *World) DropOutOnSide(u *Unit, heading int, container *Unit) bool {
	origin, size, z := u.Pos, Pos{1, 1}, u.Z
	if container != nil {
		origin, size, z = container.Pos, container.Type.TileSize, container.Z
	}
	size = Pos{max(1, size.X), max(1, size.Y)}
	for r := 1; r <= dropSearchRadius; r++ {
		for _, pos := range ringPositions(origin, size, r, heading) {
			tile := w.Map.Field(pos, z)
			if tile == nil || !u.Type.CanStandOn(tile) {
				continue
			}
			w.PlaceUnit(u, pos, z)
			return true
		}
	}
	w.Log.Warnf("%d: no room to drop %s %s", u.Player.Index, u.Type.Ident, u.Ref())
	return false
}

// ringPositions lists the tiles at Chebyshev distance r around the rectangle,
// one side after another, beginning with the side faced by heading.
func ringPositions(origin, size Pos, r, heading int) []Pos {
	x0, y0 := origin.X-r, origin.Y-r
	x1, y1 := origin.X+size.X-1+r, origin.Y+size.Y-1+r
	var north, east, south, west []Pos
	for x := x0; x < x1; x++ {
		north = append(north, Pos{x1 - (x - x0), y0})
	}
	for y := y0; y < y1; y++ {
		east = append(east, Pos{x1, y1 - (y - y0)})
	}
	for x := x0; x < x1; x++ {
		south = append(south, Pos{x, y1})
	}
	for y := y0; y < y1; y++ {
		west = append(west, Pos{x0, y})
	}
	sides := [4][]Pos{north, east, south, west}
	start := ((heading & 0xFF) + 32) / 64 % 4
	out := make([]Pos, 0, 4*(x1-x0))
	for i := range 4 {
		out = append(out, sides[(start+i)%4]...)
	}
	return out
}

// StartConstruction lays a new building at pos. worker is credited with the
// work and may be nil for buildings that raise themselves.
func (w *World) StartConstruction(b, worker *Unit, pos Pos, z int) {
	t := b.Type
	b.UnderConstruction = true
	b.Player.changeUnderConstruction(t, 1)
	b.Variables[VarHP].Value = min(1, b.Variables[VarHP].Max)
	b.Variables[VarShield].Value = 0
	b.Orders = []Order{NewBuiltOrder(worker)}
	if len(t.Construction) > 0 {
		b.Frame = t.Construction[0].Frame
	}
	w.PlaceUnit(b, pos, z)

	if t.TownHall {
		if tile := w.Map.Field(b.Center(), z); tile != nil {
			if s := w.Settlement(tile.Settlement); s != nil && s.Center == b.Center() && w.Units.Get(s.SiteUnit) == nil {
				s.SetSiteUnit(w, b)
			}
		}
	}
	if b.Player == w.ThisPlayer {
		w.Sound.PlayUnitSound(b, SoundBuildingPlaced)
	}
	w.emit(unitEvent(EventBuildingStarted, b))
}

// ChangeUnitOwner hands u to p, moving its counters and vision.
func (w *World) ChangeUnitOwner(u *Unit, p *Player) {
	if u.Player == p {
		return
	}
	placed := !u.Removed
	if placed {
		w.UnmarkUnitSight(u)
	}
	w.removeFromPlayer(u)
	w.assignToPlayer(u, p)
	if placed {
		w.MarkUnitSight(u)
	}
	if s := u.Settlement; s != nil && s.SiteUnit == u.Handle && !u.UnderConstruction {
		s.SetOwner(w, siteOwner(p))
	}
}

// wallMask returns the orthogonal neighbours of u that are walls of its type,
// one bit each in Neighbours order.
func (w *World) wallMask(u *Unit) int {
	mask := 0
	for i, d := range Neighbours {
		if d.X != 0 && d.Y != 0 {
			continue
		}
		for _, n := range w.UnitsOnTile(u.Pos.Add(d), u.Z) {
			if n != u && n.Type == u.Type && !n.UnderConstruction {
				mask |= 1 << uint(i)
				break
			}
		}
	}
	return mask
}

// correctWallDirections orients a finished wall segment to join its neighbours.
func (w *World) correctWallDirections(u *Unit) {
	u.Direction = w.wallMask(u)
	u.Frame = u.Type.StillFrame + u.Direction
}

// correctWallNeighbours re-orients the wall segments around u.
func (w *World) correctWallNeighbours(u *Unit) {
	for _, d := range Neighbours {
		if d.X != 0 && d.Y != 0 {
			continue
		}
		for _, n := range w.UnitsOnTile(u.Pos.Add(d), u.Z) {
			if n != u && n.Type == u.Type && !n.UnderConstruction {
				w.correctWallDirections(n)
			}
		}
	}
}

// FindDepot returns the nearest finished building of u's owner that stores res.
func (w *World) FindDepot(u *Unit, res int) *Unit {
	var best *Unit
	bestDist := 0
	for _, d := range w.Units.Units() {
		if d.Player != u.Player || d.Removed || d.UnderConstruction || d.Z != u.Z {
			continue
		}
		if res <= 0 || res >= MaxCosts || !d.Type.CanStore[res] {
			continue
		}
		if dist := d.DistanceTo(u.Pos); best == nil || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// tileResource returns the resource a terrain tile yields, or 0.
func tileResource(tile *terrain.Tile) int {
	if tile == nil || tile.Overlay == nil || tile.OverlayDestroyed || tile.Value <= 0 {
		return 0
	}
	return tile.Overlay.Resource
}
