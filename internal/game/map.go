package game

import (
	"ironhold/internal/terrain"
)

// Layer is one plane of the map (surface, caves, another world).
type Layer struct {
	ID     int
	Width  int
	Height int
	Fields []terrain.Tile

	units [][]UnitHandle
}

// Map is the layered tile map together with its terrain tables.
type Map struct {
	Layers       []*Layer
	TerrainTypes []*terrain.Type
	Features     []*terrain.Feature
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{}
}

// AddLayer appends a layer filled with base.
func (m *Map) AddLayer(width, height int, base *terrain.Type) *Layer {
	l := &Layer{
		ID:     len(m.Layers),
		Width:  width,
		Height: height,
		Fields: make([]terrain.Tile, width*height),
		units:  make([][]UnitHandle, width*height),
	}
	for i := range l.Fields {
		l.Fields[i].MovementCost = terrain.DefaultTileMovementCost
		if base != nil {
			l.Fields[i].SetTerrain(base, terrain.SetOptions{Editor: true})
		}
	}
	m.Layers = append(m.Layers, l)
	return l
}

// Inside returns true if pos is on layer z.
func (m *Map) Inside(pos Pos, z int) bool {
	if z < 0 || z >= len(m.Layers) {
		return false
	}
	l := m.Layers[z]
	return pos.X >= 0 && pos.Y >= 0 && pos.X < l.Width && pos.Y < l.Height
}

// Field returns the tile at pos on layer z, or nil when outside the map.
func (m *Map) Field(pos Pos, z int) *terrain.Tile {
	if !m.Inside(pos, z) {
		return nil
	}
	l := m.Layers[z]
	return &l.Fields[pos.Y*l.Width+pos.X]
}

// TerrainType finds a terrain type by ident.
func (m *Map) TerrainType(ident string) *terrain.Type {
	for _, t := range m.TerrainTypes {
		if t.Ident == ident {
			return t
		}
	}
	return nil
}

// Feature finds a terrain feature by ident.
func (m *Map) Feature(ident string) *terrain.Feature {
	for _, f := range m.Features {
		if f.Ident == ident {
			return f
		}
	}
	return nil
}

func (m *Map) unitsAt(pos Pos, z int) []UnitHandle {
	if !m.Inside(pos, z) {
		return nil
	}
	l := m.Layers[z]
	return l.units[pos.Y*l.Width+pos.X]
}

// UnitsOnTile returns the live units occupying pos.
func (w *World) UnitsOnTile(pos Pos, z int) []*Unit {
	var out []*Unit
	for _, h := range w.Map.unitsAt(pos, z) {
		if u := w.Units.Get(h); u != nil {
			out = append(out, u)
		}
	}
	return out
}

// SetTileTerrain installs a terrain type on a tile and updates everything that
// depends on it.
func (w *World) SetTileTerrain(pos Pos, z int, t *terrain.Type) error {
	tile := w.Map.Field(pos, z)
	if tile == nil {
		return nil
	}
	if err := tile.SetTerrain(t, w.terrainOptions()); err != nil {
		return err
	}
	w.afterTerrainChange(pos, z)
	return nil
}

// RemoveTileOverlayTerrain strips the overlay from a tile.
func (w *World) RemoveTileOverlayTerrain(pos Pos, z int) {
	tile := w.Map.Field(pos, z)
	if tile == nil || tile.Overlay == nil {
		return
	}
	tile.RemoveOverlayTerrain()
	w.afterTerrainChange(pos, z)
}

// SetOverlayTerrainDestroyed marks a tile's overlay destroyed or restored.
func (w *World) SetOverlayTerrainDestroyed(pos Pos, z int, destroyed bool) {
	tile := w.Map.Field(pos, z)
	if tile == nil || tile.Overlay == nil || tile.OverlayDestroyed == destroyed {
		return
	}
	tile.SetOverlayTerrainDestroyed(destroyed)
	w.afterTerrainChange(pos, z)
}

// SetOverlayTerrainDamaged marks a tile's overlay damaged.
func (w *World) SetOverlayTerrainDamaged(pos Pos, z int, damaged bool) {
	tile := w.Map.Field(pos, z)
	if tile == nil || tile.Overlay == nil || tile.OverlayDamaged == damaged {
		return
	}
	tile.SetOverlayTerrainDamaged(damaged)
	w.afterTerrainChange(pos, z)
}

func (w *World) afterTerrainChange(pos Pos, z int) {
	tile := w.Map.Field(pos, z)
	for _, u := range w.UnitsOnTile(pos, z) {
		if u.Variation < len(u.Type.Variations) && !u.Type.Variations[u.Variation].Allows(tile) {
			w.chooseVariation(u)
		}
	}
	w.refreshOccupancy(pos, z)
	if w.tileSeenByThisPlayer(tile) {
		tile.UpdateSeen()
	}
	w.Minimap.UpdateXY(pos, z)
	w.emit(Event{Kind: EventTerrainChanged, Player: -1, Pos: pos, Z: z, Type: typeIdent(tile.TopTerrain())})
}

func typeIdent(t *terrain.Type) string {
	if t == nil {
		return ""
	}
	return t.Ident
}

// refreshOccupancy rebuilds the unit-derived flags of a tile. Unit types that
// block air traffic keep the tile air-unpassable whatever the terrain says.
func (w *World) refreshOccupancy(pos Pos, z int) {
	tile := w.Map.Field(pos, z)
	if tile == nil {
		return
	}
	tile.Flags &^= terrain.OccupancyFlags
	tile.RecomputeDerivedFlags()
	for _, u := range w.UnitsOnTile(pos, z) {
		tile.Flags |= u.Type.OccupancyFlag()
		if u.Type.AirUnpassable {
			tile.Flags |= terrain.FlagAirUnpassable
		}
	}
}

func (w *World) chooseVariation(u *Unit) {
	tile := w.Map.Field(u.Pos, u.Z)
	if tile == nil {
		return
	}
	for i, v := range u.Type.Variations {
		if v.Allows(tile) {
			u.Variation = i
			return
		}
	}
}

func (w *World) tileSeenByThisPlayer(tile *terrain.Tile) bool {
	if w.ThisPlayer == nil || w.Settings.RevealMap {
		return true
	}
	return tile.VisibilityFor(w.ThisPlayer.VisionMask()) == 2
}

// insertUnit records u on every tile of its footprint.
func (w *World) insertUnit(u *Unit) {
	w.forFootprint(u, func(pos Pos, idx int, l *Layer) {
		l.units[idx] = append(l.units[idx], u.Handle)
		w.refreshOccupancy(pos, u.Z)
	})
}

// removeUnitFromTiles is the inverse of insertUnit.
func (w *World) removeUnitFromTiles(u *Unit) {
	w.forFootprint(u, func(pos Pos, idx int, l *Layer) {
		hs := l.units[idx]
		for i, h := range hs {
			if h == u.Handle {
				l.units[idx] = append(hs[:i], hs[i+1:]...)
				break
			}
		}
		w.refreshOccupancy(pos, u.Z)
	})
}

func (w *World) forFootprint(u *Unit, fn func(pos Pos, idx int, l *Layer)) {
	if u.Z < 0 || u.Z >= len(w.Map.Layers) {
		return
	}
	l := w.Map.Layers[u.Z]
	for dy := 0; dy < max(1, u.Type.TileSize.Y); dy++ {
		for dx := 0; dx < max(1, u.Type.TileSize.X); dx++ {
			pos := Pos{u.Pos.X + dx, u.Pos.Y + dy}
			if !w.Map.Inside(pos, u.Z) {
				continue
			}
			fn(pos, pos.Y*l.Width+pos.X, l)
		}
	}
}

// CanBuildUnitType returns true if a building of type t fits at pos.
func (w *World) CanBuildUnitType(t *UnitType, pos Pos, z int) bool {
	if t.OnTopOf != nil {
		deposit := w.unitOfTypeAt(t.OnTopOf, pos, z)
		return deposit != nil && deposit.Pos == pos
	}
	for dy := 0; dy < max(1, t.TileSize.Y); dy++ {
		for dx := 0; dx < max(1, t.TileSize.X); dx++ {
			tile := w.Map.Field(Pos{pos.X + dx, pos.Y + dy}, z)
			if tile == nil {
				return false
			}
			if tile.Flags.Has(terrain.FlagNoBuilding | terrain.FlagUnpassable | terrain.FlagBuilding |
				terrain.FlagLandUnit | terrain.FlagWater | terrain.FlagSpace) {
				return false
			}
		}
	}
	return true
}

func (w *World) unitOfTypeAt(t *UnitType, pos Pos, z int) *Unit {
	for _, u := range w.UnitsOnTile(pos, z) {
		if u.Type == t {
			return u
		}
	}
	return nil
}
