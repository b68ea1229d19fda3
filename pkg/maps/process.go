package maps

import (
	"fmt"
	"sort"
	"strings"

	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

// Process takes a raw map and expands the legend into cells.
func Process(raw *RawMap) (*Map, error) {
	m := &Map{
		ID:          raw.ID,
		Name:        raw.Name,
		Width:       raw.Width,
		Height:      raw.Height,
		Season:      raw.Season,
		Seed:        raw.Seed,
		Settlements: raw.Settlements,
		Players:     raw.Players,
		Units:       raw.Units,
	}

	legend := make(map[rune]Cell, len(raw.Legend))
	for sym, idents := range raw.Legend {
		base, overlay, _ := strings.Cut(idents, "/")
		legend[[]rune(sym)[0]] = Cell{Base: base, Overlay: overlay}
	}

	m.Layers = make([][][]Cell, len(raw.Layers))
	for z, rows := range raw.Layers {
		m.Layers[z] = make([][]Cell, m.Height)
		for y, row := range rows {
			m.Layers[z][y] = make([]Cell, 0, m.Width)
			for x, sym := range []rune(row) {
				cell, ok := legend[sym]
				if !ok {
					return nil, fmt.Errorf("%w: %q at %d,%d,%d", ErrUnknownSymbol, sym, x, y, z)
				}
				m.Layers[z][y] = append(m.Layers[z][y], cell)
			}
		}
	}
	return m, nil
}

var orthogonal = [4]game.Pos{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

func isWaterTile(tile *terrain.Tile) bool {
	return tile.Category() != terrain.CategoryLand
}

// AssignLandmasses numbers the connected land and water regions of layer z and
// stores the region ID in each tile's Landmass. Land regions count up from 1,
// water regions down from -1.
func AssignLandmasses(w *game.World, z int) []*Landmass {
	if z < 0 || z >= len(w.Map.Layers) {
		return nil
	}
	l := w.Map.Layers[z]
	visited := make([][]bool, l.Height)
	for y := range visited {
		visited[y] = make([]bool, l.Width)
	}

	var regions []*Landmass
	landID, waterID := 1, -1
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if visited[y][x] {
				continue
			}
			water := isWaterTile(w.Map.Field(game.Pos{X: x, Y: y}, z))
			id := landID
			if water {
				id = waterID
				waterID--
			} else {
				landID++
			}

			lm := &Landmass{ID: id, Z: z, Water: water}
			lm.Cells = floodFill(w, z, game.Pos{X: x, Y: y}, water, visited)
			for _, pos := range lm.Cells {
				w.Map.Field(pos, z).Landmass = id
			}
			regions = append(regions, lm)
		}
	}

	computeAdjacencies(w, regions)
	return regions
}

// floodFill returns every tile of the same medium connected to start.
func floodFill(w *game.World, z int, start game.Pos, water bool, visited [][]bool) []game.Pos {
	cells := make([]game.Pos, 0)
	queue := []game.Pos{start}
	visited[start.Y][start.X] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		cells = append(cells, current)

		for _, d := range orthogonal {
			n := current.Add(d)
			tile := w.Map.Field(n, z)
			if tile == nil || visited[n.Y][n.X] || isWaterTile(tile) != water {
				continue
			}
			visited[n.Y][n.X] = true
			queue = append(queue, n)
		}
	}

	return cells
}

// computeAdjacencies records which land regions touch which water regions.
func computeAdjacencies(w *game.World, regions []*Landmass) {
	for _, lm := range regions {
		adjacent := make(map[int]bool)
		for _, pos := range lm.Cells {
			for _, d := range orthogonal {
				// Same-medium neighbours share the region, so any other ID is
				// a region of the other medium.
				tile := w.Map.Field(pos.Add(d), lm.Z)
				if tile != nil && tile.Landmass != lm.ID {
					adjacent[tile.Landmass] = true
				}
			}
		}
		lm.Adjacent = make([]int, 0, len(adjacent))
		for id := range adjacent {
			lm.Adjacent = append(lm.Adjacent, id)
		}
		sort.Ints(lm.Adjacent)
	}
}
