package maps

import (
	"fmt"
	"math/rand"
	"time"
)

// RandomMapID asks for a generated scenario instead of an embedded map.
const RandomMapID = "random"

// GeneratorOptions contains settings for scenario generation.
type GeneratorOptions struct {
	Width       int   // Map width: 24-128
	Settlements int   // Settlement count: 2-24
	Players     int   // Players with a starting town hall: 1-8
	WaterBorder bool  // Whether to surround the map with water
	Lakes       int   // Lake amount: 0-5
	Forests     int   // Forest coverage percentage: 0-40
	Seed        int64 // 0 picks a seed from the clock
}

// Row symbols of generated maps.
const (
	symGrass  = '.'
	symWater  = '~'
	symForest = 'f'
	symRock   = 'r'
	symDirt   = ','
)

var generatedLegend = map[string]string{
	string(symGrass):  "grass",
	string(symWater):  "water",
	string(symForest): "grass/forest",
	string(symRock):   "dirt/rock",
	string(symDirt):   "dirt",
}

var playerColors = []string{"#c81414", "#1450c8", "#14a03c", "#8c14b4", "#e68c14", "#14b4b4", "#e6e614", "#7f7f7f"}

// Generator handles procedural scenario generation.
type Generator struct {
	options GeneratorOptions
	rng     *rand.Rand
	width   int
	height  int
	grid    [][]rune
	region  [][]int // growth region per cell, 0 = unclaimed
	regions int
}

// NewGenerator creates a new scenario generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		options: opts,
		rng:     rand.New(rand.NewSource(seed)),
	}

	// Height is 75% of width
	g.width = clamp(opts.Width, 24, 128)
	g.height = g.width * 3 / 4
	return g
}

// clamp restricts a value to a range
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Generate creates the scenario: lakes, forests and rock fields grown from
// seeds, then settlements on clear land and a town hall for every player.
func (g *Generator) Generate() (*Map, error) {
	g.grid = make([][]rune, g.height)
	g.region = make([][]int, g.height)
	for y := range g.grid {
		g.grid[y] = make([]rune, g.width)
		g.region[y] = make([]int, g.width)
		for x := range g.grid[y] {
			g.grid[y][x] = symGrass
			if g.options.WaterBorder && g.onBorder(x, y) {
				g.grid[y][x] = symWater
			}
		}
	}

	lakes := clamp(g.options.Lakes, 0, 5)
	for _, seed := range g.placeSeeds(lakes*2, 6, g.isOpenCell) {
		g.growRegion(seed, 8+g.rng.Intn(16), symWater)
	}

	forestPct := clamp(g.options.Forests, 0, 40)
	forestCells := g.width * g.height * forestPct / 100
	for _, seed := range g.placeSeeds(forestCells/10, 3, g.isOpenCell) {
		g.growRegion(seed, 6+g.rng.Intn(8), symForest)
	}
	for _, seed := range g.placeSeeds(g.width/16, 4, g.isOpenCell) {
		g.growRegion(seed, 3+g.rng.Intn(4), symRock)
	}

	count := clamp(g.options.Settlements, 2, 24)
	sites := g.placeSeeds(count, g.width/5, g.isSiteCell)
	if len(sites) < clamp(g.options.Players, 1, 8) {
		return nil, fmt.Errorf("%w: room for %d settlements only", ErrInvalidMap, len(sites))
	}
	for _, s := range sites {
		g.clearAround(s[0], s[1], 2)
	}

	return g.buildMap(sites)
}

func (g *Generator) onBorder(x, y int) bool {
	return x == 0 || x == g.width-1 || y == 0 || y == g.height-1
}

func (g *Generator) inside(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// isOpenCell returns true for unclaimed grass.
func (g *Generator) isOpenCell(x, y int) bool {
	return g.inside(x, y) && g.grid[y][x] == symGrass && g.region[y][x] == 0
}

// isSiteCell returns true where a 2x2 town hall with a margin fits on land.
func (g *Generator) isSiteCell(x, y int) bool {
	if x < 3 || y < 3 || x >= g.width-4 || y >= g.height-4 {
		return false
	}
	return g.grid[y][x] != symWater && g.grid[y+1][x+1] != symWater
}

// clearAround turns the square of radius r around (x, y) into dirt so a town
// hall and its workers fit.
func (g *Generator) clearAround(x, y, r int) {
	for dy := -r; dy <= r+1; dy++ {
		for dx := -r; dx <= r+1; dx++ {
			if g.inside(x+dx, y+dy) && !(g.options.WaterBorder && g.onBorder(x+dx, y+dy)) {
				g.grid[y+dy][x+dx] = symDirt
			}
		}
	}
}

// placeSeeds picks up to count cells accepted by valid, spaced apart. The
// spacing is relaxed until enough seeds fit.
func (g *Generator) placeSeeds(count, spacing int, valid func(x, y int) bool) [][2]int {
	seeds := make([][2]int, 0, count)
	if count <= 0 {
		return seeds
	}

	minAllowedSpacing := 2
	for ; spacing >= minAllowedSpacing; spacing-- {
		seeds = seeds[:0]
		attempts := 0
		maxAttempts := count * 150

		for len(seeds) < count && attempts < maxAttempts {
			attempts++

			x := g.rng.Intn(g.width)
			y := g.rng.Intn(g.height)
			if !valid(x, y) {
				continue
			}

			tooClose := false
			for _, s := range seeds {
				dx := x - s[0]
				dy := y - s[1]
				if dx*dx+dy*dy < spacing*spacing {
					tooClose = true
					break
				}
			}

			if !tooClose {
				seeds = append(seeds, [2]int{x, y})
			}
		}

		if len(seeds) >= count {
			break
		}
	}

	return seeds
}

// growRegion claims up to targetSize open cells around seed and paints them
// with sym.
func (g *Generator) growRegion(seed [2]int, targetSize int, sym rune) int {
	startX, startY := seed[0], seed[1]
	if !g.isOpenCell(startX, startY) {
		return 0
	}
	g.regions++
	id := g.regions

	frontier := make([][2]int, 0)
	inFrontier := make(map[[2]int]bool)

	g.claim(startX, startY, id, sym)
	claimed := 1
	g.addValidNeighbors(startX, startY, &frontier, inFrontier)

	for claimed < targetSize && len(frontier) > 0 {
		// Pick cell with some randomness for organic shapes
		idx := g.pickGrowthCell(frontier, id)
		cell := frontier[idx]

		frontier[idx] = frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		delete(inFrontier, cell)

		x, y := cell[0], cell[1]
		if !g.isOpenCell(x, y) {
			continue
		}

		g.claim(x, y, id, sym)
		claimed++
		g.addValidNeighbors(x, y, &frontier, inFrontier)
	}

	return claimed
}

func (g *Generator) claim(x, y, id int, sym rune) {
	g.region[y][x] = id
	g.grid[y][x] = sym
}

func (g *Generator) addValidNeighbors(x, y int, frontier *[][2]int, inFrontier map[[2]int]bool) {
	// Only cardinal directions - diagonals don't count as neighbors
	for _, d := range orthogonal {
		nx, ny := x+d.X, y+d.Y
		cell := [2]int{nx, ny}
		if g.isOpenCell(nx, ny) && !inFrontier[cell] {
			*frontier = append(*frontier, cell)
			inFrontier[cell] = true
		}
	}
}

// neighborsInRegion counts the orthogonal neighbours of cell claimed by id.
func (g *Generator) neighborsInRegion(cell [2]int, id int) int {
	count := 0
	for _, d := range orthogonal {
		nx, ny := cell[0]+d.X, cell[1]+d.Y
		if g.inside(nx, ny) && g.region[ny][nx] == id {
			count++
		}
	}
	return count
}

func (g *Generator) pickGrowthCell(frontier [][2]int, id int) int {
	if len(frontier) <= 1 {
		return 0
	}

	// 40% chance to pick completely random cell for irregular shapes
	if g.rng.Float32() < 0.40 {
		return g.rng.Intn(len(frontier))
	}

	// 30% chance to pick a cell with low connectivity (creates branches)
	if g.rng.Float32() < 0.30 {
		return g.pickLowConnectivity(frontier, id)
	}

	return g.pickModerateCell(frontier, id)
}

func (g *Generator) pickLowConnectivity(frontier [][2]int, id int) int {
	lowCells := make([]int, 0)
	for i, cell := range frontier {
		if g.neighborsInRegion(cell, id) == 1 {
			lowCells = append(lowCells, i)
		}
	}

	if len(lowCells) > 0 {
		return lowCells[g.rng.Intn(len(lowCells))]
	}
	return g.rng.Intn(len(frontier))
}

func (g *Generator) pickModerateCell(frontier [][2]int, id int) int {
	// Weighted random: prefer score 1-2 over 3-4 for more organic shapes
	weights := map[int]int{1: 5, 2: 4, 3: 2, 4: 1}
	choices := make([]int, 0)
	for i, cell := range frontier {
		w := weights[g.neighborsInRegion(cell, id)]
		if w == 0 {
			w = 1
		}
		for j := 0; j < w; j++ {
			choices = append(choices, i)
		}
	}

	if len(choices) > 0 {
		return choices[g.rng.Intn(len(choices))]
	}
	return g.rng.Intn(len(frontier))
}

func (g *Generator) buildMap(sites [][2]int) (*Map, error) {
	raw := &RawMap{
		ID:     fmt.Sprintf("gen_%d", g.rng.Int63()),
		Name:   "Generated Map",
		Width:  g.width,
		Height: g.height,
		Seed:   g.rng.Uint32(),
		Legend: generatedLegend,
	}
	rows := make([]string, g.height)
	for y, row := range g.grid {
		rows[y] = string(row)
	}
	raw.Layers = [][]string{rows}

	players := clamp(g.options.Players, 1, 8)
	for i := 0; i < players; i++ {
		typ := "computer"
		if i == 0 {
			typ = "person"
		}
		raw.Players = append(raw.Players, RawPlayer{
			Index:     i,
			Name:      fmt.Sprintf("Player %d", i+1),
			Type:      typ,
			Color:     playerColors[i],
			Resources: map[string]int{"gold": 2000, "wood": 1000, "stone": 500},
		})
	}

	used := make(map[string]bool)
	for i, s := range sites {
		ident := fmt.Sprintf("site-%d", i+1)
		name := g.genName(i + 1)
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s %d", g.genName(i+1), n)
		}
		used[name] = true
		major := i < players || g.rng.Intn(3) == 0
		raw.Settlements = append(raw.Settlements, RawSettlement{
			Ident: ident,
			Name:  name,
			X:     s[0],
			Y:     s[1],
			Major: major,
			Color: fmt.Sprintf("#%02x%02x%02x", 64+g.rng.Intn(192), 64+g.rng.Intn(192), 64+g.rng.Intn(192)),
		})
		if i < players {
			raw.Units = append(raw.Units,
				RawUnit{Type: "unit-town-hall", Player: i, X: s[0], Y: s[1], Site: ident},
				RawUnit{Type: "unit-worker", Player: i, X: s[0] + 2, Y: s[1]},
				RawUnit{Type: "unit-worker", Player: i, X: s[0] + 2, Y: s[1] + 1},
			)
		}
	}

	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMap, err)
	}
	return Process(raw)
}

func (g *Generator) genName(id int) string {
	prefixes := []string{"North", "South", "East", "West", "New", "Old", "Upper", "Lower"}
	names := []string{"Plains", "Valley", "Hills", "Forest", "Woods", "Fields", "Meadows", "Ridge",
		"Haven", "Landing", "Point", "Glen", "Dale", "Hollow", "Brook", "Springs"}
	suffixes := []string{"", "land", "ton", "ville", "burg", "ford", "shire"}

	// Names only need to be unique within a map, so they depend on the id alone.
	r := rand.New(rand.NewSource(int64(id * 7919)))
	switch r.Intn(3) {
	case 0:
		return prefixes[r.Intn(len(prefixes))] + " " + names[r.Intn(len(names))]
	case 1:
		return names[r.Intn(len(names))] + suffixes[r.Intn(len(suffixes))]
	default:
		return names[r.Intn(len(names))]
	}
}

// DefaultOptions returns default generator options.
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Width:       48,
		Settlements: 8,
		Players:     2,
		WaterBorder: true,
		Lakes:       2,
		Forests:     20,
	}
}
