// Package maps loads scenario maps, builds worlds from them and generates
// random scenarios.
package maps

import "ironhold/internal/game"

// RawMap is the format stored in JSON files.
type RawMap struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Season string `json:"season,omitempty"`
	Seed   uint32 `json:"seed,omitempty"`
	// Legend maps a row symbol to "base" or "base/overlay" terrain idents.
	Legend map[string]string `json:"legend"`
	// Layers holds one row string per map row, one symbol per tile.
	Layers      [][]string      `json:"layers"`
	Settlements []RawSettlement `json:"settlements,omitempty"`
	Players     []RawPlayer     `json:"players,omitempty"`
	Units       []RawUnit       `json:"units,omitempty"`
}

// RawSettlement is a settlement site from the JSON file.
type RawSettlement struct {
	Ident string `json:"ident"`
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z,omitempty"`
	Major bool   `json:"major,omitempty"`
	Color string `json:"color,omitempty"`
}

// RawPlayer configures one player slot.
type RawPlayer struct {
	Index     int            `json:"index"`
	Name      string         `json:"name"`
	Type      string         `json:"type"` // person, computer, rescue-passive, ...
	Faction   string         `json:"faction,omitempty"`
	Color     string         `json:"color"`
	Resources map[string]int `json:"resources,omitempty"`
	Allies    []int          `json:"allies,omitempty"`

	Objectives []RawObjective `json:"objectives,omitempty"`
}

// RawObjective asks a player to finish Quantity buildings of Build.
type RawObjective struct {
	Build    string `json:"build"`
	Quantity int    `json:"quantity"`
}

// RawUnit is a unit placed at scenario start.
type RawUnit struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z,omitempty"`
	// Constructing lays the building as a fresh construction site.
	Constructing bool `json:"constructing,omitempty"`
	// Site makes the unit the site unit of the named settlement.
	Site string `json:"site,omitempty"`
}

// Cell is one tile of a processed layer.
type Cell struct {
	Base    string
	Overlay string
}

// Map is the processed, runtime map data.
type Map struct {
	ID     string
	Name   string
	Width  int
	Height int
	Season string
	Seed   uint32

	// Layers of cells indexed [z][y][x].
	Layers [][][]Cell

	Settlements []RawSettlement
	Players     []RawPlayer
	Units       []RawUnit
}

// CellAt returns the cell at (x, y) on layer z, or false if out of bounds.
func (m *Map) CellAt(x, y, z int) (Cell, bool) {
	if z < 0 || z >= len(m.Layers) || x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return Cell{}, false
	}
	return m.Layers[z][y][x], true
}

// Landmass is a connected region of land, or of water, on one layer. Land
// regions have positive IDs and water regions negative ones.
type Landmass struct {
	ID    int
	Z     int
	Water bool
	Cells []game.Pos
	// Adjacent lists the IDs of regions of the other medium that touch this one.
	Adjacent []int
}
