package maps

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.json
var mapFiles embed.FS

// Registry holds all loaded maps.
var Registry = make(map[string]*Map)

// LoadAll loads all embedded maps.
func LoadAll() error {
	entries, err := mapFiles.ReadDir("data")
	if err != nil {
		return fmt.Errorf("failed to read map directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mapData, err := Load(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to load map %s: %w", entry.Name(), err)
		}

		Registry[mapData.ID] = mapData
	}

	return nil
}

// Load loads a single embedded map by filename.
func Load(filename string) (*Map, error) {
	data, err := mapFiles.ReadFile(path.Join("data", filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return LoadFromJSON(data)
}

// LoadFromJSON loads a map from JSON bytes (for custom maps).
func LoadFromJSON(data []byte) (*Map, error) {
	var raw RawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse map JSON: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMap, err)
	}

	return Process(&raw)
}

// Get retrieves a map from the registry by ID.
func Get(id string) (*Map, error) {
	m, ok := Registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMapNotFound, id)
	}
	return m, nil
}

// List returns all map IDs and names, sorted by ID.
func List() []MapInfo {
	infos := make([]MapInfo, 0, len(Registry))
	for _, m := range Registry {
		infos = append(infos, MapInfo{
			ID:              m.ID,
			Name:            m.Name,
			Width:           m.Width,
			Height:          m.Height,
			Layers:          len(m.Layers),
			SettlementCount: len(m.Settlements),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// MapInfo contains basic map information for listing.
type MapInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Layers          int    `json:"layers"`
	SettlementCount int    `json:"settlement_count"`
}

// validate checks a raw map for errors.
func validate(raw *RawMap) error {
	if raw.ID == "" {
		return fmt.Errorf("map ID is required")
	}
	if raw.Name == "" {
		return fmt.Errorf("map name is required")
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", raw.Width, raw.Height)
	}
	if len(raw.Layers) == 0 {
		return fmt.Errorf("map has no layers")
	}
	for sym, idents := range raw.Legend {
		if len([]rune(sym)) != 1 {
			return fmt.Errorf("legend symbol %q must be one character", sym)
		}
		if idents == "" || strings.Count(idents, "/") > 1 {
			return fmt.Errorf("legend entry %q must be base or base/overlay", idents)
		}
	}
	for z, rows := range raw.Layers {
		if len(rows) != raw.Height {
			return fmt.Errorf("layer %d height mismatch: expected %d, got %d", z, raw.Height, len(rows))
		}
		for y, row := range rows {
			if n := len([]rune(row)); n != raw.Width {
				return fmt.Errorf("layer %d row %d width mismatch: expected %d, got %d", z, y, raw.Width, n)
			}
		}
	}

	idents := make(map[string]bool)
	for _, s := range raw.Settlements {
		if s.Ident == "" {
			return fmt.Errorf("settlement ident is required")
		}
		if idents[s.Ident] {
			return fmt.Errorf("duplicate settlement %q", s.Ident)
		}
		idents[s.Ident] = true
		if !inBounds(raw, s.X, s.Y, s.Z) {
			return fmt.Errorf("settlement %s outside the map at %d,%d,%d", s.Ident, s.X, s.Y, s.Z)
		}
	}
	for _, u := range raw.Units {
		if !inBounds(raw, u.X, u.Y, u.Z) {
			return fmt.Errorf("unit %s outside the map at %d,%d,%d", u.Type, u.X, u.Y, u.Z)
		}
		if u.Site != "" && !idents[u.Site] {
			return fmt.Errorf("unit %s names unknown settlement %q", u.Type, u.Site)
		}
	}
	return nil
}

func inBounds(raw *RawMap, x, y, z int) bool {
	return z >= 0 && z < len(raw.Layers) && x >= 0 && x < raw.Width && y >= 0 && y < raw.Height
}

// Register adds a map to the registry.
func Register(m *Map) {
	if m != nil && m.ID != "" {
		Registry[m.ID] = m
	}
}
