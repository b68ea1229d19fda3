package maps

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"ironhold/internal/catalog"
	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

// Build creates a world from the map: terrain, landmasses, players,
// settlements with their territories, and the starting units. The catalog is
// installed into the world and must not be used for another one.
func (m *Map) Build(cat *catalog.Catalog, settings game.Settings, log *logrus.Entry) (*game.World, error) {
	w := game.NewWorld(settings, log)
	cat.Install(w)
	w.Season = m.Season
	w.Rand.Seed = m.Seed

	landmasses := make([][]*Landmass, len(m.Layers))
	for z := range m.Layers {
		if err := m.buildLayer(w, z); err != nil {
			return nil, err
		}
		landmasses[z] = AssignLandmasses(w, z)
		w.Log.Debugf("map %s layer %d: %d landmasses", m.ID, z, len(landmasses[z]))
	}

	for _, rp := range m.Players {
		if err := buildPlayer(w, rp); err != nil {
			return nil, fmt.Errorf("player %d: %w", rp.Index, err)
		}
	}

	for _, rs := range m.Settlements {
		c, err := catalog.ParseColor(rs.Color)
		if err != nil {
			return nil, fmt.Errorf("settlement %s: %w", rs.Ident, err)
		}
		w.AddSettlement(rs.Ident, rs.Name, game.Pos{X: rs.X, Y: rs.Y}, rs.Z, rs.Major, c)
	}
	for z := range m.Layers {
		w.AssignTerritories(z)
		if w.Log.Logger.IsLevelEnabled(logrus.TraceLevel) {
			w.Log.Trace("\n" + Debug(w, z, landmasses[z]))
		}
	}

	for i, ru := range m.Units {
		if err := buildUnit(w, ru); err != nil {
			return nil, fmt.Errorf("unit %d (%s): %w", i, ru.Type, err)
		}
	}

	w.Log.WithFields(logrus.Fields{
		"map":         m.ID,
		"units":       w.Units.Len(),
		"settlements": len(w.Settlements),
	}).Info("Map built")
	return w, nil
}

func (m *Map) buildLayer(w *game.World, z int) error {
	w.Map.AddLayer(m.Width, m.Height, nil)
	opts := terrain.SetOptions{Editor: true}
	for y, row := range m.Layers[z] {
		for x, cell := range row {
			tile := w.Map.Field(game.Pos{X: x, Y: y}, z)
			base := w.Map.TerrainType(cell.Base)
			if base == nil {
				return fmt.Errorf("%w: %q at %d,%d,%d", catalog.ErrUnknownTerrain, cell.Base, x, y, z)
			}
			if err := tile.SetTerrain(base, opts); err != nil {
				return fmt.Errorf("tile %d,%d,%d: %w", x, y, z, err)
			}
			if cell.Overlay == "" {
				continue
			}
			overlay := w.Map.TerrainType(cell.Overlay)
			if overlay == nil {
				return fmt.Errorf("%w: %q at %d,%d,%d", catalog.ErrUnknownTerrain, cell.Overlay, x, y, z)
			}
			if err := tile.SetTerrain(overlay, opts); err != nil {
				return fmt.Errorf("tile %d,%d,%d: %w", x, y, z, err)
			}
		}
	}
	return nil
}

func buildPlayer(w *game.World, rp RawPlayer) error {
	if rp.Index < 0 || rp.Index >= game.PlayerNumNeutral {
		return fmt.Errorf("%w: player index out of range", ErrInvalidMap)
	}
	p := w.Players[rp.Index]
	typ, err := game.ParsePlayerType(rp.Type)
	if err != nil {
		return err
	}
	p.Type = typ
	p.AI = typ == game.PlayerComputer
	if rp.Name != "" {
		p.Name = rp.Name
	}
	if rp.Faction != "" {
		if p.Faction = w.Faction(rp.Faction); p.Faction == nil {
			return fmt.Errorf("%w: unknown faction %q", ErrInvalidMap, rp.Faction)
		}
	}
	if p.MinimapColor, err = catalog.ParseColor(rp.Color); err != nil {
		return err
	}
	for name, amount := range rp.Resources {
		idx := game.CostIndex(name)
		if idx <= game.CostTime {
			return fmt.Errorf("%w: %q", catalog.ErrUnknownResource, name)
		}
		p.Resources[idx] = amount
	}
	for _, ally := range rp.Allies {
		if ally < 0 || ally >= game.PlayerMax {
			return fmt.Errorf("%w: ally %d out of range", ErrInvalidMap, ally)
		}
		p.Allies |= 1 << uint(ally)
		p.SharedVision |= 1 << uint(ally)
	}
	for _, ro := range rp.Objectives {
		t := w.UnitType(ro.Build)
		if t == nil {
			return fmt.Errorf("objective: %w: %q", catalog.ErrUnknownUnitType, ro.Build)
		}
		p.Objectives = append(p.Objectives, &game.BuildUnitsObjective{Type: t, Quantity: ro.Quantity})
	}
	return nil
}

func buildUnit(w *game.World, ru RawUnit) error {
	t := w.UnitType(ru.Type)
	if t == nil {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownUnitType, ru.Type)
	}
	if ru.Player < 0 || ru.Player >= game.PlayerMax {
		return fmt.Errorf("%w: player %d out of range", ErrInvalidMap, ru.Player)
	}
	u, err := w.MakeUnit(t, w.Players[ru.Player])
	if err != nil {
		return err
	}
	pos := game.Pos{X: ru.X, Y: ru.Y}
	if ru.Constructing {
		w.StartConstruction(u, nil, pos, ru.Z)
	} else {
		w.PlaceUnit(u, pos, ru.Z)
		w.UpdateForNewUnit(u, false)
	}
	if ru.Site != "" {
		w.SettlementByIdent(ru.Site).SetSiteUnit(w, u)
	}
	return nil
}
