package game

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"ironhold/internal/savefile"
	"ironhold/internal/terrain"
)

// TerrainType implements terrain.Resolver.
func (w *World) TerrainType(ident string) *terrain.Type {
	return w.Map.TerrainType(ident)
}

// Feature implements terrain.Resolver.
func (w *World) Feature(ident string) *terrain.Feature {
	return w.Map.Feature(ident)
}

// SiteByIdent implements terrain.Resolver.
func (w *World) SiteByIdent(ident string) (terrain.SiteID, bool) {
	if s := w.SettlementByIdent(ident); s != nil {
		return s.ID, true
	}
	return 0, false
}

// SiteIdent implements terrain.Resolver.
func (w *World) SiteIdent(id terrain.SiteID) string {
	if s := w.Settlement(id); s != nil {
		return s.Ident
	}
	return ""
}

// UnitByRef resolves a reference as returned by Unit.Ref.
func (w *World) UnitByRef(ref string) (*Unit, error) {
	var serial int
	if _, err := fmt.Sscanf(ref, "U%X", &serial); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, ref)
	}
	u := w.Units.BySerial(serial)
	if u == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, ref)
	}
	return u, nil
}

// SaveGame writes the world state as one record per line. Static data (unit
// and terrain types) is not included; it comes from the catalog on load.
func SaveGame(w *World, out io.Writer) error {
	enc := savefile.NewEncoder(out)
	if err := enc.Comment("ironhold save, cycle " + fmt.Sprint(w.Cycle)); err != nil {
		return err
	}
	return w.writeState(enc, true)
}

func (w *World) writeState(enc *savefile.Encoder, withID bool) error {
	game := savefile.Table{savefile.Str("game")}
	if withID {
		game = game.AddKey("id", savefile.Str(w.ID))
	}
	game = game.
		AddKey("cycle", savefile.Int(w.Cycle)).
		AddKey("seed", savefile.Int(int(w.Rand.Seed))).
		AddKey("serials", savefile.Int(w.Units.serials)).
		AddKey("season", savefile.Str(w.Season))
	if w.ThisPlayer != nil {
		game = game.AddKey("this-player", savefile.Int(w.ThisPlayer.Index))
	}
	if err := enc.Encode(game); err != nil {
		return err
	}

	for _, p := range w.Players {
		if err := enc.Encode(playerRecord(p)); err != nil {
			return err
		}
	}
	for _, s := range w.Settlements {
		if err := enc.Encode(settlementRecord(s)); err != nil {
			return err
		}
	}
	for z, l := range w.Map.Layers {
		rec := savefile.Table{savefile.Str("layer"), savefile.Int(z), savefile.Int(l.Width), savefile.Int(l.Height)}
		if err := enc.Encode(rec); err != nil {
			return err
		}
		for y := 0; y < l.Height; y++ {
			row := savefile.Table{savefile.Str("row"), savefile.Int(z), savefile.Int(y)}
			for x := 0; x < l.Width; x++ {
				row = row.Add(savefile.Tab(l.Fields[y*l.Width+x].Record(w)))
			}
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
	}
	for _, u := range w.Units.Units() {
		if err := enc.Encode(w.unitRecord(u)); err != nil {
			return err
		}
	}
	return nil
}

func rgbaValue(c color.RGBA) savefile.Value {
	return savefile.Tab(savefile.Table{savefile.Int(int(c.R)), savefile.Int(int(c.G)), savefile.Int(int(c.B)), savefile.Int(int(c.A))})
}

func costsValue(c Costs) savefile.Value {
	t := make(savefile.Table, 0, MaxCosts)
	for _, v := range c {
		t = append(t, savefile.Int(v))
	}
	return savefile.Tab(t)
}

func playerRecord(p *Player) savefile.Table {
	rec := savefile.Table{savefile.Str("player"), savefile.Int(p.Index)}.
		AddKey("name", savefile.Str(p.Name)).
		AddKey("type", savefile.Str(p.Type.String())).
		AddKey("ai", savefile.Bool(p.AI)).
		AddKey("color", rgbaValue(p.MinimapColor)).
		AddKey("resources", costsValue(p.Resources)).
		AddKey("speed-build", savefile.Int(p.SpeedBuild)).
		AddKey("speed-train", savefile.Int(p.SpeedTrain)).
		AddKey("unit-limit", savefile.Int(p.UnitLimit)).
		AddKey("building-limit", savefile.Int(p.BuildingLimit)).
		AddKey("total-unit-limit", savefile.Int(p.TotalUnitLimit)).
		AddKey("allies", savefile.Int(int(p.Allies))).
		AddKey("shared-vision", savefile.Int(int(p.SharedVision)))
	if p.Faction != nil {
		rec = rec.AddKey("faction", savefile.Str(p.Faction.Ident))
	}
	for _, obj := range p.Objectives {
		if b, ok := obj.(*BuildUnitsObjective); ok {
			rec = rec.AddKey("objective", savefile.Tab(savefile.Table{
				savefile.Str("build-units"), savefile.Str(b.Type.Ident), savefile.Int(b.Quantity), savefile.Int(b.Counter),
			}))
		}
	}
	return rec
}

func settlementRecord(s *Settlement) savefile.Table {
	owner := -1
	if s.Owner != nil {
		owner = s.Owner.Index
	}
	return savefile.Table{savefile.Str("settlement"), savefile.Str(s.Ident)}.
		AddKey("name", savefile.Str(s.Name)).
		AddKey("center", posValue(s.Center)).
		AddKey("z", savefile.Int(s.Z)).
		AddKey("major", savefile.Bool(s.Major)).
		AddKey("owner", savefile.Int(owner)).
		AddKey("color", rgbaValue(s.Color))
}

func (w *World) unitRecord(u *Unit) savefile.Table {
	vars := make(savefile.Table, 0, 3*NumVariables)
	for _, v := range u.Variables {
		vars = append(vars, savefile.Int(v.Value), savefile.Int(v.Max), savefile.Bool(v.Enable))
	}
	rec := savefile.Table{savefile.Str("unit"), savefile.Str(u.Ref())}.
		AddKey("type", savefile.Str(u.Type.Ident)).
		AddKey("player", savefile.Int(u.Player.Index)).
		AddKey("pos", posValue(u.Pos)).
		AddKey("z", savefile.Int(u.Z)).
		AddKey("direction", savefile.Int(u.Direction)).
		AddKey("frame", savefile.Int(u.Frame)).
		AddKey("variation", savefile.Int(u.Variation)).
		AddKey("variables", savefile.Tab(vars)).
		AddKey("wait", savefile.Int(u.Wait))
	if u.UnderConstruction {
		rec = rec.Add(savefile.Str("under-construction"))
	}
	if u.Removed {
		rec = rec.Add(savefile.Str("removed"))
	}
	if u.supplied {
		rec = rec.Add(savefile.Str("supplied"))
	}
	if ref, ok := unitRefValue(w, u.Container); ok {
		rec = rec.AddKey("container", ref)
	}
	if u.TTL != 0 {
		rec = rec.AddKey("ttl", savefile.Int(u.TTL))
	}
	if u.HasRallyPoint {
		rec = rec.AddKey("rally-point", posValue(u.RallyPoint)).AddKey("rally-point-z", savefile.Int(u.RallyPointZ))
	}
	if u.CurrentResource != 0 {
		rec = rec.AddKey("current-resource", savefile.Str(CostName(u.CurrentResource)))
	}
	if u.ResourcesHeld != 0 {
		rec = rec.AddKey("resources-held", savefile.Int(u.ResourcesHeld))
	}
	if s := u.Settlement; s != nil && s.SiteUnit == u.Handle {
		rec = rec.AddKey("settlement", savefile.Str(s.Ident))
	}
	orders := make(savefile.Table, 0, len(u.Orders))
	for _, o := range u.Orders {
		orders = append(orders, savefile.Tab(o.Save(w, u)))
	}
	return rec.AddKey("orders", savefile.Tab(orders))
}

// LoadGame restores a world written by SaveGame. w must have its catalog loaded
// and hold no map or units yet.
func LoadGame(w *World, in io.Reader) error {
	dec := savefile.NewDecoder(in)
	var units []savefile.Table
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSave, err)
		}
		c := rec.Cursor()
		kind, err := c.String()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSave, err)
		}
		switch kind {
		case "game":
			err = w.parseGame(c)
		case "player":
			err = w.parsePlayer(c)
		case "settlement":
			err = w.parseSettlement(c)
		case "layer":
			err = w.parseLayer(c)
		case "row":
			err = w.parseRow(c)
		case "unit":
			units = append(units, rec)
		default:
			err = fmt.Errorf("unknown record %q", kind)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadSave, kind, err)
		}
	}

	// Units are created first so that references between them resolve.
	loaded := make([]*Unit, len(units))
	for i, rec := range units {
		u, err := w.parseUnit(rec)
		if err != nil {
			return fmt.Errorf("%w: unit: %v", ErrBadSave, err)
		}
		loaded[i] = u
	}
	for i, rec := range units {
		if err := w.parseUnitLinks(loaded[i], rec); err != nil {
			return fmt.Errorf("%w: unit %s: %v", ErrBadSave, loaded[i].Ref(), err)
		}
	}
	for z := range w.Map.Layers {
		w.rebuildTerritoryIndex(z)
	}
	return nil
}

func (w *World) parseGame(c *savefile.Cursor) error {
	for c.More() {
		key, err := c.String()
		if err != nil {
			return err
		}
		switch key {
		case "id":
			w.ID, err = c.String()
		case "cycle":
			w.Cycle, err = c.Int()
		case "seed":
			var n int
			n, err = c.Int()
			w.Rand.Seed = uint32(n)
		case "serials":
			w.Units.serials, err = c.Int()
		case "season":
			w.Season, err = c.String()
		case "this-player":
			var n int
			if n, err = c.Int(); err == nil {
				if n < 0 || n >= PlayerMax {
					return fmt.Errorf("player %d", n)
				}
				w.ThisPlayer = w.Players[n]
			}
		default:
			return fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readRGBA(c *savefile.Cursor) (color.RGBA, error) {
	t, err := c.Table()
	if err != nil {
		return color.RGBA{}, err
	}
	var ch [4]uint8
	tc := t.Cursor()
	for i := range ch {
		n, err := tc.Int()
		if err != nil {
			return color.RGBA{}, err
		}
		ch[i] = uint8(n)
	}
	return color.RGBA{ch[0], ch[1], ch[2], ch[3]}, nil
}

func readCosts(c *savefile.Cursor) (Costs, error) {
	var out Costs
	t, err := c.Table()
	if err != nil {
		return out, err
	}
	tc := t.Cursor()
	for i := 0; i < MaxCosts && tc.More(); i++ {
		if out[i], err = tc.Int(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (w *World) parsePlayer(c *savefile.Cursor) error {
	idx, err := c.Int()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= PlayerMax {
		return fmt.Errorf("player %d", idx)
	}
	p := w.Players[idx]
	for c.More() {
		key, err := c.String()
		if err != nil {
			return err
		}
		var n int
		switch key {
		case "name":
			p.Name, err = c.String()
		case "type":
			var s string
			if s, err = c.String(); err == nil {
				p.Type, err = ParsePlayerType(s)
			}
		case "ai":
			p.AI, err = c.Bool()
		case "color":
			p.MinimapColor, err = readRGBA(c)
		case "resources":
			p.Resources, err = readCosts(c)
		case "speed-build":
			p.SpeedBuild, err = c.Int()
		case "speed-train":
			p.SpeedTrain, err = c.Int()
		case "unit-limit":
			p.UnitLimit, err = c.Int()
		case "building-limit":
			p.BuildingLimit, err = c.Int()
		case "total-unit-limit":
			p.TotalUnitLimit, err = c.Int()
		case "allies":
			n, err = c.Int()
			p.Allies = uint32(n)
		case "shared-vision":
			n, err = c.Int()
			p.SharedVision = uint32(n)
		case "faction":
			var ident string
			if ident, err = c.String(); err == nil {
				if p.Faction = w.Faction(ident); p.Faction == nil {
					return fmt.Errorf("unknown faction %q", ident)
				}
			}
		case "objective":
			err = w.parseObjective(p, c)
		default:
			return fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (w *World) parseObjective(p *Player, c *savefile.Cursor) error {
	t, err := c.Table()
	if err != nil {
		return err
	}
	tc := t.Cursor()
	kind, err := tc.String()
	if err != nil {
		return err
	}
	if kind != "build-units" {
		return fmt.Errorf("unknown objective %q", kind)
	}
	ident, err := tc.String()
	if err != nil {
		return err
	}
	o := &BuildUnitsObjective{Type: w.UnitType(ident)}
	if o.Type == nil {
		return fmt.Errorf("%w: %q", ErrUnknownUnitType, ident)
	}
	if o.Quantity, err = tc.Int(); err != nil {
		return err
	}
	if o.Counter, err = tc.Int(); err != nil {
		return err
	}
	p.Objectives = append(p.Objectives, o)
	return nil
}

func (w *World) parseSettlement(c *savefile.Cursor) error {
	ident, err := c.String()
	if err != nil {
		return err
	}
	s := w.AddSettlement(ident, ident, Pos{}, 0, false, color.RGBA{})
	for c.More() {
		key, err := c.String()
		if err != nil {
			return err
		}
		switch key {
		case "name":
			s.Name, err = c.String()
		case "center":
			s.Center, err = readPos(c)
		case "z":
			s.Z, err = c.Int()
		case "major":
			s.Major, err = c.Bool()
		case "owner":
			var n int
			if n, err = c.Int(); err == nil && n >= 0 && n < PlayerMax {
				s.Owner = w.Players[n]
			}
		case "color":
			s.Color, err = readRGBA(c)
		default:
			return fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (w *World) parseLayer(c *savefile.Cursor) error {
	z, err := c.Int()
	if err != nil {
		return err
	}
	if z != len(w.Map.Layers) {
		return fmt.Errorf("layer %d out of order", z)
	}
	width, err := c.Int()
	if err != nil {
		return err
	}
	height, err := c.Int()
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("layer %d: bad size %dx%d", z, width, height)
	}
	w.Map.AddLayer(width, height, nil)
	return nil
}

func (w *World) parseRow(c *savefile.Cursor) error {
	z, err := c.Int()
	if err != nil {
		return err
	}
	y, err := c.Int()
	if err != nil {
		return err
	}
	if z < 0 || z >= len(w.Map.Layers) || y < 0 || y >= w.Map.Layers[z].Height {
		return fmt.Errorf("row %d of layer %d outside the map", y, z)
	}
	l := w.Map.Layers[z]
	for x := 0; x < l.Width; x++ {
		rec, err := c.Table()
		if err != nil {
			return fmt.Errorf("tile %d,%d: %w", x, y, err)
		}
		if err := l.Fields[y*l.Width+x].ParseRecord(rec, w); err != nil {
			return fmt.Errorf("tile %d,%d: %w", x, y, err)
		}
	}
	return nil
}

// parseUnit creates the unit described by rec without resolving references to
// other units.
func (w *World) parseUnit(rec savefile.Table) (*Unit, error) {
	c := rec.Cursor()
	c.Next() // "unit"
	ref, err := c.String()
	if err != nil {
		return nil, err
	}
	var serial int
	if _, err := fmt.Sscanf(ref, "U%X", &serial); err != nil {
		return nil, fmt.Errorf("bad reference %q", ref)
	}
	u, err := w.Units.Allocate()
	if err != nil {
		return nil, err
	}
	w.Units.restoreSerial(u, serial)
	u.Container = NoUnit
	u.Removed = true
	removed := false

	for c.More() {
		key, err := c.String()
		if err != nil {
			return nil, err
		}
		switch key {
		case "type":
			var ident string
			if ident, err = c.String(); err == nil {
				if u.Type = w.UnitType(ident); u.Type == nil {
					return nil, fmt.Errorf("%w: %q", ErrUnknownUnitType, ident)
				}
			}
		case "player":
			var n int
			if n, err = c.Int(); err == nil {
				if n < 0 || n >= PlayerMax {
					return nil, fmt.Errorf("player %d", n)
				}
				u.Player = w.Players[n]
			}
		case "pos":
			u.Pos, err = readPos(c)
		case "z":
			u.Z, err = c.Int()
		case "direction":
			u.Direction, err = c.Int()
		case "frame":
			u.Frame, err = c.Int()
		case "variation":
			u.Variation, err = c.Int()
		case "variables":
			err = readVariables(c, &u.Variables)
		case "wait":
			u.Wait, err = c.Int()
		case "under-construction":
			u.UnderConstruction = true
		case "removed":
			removed = true
		case "supplied":
			u.supplied = true
		case "ttl":
			u.TTL, err = c.Int()
		case "rally-point":
			u.RallyPoint, err = readPos(c)
			u.HasRallyPoint = true
		case "rally-point-z":
			u.RallyPointZ, err = c.Int()
		case "current-resource":
			var name string
			if name, err = c.String(); err == nil {
				u.CurrentResource = max(0, CostIndex(name))
			}
		case "resources-held":
			u.ResourcesHeld, err = c.Int()
		case "container", "settlement", "orders":
			_, err = c.Next() // resolved by parseUnitLinks
		default:
			return nil, fmt.Errorf("%s: unknown key %q", ref, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", ref, key, err)
		}
	}
	if u.Type == nil || u.Player == nil {
		return nil, fmt.Errorf("%s: missing type or player", ref)
	}
	w.assignToPlayer(u, u.Player)
	if !removed {
		w.PlaceUnit(u, u.Pos, u.Z)
	}
	return u, nil
}

func readVariables(c *savefile.Cursor, vars *[NumVariables]Variable) error {
	t, err := c.Table()
	if err != nil {
		return err
	}
	tc := t.Cursor()
	for i := 0; i < NumVariables && tc.More(); i++ {
		v := &vars[i]
		if v.Value, err = tc.Int(); err != nil {
			return err
		}
		if v.Max, err = tc.Int(); err != nil {
			return err
		}
		if v.Enable, err = tc.Bool(); err != nil {
			return err
		}
	}
	return nil
}

// parseUnitLinks restores the orders, container and settlement of u.
func (w *World) parseUnitLinks(u *Unit, rec savefile.Table) error {
	c := rec.Cursor()
	c.Next()
	c.Next()
	for c.More() {
		key, err := c.String()
		if err != nil {
			return err
		}
		switch key {
		case "under-construction", "removed", "supplied":
		case "container":
			u.Container, err = readUnitRef(w, c)
		case "settlement":
			var ident string
			if ident, err = c.String(); err == nil {
				s := w.SettlementByIdent(ident)
				if s == nil {
					return fmt.Errorf("unknown settlement %q", ident)
				}
				s.SiteUnit = u.Handle
				u.Settlement = s
			}
		case "orders":
			var t savefile.Table
			if t, err = c.Table(); err == nil {
				err = w.parseOrders(u, t)
			}
		default:
			_, err = c.Next()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if len(u.Orders) == 0 {
		u.ClearOrders()
	}
	return nil
}

func (w *World) parseOrders(u *Unit, t savefile.Table) error {
	u.Orders = u.Orders[:0]
	c := t.Cursor()
	for c.More() {
		rec, err := c.Table()
		if err != nil {
			return err
		}
		o, err := ParseOrder(w, rec, u)
		if err != nil {
			return err
		}
		u.Orders = append(u.Orders, o)
	}
	return nil
}

// rebuildTerritoryIndex recomputes the derived settlement data of layer z from
// the tile tags: territory rectangles, border tiles and ownership transitions.
func (w *World) rebuildTerritoryIndex(z int) {
	l := w.Map.Layers[z]
	for _, s := range w.Settlements {
		if s.Z == z {
			s.hasTerritory = false
			s.BorderTiles = nil
		}
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if s := w.Settlement(l.Fields[y*l.Width+x].Settlement); s != nil && s.Z == z {
				s.extend(Pos{x, y})
			}
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
