package minimap

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

// nonLandAlpha is the opacity of territory colour on water and space tiles.
const nonLandAlpha = 128

// Display frames per half period of the attack blink.
const blinkFrames = 8

var (
	colorBlack = color.RGBA{A: 255}
	colorFog   = color.RGBA{A: 128}
	colorRed   = color.RGBA{R: 255, A: 255}
	colorGreen = color.RGBA{G: 255, A: 255}
	colorWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// withAlpha returns c at opacity a, premultiplied for image.RGBA.
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	n := color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
	return color.RGBAModel.Convert(n).(color.RGBA)
}

func (m *Minimap) updateTerritories(z int) {
	l := m.layer(z)
	if l == nil {
		return
	}
	for ry := 0; ry < l.scaledH; ry++ {
		for rx := 0; rx < l.scaledW; rx++ {
			m.UpdateTerritoryPixel(rx+l.xOffset, ry+l.yOffset, z)
		}
	}
}

// UpdateTerritoryPixel repaints texture pixel (mx, my) of layer z in the
// territory buffers. The land-only buffer leaves water and space transparent,
// the non-land buffer paints them with reduced opacity. The settlement buffer
// is only stamped where the tile shares its medium with the settlement's site.
func (m *Minimap) UpdateTerritoryPixel(mx, my, z int) {
	l := m.layer(z)
	if l == nil {
		return
	}
	pos, ok := l.tileAt(mx, my)
	if !ok {
		return
	}
	tile := m.world.Map.Field(pos, z)
	if tile == nil {
		return
	}

	var land, nonLand, site color.RGBA
	if owner := m.world.TileOwner(pos, z); owner != nil {
		c := owner.MinimapColor
		if tile.Category() == terrain.CategoryLand {
			land, nonLand = c, c
		} else {
			nonLand = withAlpha(c, nonLandAlpha)
		}
	}
	if s := m.world.Settlement(tile.Settlement); s != nil {
		if center := s.SiteTile(m.world); center != nil && center.Category() == tile.Category() {
			site = s.Color
		}
	}
	l.territories.SetRGBA(mx, my, land)
	l.territoriesWithNonLand.SetRGBA(mx, my, nonLand)
	l.settlements.SetRGBA(mx, my, site)
}

// UpdateTerritoryXY repaints the territory pixels of one tile.
func (m *Minimap) UpdateTerritoryXY(pos game.Pos, z int) {
	l := m.layer(z)
	if l == nil {
		return
	}
	l.forTile(pos, func(mx, my int) {
		m.UpdateTerritoryPixel(mx, my, z)
	})
}

// UpdateSettlementTerritory repaints every tile of the settlement's territory.
func (m *Minimap) UpdateSettlementTerritory(s *game.Settlement) {
	if !s.HasTerritory() {
		return
	}
	r := s.TerritoryRect
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			pos := game.Pos{X: x, Y: y}
			if tile := m.world.Map.Field(pos, s.Z); tile != nil && tile.Settlement == s.ID {
				m.UpdateTerritoryXY(pos, s.Z)
			}
		}
	}
}

// Update rebuilds the overlay of the current layer for display frame: the
// mode's cached buffer, then fog of war, then unit markers.
func (m *Minimap) Update(frame int) {
	l := m.layer(m.z)
	if l == nil {
		return
	}
	if src := l.modeOverlay(m.mode); src != nil {
		copy(l.overlay.Pix, src.Pix)
	} else {
		clear(l.overlay.Pix)
	}
	m.drawFog(l)
	if m.mode.ShowsUnits() {
		redPhase := (frame/blinkFrames)%2 == 0
		for _, u := range m.world.Units.Units() {
			m.DrawUnitOn(u, redPhase)
		}
	}
}

// drawFog blacks out unexplored tiles in every mode. Explored tiles out of
// sight are shaded only in modes that show fog.
func (m *Minimap) drawFog(l *layer) {
	w := m.world
	if w.ThisPlayer == nil || w.Settings.RevealMap {
		return
	}
	shade := m.mode.ShowsFog()
	mask := w.ThisPlayer.VisionMask()
	for ry := 0; ry < l.scaledH; ry++ {
		for rx := 0; rx < l.scaledW; rx++ {
			tile := w.Map.Field(game.Pos{X: l.pixelToTileX[rx], Y: l.pixelToTileY[ry]}, m.z)
			if tile == nil {
				continue
			}
			mx, my := rx+l.xOffset, ry+l.yOffset
			switch tile.VisibilityFor(mask) {
			case 0:
				l.overlay.SetRGBA(mx, my, colorBlack)
			case 1:
				if shade && l.overlay.RGBAAt(mx, my).A == 0 {
					l.overlay.SetRGBA(mx, my, colorFog)
				}
			}
		}
	}
}

// unitVisible returns true if the local player may see u on the minimap.
func (m *Minimap) unitVisible(u *game.Unit) bool {
	w := m.world
	if w.ThisPlayer == nil || w.Settings.RevealMap || w.ThisPlayer.IsAllied(u.Player) || u.Player == w.ThisPlayer {
		return true
	}
	mask := w.ThisPlayer.VisionMask()
	for dy := 0; dy < u.Type.TileSize.Y; dy++ {
		for dx := 0; dx < u.Type.TileSize.X; dx++ {
			tile := w.Map.Field(game.Pos{X: u.Pos.X + dx, Y: u.Pos.Y + dy}, u.Z)
			if tile == nil {
				continue
			}
			vis := tile.VisibilityFor(mask)
			if vis == 2 || (vis == 1 && u.Type.Building) {
				return true
			}
		}
	}
	return false
}

// UnitColor returns the marker colour of u. ok is false for units that are
// never drawn.
func (m *Minimap) UnitColor(u *game.Unit, redPhase bool) (c color.RGBA, ok bool) {
	if u.Type.Decoration || u.Type.Diminutive {
		return color.RGBA{}, false
	}
	w := m.world
	switch {
	case u.Player.IsNeutral():
		return u.Type.NeutralMinimapColor, true
	case u.Player == w.ThisPlayer:
		cps := w.Settings.CyclesPerSecond
		if u.Attacked != 0 && u.Attacked+7*cps > w.Cycle && (redPhase || u.Attacked+cps > w.Cycle) {
			return colorRed, true
		}
		if w.Settings.ShowSelected && u.Selected {
			return colorWhite, true
		}
		return colorGreen, true
	default:
		return u.Player.MinimapColor, true
	}
}

// DrawUnitOn paints u into the overlay of the current layer as a block covering
// its footprint.
func (m *Minimap) DrawUnitOn(u *game.Unit, redPhase bool) {
	l := m.layer(m.z)
	if l == nil || u.Z != m.z || u.Removed || !m.unitVisible(u) {
		return
	}
	c, ok := m.UnitColor(u, redPhase)
	if !ok {
		return
	}
	r := l.footprint(u.Pos, u.Type.TileSize)
	draw.Draw(l.overlay, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Compose returns a new image with the current layer's terrain and overlay
// blended, ready to present. The result shares no memory with the minimap.
func (m *Minimap) Compose() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.size, m.size))
	l := m.layer(m.z)
	if l == nil {
		return out
	}
	if m.mode.ShowsTerrain() {
		draw.Draw(out, out.Bounds(), l.terrain, image.Point{}, draw.Src)
	} else {
		draw.Draw(out, l.area(), image.NewUniform(colorBlack), image.Point{}, draw.Src)
	}
	draw.Draw(out, out.Bounds(), l.overlay, image.Point{}, draw.Over)
	return out
}

// TerritoryColor returns the pixel of the cached buffer of mode at (mx, my) on
// layer z.
func (m *Minimap) TerritoryColor(mode Mode, mx, my, z int) color.RGBA {
	l := m.layer(z)
	if l == nil {
		return color.RGBA{}
	}
	buf := l.modeOverlay(mode)
	if buf == nil {
		return color.RGBA{}
	}
	return buf.RGBAAt(mx, my)
}

// TerrainColor returns the terrain buffer pixel at (mx, my) on layer z.
func (m *Minimap) TerrainColor(mx, my, z int) color.RGBA {
	l := m.layer(z)
	if l == nil {
		return color.RGBA{}
	}
	return l.terrain.RGBAAt(mx, my)
}
