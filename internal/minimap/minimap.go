// Package minimap keeps a downsampled raster of the map in step with tile,
// territory and unit changes. All methods run on the simulation goroutine;
// callers that hand frames to other goroutines use Compose, which copies.
package minimap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"ironhold/internal/game"
	"ironhold/internal/terrain"
)

// scaleFactor is the fixed-point denominator of a layer's scale: a layer with
// scale s draws s/scaleFactor minimap pixels per tile.
const scaleFactor = 48

// Maps smaller than this are scaled as if they had this edge, so tiny maps do
// not fill the whole texture.
const minScaledEdge = 32

// DefaultSize is the default texture edge in pixels.
const DefaultSize = 256

// sampleOffset is the pixel of a 32x32 tile frame whose colour represents the
// tile. It is scaled to the actual frame size.
var sampleOffset = image.Point{X: 7, Y: 6}

var _ game.MinimapUpdater = (*Minimap)(nil)

// layer holds the lookup tables and raster buffers of one map layer.
type layer struct {
	width, height    int
	scale            int
	xOffset, yOffset int
	scaledW, scaledH int

	// pixelToTile tables are indexed by minimap pixel relative to the offset.
	pixelToTileX []int
	pixelToTileY []int
	// tileToPixel tables give the first minimap pixel, relative to the offset,
	// whose bucket starts at or after the tile.
	tileToPixelX []int
	tileToPixelY []int

	terrain *image.RGBA
	overlay *image.RGBA

	territories            *image.RGBA
	territoriesWithNonLand *image.RGBA
	settlements            *image.RGBA
}

func newLayer(width, height, size int) *layer {
	l := &layer{width: width, height: height}
	l.scale = size * scaleFactor / max(width, height, minScaledEdge)
	l.scaledW = min(size, width*l.scale/scaleFactor)
	l.scaledH = min(size, height*l.scale/scaleFactor)
	l.xOffset = (size - l.scaledW + 1) / 2
	l.yOffset = (size - l.scaledH + 1) / 2

	l.pixelToTileX = make([]int, l.scaledW)
	for i := range l.pixelToTileX {
		l.pixelToTileX[i] = i * scaleFactor / l.scale
	}
	l.pixelToTileY = make([]int, l.scaledH)
	for i := range l.pixelToTileY {
		l.pixelToTileY[i] = i * scaleFactor / l.scale
	}
	l.tileToPixelX = make([]int, width+1)
	for i := range l.tileToPixelX {
		l.tileToPixelX[i] = (i*l.scale + scaleFactor - 1) / scaleFactor
	}
	l.tileToPixelY = make([]int, height+1)
	for i := range l.tileToPixelY {
		l.tileToPixelY[i] = (i*l.scale + scaleFactor - 1) / scaleFactor
	}

	bounds := image.Rect(0, 0, size, size)
	l.terrain = image.NewRGBA(bounds)
	l.overlay = image.NewRGBA(bounds)
	l.territories = image.NewRGBA(bounds)
	l.territoriesWithNonLand = image.NewRGBA(bounds)
	l.settlements = image.NewRGBA(bounds)
	return l
}

// area is the part of the minimap covered by the map.
func (l *layer) area() image.Rectangle {
	return image.Rect(l.xOffset, l.yOffset, l.xOffset+l.scaledW, l.yOffset+l.scaledH)
}

// footprint is the minimap block of a size footprint at pos: at least one pixel
// wide and never past the last map pixel.
func (l *layer) footprint(pos, size game.Pos) image.Rectangle {
	x0 := min(l.tileToPixelX[min(max(pos.X, 0), l.width)], l.scaledW-1)
	y0 := min(l.tileToPixelY[min(max(pos.Y, 0), l.height)], l.scaledH-1)
	x1 := min(l.tileToPixelX[min(max(pos.X+size.X, 0), l.width)], l.scaledW)
	y1 := min(l.tileToPixelY[min(max(pos.Y+size.Y, 0), l.height)], l.scaledH)
	x1, y1 = max(x1, x0+1), max(y1, y0+1)
	return image.Rect(x0+l.xOffset, y0+l.yOffset, x1+l.xOffset, y1+l.yOffset)
}

func (l *layer) modeOverlay(m Mode) *image.RGBA {
	switch m {
	case ModeTerritories:
		return l.territories
	case ModeTerritoriesWithNonLand:
		return l.territoriesWithNonLand
	case ModeSettlements:
		return l.settlements
	}
	return nil
}

// forTile calls fn with the texture coordinates of every minimap pixel showing
// pos. The lookup tables are monotonic, so the scan stops once past the tile.
func (l *layer) forTile(pos game.Pos, fn func(mx, my int)) {
	for ry := 0; ry < l.scaledH; ry++ {
		ty := l.pixelToTileY[ry]
		if ty < pos.Y {
			continue
		}
		if ty > pos.Y {
			break
		}
		for rx := 0; rx < l.scaledW; rx++ {
			tx := l.pixelToTileX[rx]
			if tx < pos.X {
				continue
			}
			if tx > pos.X {
				break
			}
			fn(rx+l.xOffset, ry+l.yOffset)
		}
	}
}

// tileAt returns the tile shown at texture pixel (mx, my).
func (l *layer) tileAt(mx, my int) (game.Pos, bool) {
	rx, ry := mx-l.xOffset, my-l.yOffset
	if rx < 0 || ry < 0 || rx >= l.scaledW || ry >= l.scaledH {
		return game.Pos{}, false
	}
	return game.Pos{X: l.pixelToTileX[rx], Y: l.pixelToTileY[ry]}, true
}

// Minimap is the minimap of a world.
type Minimap struct {
	world  *game.World
	size   int
	mode   Mode
	z      int
	layers []*layer
	log    *logrus.Entry
}

// Create builds lookup tables and buffers for every layer of w, paints the
// terrain and territory buffers once and registers the minimap with w. size is
// the texture edge and must be a power of two.
func Create(w *game.World, size int, log *logrus.Entry) (*Minimap, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTextureSize, size)
	}
	if log == nil {
		log = w.Log
	}
	m := &Minimap{world: w, size: size, log: log}
	for z, gl := range w.Map.Layers {
		l := newLayer(gl.Width, gl.Height, size)
		m.layers = append(m.layers, l)
		m.log.Debugf("minimap layer %d: %dx%d tiles, scale %d/%d, offset %d,%d",
			z, gl.Width, gl.Height, l.scale, scaleFactor, l.xOffset, l.yOffset)
		m.UpdateTerrain(z)
		m.updateTerritories(z)
	}
	w.Minimap = m
	return m, nil
}

// Size returns the texture edge in pixels.
func (m *Minimap) Size() int {
	return m.size
}

// Mode returns the current presentation.
func (m *Minimap) Mode() Mode {
	return m.mode
}

// SetMode switches to mode.
func (m *Minimap) SetMode(mode Mode) {
	if mode < 0 || mode >= numModes {
		return
	}
	m.mode = mode
}

// ToggleMode advances to the next presentation and returns it.
func (m *Minimap) ToggleMode() Mode {
	m.mode = m.mode.Next()
	return m.mode
}

// Layer returns the map layer shown.
func (m *Minimap) Layer() int {
	return m.z
}

// SetLayer selects the map layer shown.
func (m *Minimap) SetLayer(z int) {
	if z >= 0 && z < len(m.layers) {
		m.z = z
	}
}

func (m *Minimap) layer(z int) *layer {
	if z < 0 || z >= len(m.layers) {
		return nil
	}
	return m.layers[z]
}

// PixelToTile returns the tile shown at texture pixel (mx, my) of the current
// layer. ok is false for pixels outside the map area.
func (m *Minimap) PixelToTile(mx, my int) (game.Pos, bool) {
	l := m.layer(m.z)
	if l == nil {
		return game.Pos{}, false
	}
	return l.tileAt(mx, my)
}

// TileToPixel returns the texture pixel of the top left corner of pos on the
// current layer, clamped to the map area.
func (m *Minimap) TileToPixel(pos game.Pos) image.Point {
	l := m.layer(m.z)
	if l == nil {
		return image.Point{}
	}
	x := min(max(pos.X, 0), l.width-1)
	y := min(max(pos.Y, 0), l.height-1)
	return image.Point{
		X: min(l.tileToPixelX[x], l.scaledW-1) + l.xOffset,
		Y: min(l.tileToPixelY[y], l.scaledH-1) + l.yOffset,
	}
}

// ScreenToTile maps a click at pt on a minimap drawn into rect to a tile.
func (m *Minimap) ScreenToTile(pt image.Point, rect image.Rectangle) (game.Pos, bool) {
	if !pt.In(rect) || rect.Dx() == 0 || rect.Dy() == 0 {
		return game.Pos{}, false
	}
	mx := (pt.X - rect.Min.X) * m.size / rect.Dx()
	my := (pt.Y - rect.Min.Y) * m.size / rect.Dy()
	return m.PixelToTile(mx, my)
}

// UpdateTerrain repaints the whole terrain buffer of layer z.
func (m *Minimap) UpdateTerrain(z int) {
	l := m.layer(z)
	if l == nil {
		return
	}
	for ry := 0; ry < l.scaledH; ry++ {
		for rx := 0; rx < l.scaledW; rx++ {
			pos := game.Pos{X: l.pixelToTileX[rx], Y: l.pixelToTileY[ry]}
			l.terrain.SetRGBA(rx+l.xOffset, ry+l.yOffset, m.terrainColor(m.world.Map.Field(pos, z)))
		}
	}
}

// UpdateXY repaints the terrain and territory pixels of one tile.
func (m *Minimap) UpdateXY(pos game.Pos, z int) {
	l := m.layer(z)
	if l == nil {
		return
	}
	tile := m.world.Map.Field(pos, z)
	if tile == nil {
		return
	}
	c := m.terrainColor(tile)
	l.forTile(pos, func(mx, my int) {
		l.terrain.SetRGBA(mx, my, c)
		m.UpdateTerritoryPixel(mx, my, z)
	})
}

// terrainColor samples the tile's seen terrain. An overlay whose sample is
// transparent shows the base terrain instead.
func (m *Minimap) terrainColor(tile *terrain.Tile) color.RGBA {
	if tile == nil {
		return color.RGBA{}
	}
	season := m.world.Season
	base := tile.SeenTerrain()
	baseFrame, overlayFrame := tile.SeenSolidTiles()
	if o := tile.SeenOverlay(); o != nil {
		if c := sample(o, overlayFrame, season); c.A != 0 {
			return c
		}
	}
	return sample(base, baseFrame, season)
}

func sample(t *terrain.Type, frame int, season string) color.RGBA {
	if t == nil {
		return color.RGBA{}
	}
	g := t.Graphic(season)
	if g == nil {
		return color.RGBA{}
	}
	x := sampleOffset.X * g.FrameWidth / terrain.PixelTileSize.X
	y := sampleOffset.Y * g.FrameHeight / terrain.PixelTileSize.Y
	return g.FramePixel(frame, x, y)
}
