package terrain

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// PixelTileSize is the size in pixels of one tile frame in a terrain graphic.
var PixelTileSize = image.Point{X: 32, Y: 32}

// Graphic is a terrain tile sheet: frames laid out left to right, top to bottom.
type Graphic struct {
	Image       image.Image
	FrameWidth  int
	FrameHeight int
}

// NewGraphic wraps a decoded tile sheet.
func NewGraphic(img image.Image, frameWidth, frameHeight int) *Graphic {
	return &Graphic{Image: img, FrameWidth: frameWidth, FrameHeight: frameHeight}
}

// SolidGraphic returns a single-frame graphic filled with c. Used when a terrain
// type has no sheet loaded, so the minimap still has a colour to sample.
func SolidGraphic(c color.RGBA) *Graphic {
	img := image.NewRGBA(image.Rectangle{Max: PixelTileSize})
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return NewGraphic(img, PixelTileSize.X, PixelTileSize.Y)
}

// Columns returns the number of frames per sheet row.
func (g *Graphic) Columns() int {
	if g.FrameWidth <= 0 {
		return 1
	}
	cols := g.Image.Bounds().Dx() / g.FrameWidth
	if cols < 1 {
		return 1
	}
	return cols
}

// FramePixel samples pixel (x, y) inside frame. Out-of-range samples are clamped
// to the frame.
func (g *Graphic) FramePixel(frame, x, y int) color.RGBA {
	if frame < 0 {
		frame = 0
	}
	cols := g.Columns()
	x = clamp(x, 0, g.FrameWidth-1)
	y = clamp(y, 0, g.FrameHeight-1)
	b := g.Image.Bounds()
	px := b.Min.X + (frame%cols)*g.FrameWidth + x
	py := b.Min.Y + (frame/cols)*g.FrameHeight + y
	if !image.Pt(px, py).In(b) {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(g.Image.At(px, py)).(color.RGBA)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
