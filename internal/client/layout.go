package client

import "image"

// Minimap placement on screen.
const (
	minimapX    = 24
	minimapY    = 24
	minimapEdge = 672
)

func minimapRect() image.Rectangle {
	return image.Rect(minimapX, minimapY, minimapX+minimapEdge, minimapY+minimapEdge)
}

// screenToMinimap maps a screen point inside rect to a pixel of a size x size
// minimap texture drawn scaled into rect.
func screenToMinimap(pt image.Point, rect image.Rectangle, size int) (image.Point, bool) {
	if size <= 0 || !pt.In(rect) {
		return image.Point{}, false
	}
	return image.Point{
		X: (pt.X - rect.Min.X) * size / rect.Dx(),
		Y: (pt.Y - rect.Min.Y) * size / rect.Dy(),
	}, true
}

// minimapToScreen maps a texture pixel area x0, y0, x1, y1 onto the screen.
func minimapToScreen(box [4]int, rect image.Rectangle, size int) image.Rectangle {
	if size <= 0 {
		return image.Rectangle{}
	}
	sx := func(x int) int { return rect.Min.X + x*rect.Dx()/size }
	sy := func(y int) int { return rect.Min.Y + y*rect.Dy()/size }
	return image.Rect(sx(box[0]), sy(box[1]), sx(box[2]), sy(box[3]))
}
