package game

// Pos is a tile coordinate within a map layer.
type Pos struct {
	X, Y int
}

// Add returns p+o.
func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y}
}

// Rect is an inclusive tile rectangle.
type Rect struct {
	Min, Max Pos
}

// Contains returns true if p lies inside the rectangle.
func (r Rect) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Extend grows the rectangle to include p.
func (r Rect) Extend(p Pos) Rect {
	r.Min.X = min(r.Min.X, p.X)
	r.Min.Y = min(r.Min.Y, p.Y)
	r.Max.X = max(r.Max.X, p.X)
	r.Max.Y = max(r.Max.Y, p.Y)
	return r
}

// Neighbours lists the eight adjacent offsets clockwise from north. The index of
// an offset is its bit in terrain.Tile.OwnershipBorder.
var Neighbours = [8]Pos{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Headings, in 0-255 direction units.
const (
	LookingN = 0 * 32
	LookingE = 2 * 32
	LookingS = 4 * 32
	LookingW = 6 * 32
)

// distanceToRect returns the Chebyshev distance from p to the rectangle at
// origin with size.
func distanceToRect(p, origin, size Pos) int {
	dx, dy := 0, 0
	switch {
	case p.X < origin.X:
		dx = origin.X - p.X
	case p.X >= origin.X+size.X:
		dx = p.X - (origin.X + size.X - 1)
	}
	switch {
	case p.Y < origin.Y:
		dy = origin.Y - p.Y
	case p.Y >= origin.Y+size.Y:
		dy = p.Y - (origin.Y + size.Y - 1)
	}
	return max(dx, dy)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
