package picking

import "github.com/Faultbox/retroscene/pkg/math"

// Rect is the on-screen bounding rectangle of the render surface, in the
// same units as pointer coordinates.
type Rect struct {
	Left, Top     float32
	Width, Height float32
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

// Normalize maps a pointer position to normalized device coordinates in
// [-1, 1] x [-1, 1] relative to rect, with +Y up. Points outside rect map
// outside that range. It returns false for an empty rectangle.
func Normalize(x, y float32, rect Rect) (math.Vec2, bool) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return math.Vec2{}, false
	}
	return math.Vec2{
		X: (x-rect.Left)/rect.Width*2 - 1,
		Y: -(y-rect.Top)/rect.Height*2 + 1,
	}, true
}
