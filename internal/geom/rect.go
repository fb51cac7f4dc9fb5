package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in world or screen space.
// X and Y locate the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// NewRect builds a rectangle from its top-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// FromCorners builds a rectangle spanning two corners.
func FromCorners(x0, y0, x1, y1 float64) Rect {
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// CenterX returns the horizontal midpoint.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical midpoint.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Area returns W*H, or zero for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Intersects reports whether r and o share a region of positive area.
// Rectangles that only touch along an edge or a corner do not intersect.
func (r Rect) Intersects(o Rect) bool {
	minX := math.Max(r.X, o.X)
	minY := math.Max(r.Y, o.Y)
	maxX := math.Min(r.MaxX(), o.MaxX())
	maxY := math.Min(r.MaxY(), o.MaxY())
	return maxX > minX && maxY > minY
}

// Intersection returns the overlapping region of r and o.
// The boolean is false when the overlap has no area.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	minX := math.Max(r.X, o.X)
	minY := math.Max(r.Y, o.Y)
	maxX := math.Min(r.MaxX(), o.MaxX())
	maxY := math.Min(r.MaxY(), o.MaxY())
	if maxX <= minX || maxY <= minY {
		return Rect{}, false
	}
	return FromCorners(minX, minY, maxX, maxY), true
}

// Contains reports whether o lies entirely inside r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// ContainsPoint reports whether (x, y) lies inside r, edges included.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.X && x <= r.MaxX() && y >= r.Y && y <= r.MaxY()
}

// Overlaps is Intersects for rectangles with area. A degenerate rectangle
// (zero width or height) overlaps r when r contains it.
func (r Rect) Overlaps(o Rect) bool {
	if o.Empty() {
		return r.Contains(o)
	}
	return r.Intersects(o)
}

// Expand grows every side by fraction times the matching dimension.
// A fraction of 0.5 doubles both width and height around the same center.
func (r Rect) Expand(fraction float64) Rect {
	dx := r.W * fraction
	dy := r.H * fraction
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

// Pad grows every side by a fixed amount.
func (r Rect) Pad(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return FromCorners(
		math.Min(r.X, o.X),
		math.Min(r.Y, o.Y),
		math.Max(r.MaxX(), o.MaxX()),
		math.Max(r.MaxY(), o.MaxY()),
	)
}

// Quadrants splits r into four equal children ordered NE, NW, SW, SE.
func (r Rect) Quadrants() [4]Rect {
	hw, hh := r.W/2, r.H/2
	return [4]Rect{
		{X: r.X + hw, Y: r.Y, W: hw, H: hh},
		{X: r.X, Y: r.Y, W: hw, H: hh},
		{X: r.X, Y: r.Y + hh, W: hw, H: hh},
		{X: r.X + hw, Y: r.Y + hh, W: hw, H: hh},
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.1f,%.1f %.1fx%.1f]", r.X, r.Y, r.W, r.H)
}
