package viewport

import (
	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
)

// DefaultBuffer is the prefetch margin, as a fraction of each viewport
// dimension added on every side.
const DefaultBuffer = 0.5

// Index answers range queries over gallery items.
type Index interface {
	Query(rng geom.Rect, scale float64) []*asset.Item
}

// Input is everything the analyzer needs for one frame.
type Input struct {
	Transform    render.Transform
	CanvasWidth  float64
	CanvasHeight float64

	// Buffer is the query margin fraction. Negative values are treated as 0.
	Buffer float64

	// Pointer is the last known pointer position in screen space.
	PointerX, PointerY float64
	HasPointer         bool
}

// Analysis is the per-frame result. Nothing in it is valid across frames.
type Analysis struct {
	// View is the visible world rectangle.
	View geom.Rect
	// Query is View expanded by the buffer.
	Query geom.Rect
	// Scale is the transform scale used for the query.
	Scale float64

	// Candidates are the items returned for Query, in index order.
	Candidates []*asset.Item
	// Visible are the candidates that truly intersect View.
	Visible []*asset.Item
	// Dominant is the visible item covering the largest part of View.
	Dominant *asset.Item
	// DominantArea is the world-space area of Dominant inside View.
	DominantArea float64
	// UnderPointer is the visible item containing the pointer.
	UnderPointer *asset.Item
}

// Analyzer computes the per-frame viewport analysis and maintains the
// Visible flag of items. It remembers the previous visible set only so that
// it can clear stale flags.
type Analyzer struct {
	visible []*asset.Item
}

// New creates an analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ViewRect returns the world rectangle shown by a canvas of the given size.
func ViewRect(t render.Transform, canvasWidth, canvasHeight float64) geom.Rect {
	x0, y0 := t.ToWorld(0, 0)
	x1, y1 := t.ToWorld(canvasWidth, canvasHeight)
	return geom.FromCorners(x0, y0, x1, y1)
}

// ScreenToWorld converts a screen point to world space.
func ScreenToWorld(t render.Transform, x, y float64) (float64, float64) {
	return t.ToWorld(x, y)
}

// WorldToScreen converts a world point to screen space.
func WorldToScreen(t render.Transform, x, y float64) (float64, float64) {
	return t.ToScreen(x, y)
}

// Analyze runs one frame of analysis against index. Visible flags of the
// previous frame's items are cleared before the new ones are set.
func (a *Analyzer) Analyze(index Index, in Input) Analysis {
	for _, it := range a.visible {
		it.Visible = false
	}

	buffer := in.Buffer
	if buffer < 0 {
		buffer = 0
	}

	res := Analysis{
		View:  ViewRect(in.Transform, in.CanvasWidth, in.CanvasHeight),
		Scale: in.Transform.Scale,
	}
	res.Query = res.View.Expand(buffer)

	if index != nil && !res.View.Empty() {
		res.Candidates = index.Query(res.Query, res.Scale)
	}

	var px, py float64
	if in.HasPointer {
		px, py = in.Transform.ToWorld(in.PointerX, in.PointerY)
	}

	for _, it := range res.Candidates {
		r := it.Bounds()
		if !res.View.Overlaps(r) {
			continue
		}
		it.Visible = true
		res.Visible = append(res.Visible, it)

		if overlap, ok := res.View.Intersection(r); ok {
			// Strictly greater keeps the first-seen item on ties.
			if area := overlap.Area(); area > res.DominantArea {
				res.Dominant = it
				res.DominantArea = area
			}
		}

		if in.HasPointer && res.UnderPointer == nil && r.ContainsPoint(px, py) {
			res.UnderPointer = it
		}
	}

	a.visible = res.Visible
	return res
}

// ScreenFraction returns the share of the canvas width covered by r once
// projected with t.
func ScreenFraction(t render.Transform, r geom.Rect, canvasWidth float64) float64 {
	if canvasWidth <= 0 {
		return 0
	}
	return r.W * t.Scale / canvasWidth
}
