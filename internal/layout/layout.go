package layout

import (
	"fmt"
	"math"
	"strings"

	"gallery-streamer/internal/geom"
)

// Kind selects a layout algorithm.
type Kind string

const (
	KindGrid      Kind = "grid"
	KindJustified Kind = "justified"
)

// ParseKind accepts "grid" or "justified", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGrid, KindJustified:
		return k, nil
	default:
		return "", fmt.Errorf("unknown layout %q", s)
	}
}

// Entry is one asset to place. Width and Height are the native size, or
// zero when unknown, in which case the entry is treated as square.
type Entry struct {
	ID     string
	Width  int
	Height int
}

func (e Entry) aspect() float64 {
	if e.Width <= 0 || e.Height <= 0 {
		return 1
	}
	return float64(e.Width) / float64(e.Height)
}

// Options configures both layouts.
type Options struct {
	// Width is the world width of the gallery.
	Width float64
	// Gap separates neighbouring boxes.
	Gap float64
	// CellSize is the square cell of the grid layout.
	CellSize float64
	// RowHeight is the target row height of the justified layout.
	RowHeight float64
}

// DefaultOptions returns a 4000-unit wide gallery.
func DefaultOptions() Options {
	return Options{Width: 4000, Gap: 8, CellSize: 256, RowHeight: 240}
}

// Apply places entries with the given algorithm. The result is parallel to
// entries.
func Apply(kind Kind, entries []Entry, opts Options) []geom.Rect {
	if kind == KindGrid {
		return Grid(entries, opts)
	}
	return Justified(entries, opts)
}

// Grid places entries in square cells, as many per row as fit the width.
func Grid(entries []Entry, opts Options) []geom.Rect {
	cell := opts.CellSize
	if cell <= 0 {
		cell = DefaultOptions().CellSize
	}
	cols := int((opts.Width + opts.Gap) / (cell + opts.Gap))
	if cols < 1 {
		cols = 1
	}

	out := make([]geom.Rect, len(entries))
	for i := range entries {
		col, row := i%cols, i/cols
		out[i] = geom.NewRect(
			float64(col)*(cell+opts.Gap),
			float64(row)*(cell+opts.Gap),
			cell,
			cell,
		)
	}
	return out
}

// Justified fills rows edge to edge. Entries are added to a row until
// scaling it to the full width would make it no taller than RowHeight; the
// last row keeps RowHeight and is left-aligned.
func Justified(entries []Entry, opts Options) []geom.Rect {
	target := opts.RowHeight
	if target <= 0 {
		target = DefaultOptions().RowHeight
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultOptions().Width
	}

	out := make([]geom.Rect, len(entries))
	y := 0.0
	start := 0
	sum := 0.0

	for i, e := range entries {
		sum += e.aspect()
		n := i - start + 1
		h := (width - opts.Gap*float64(n-1)) / sum
		if h > target {
			continue
		}
		placeRow(out, entries[start:i+1], start, y, h, opts.Gap)
		y += h + opts.Gap
		start = i + 1
		sum = 0
	}
	if start < len(entries) {
		placeRow(out, entries[start:], start, y, target, opts.Gap)
	}
	return out
}

func placeRow(out []geom.Rect, row []Entry, offset int, y, h, gap float64) {
	x := 0.0
	for j, e := range row {
		w := e.aspect() * h
		out[offset+j] = geom.NewRect(x, y, w, h)
		x += w + gap
	}
}

// Bounds returns the rectangle covering every box.
func Bounds(rects []geom.Rect) geom.Rect {
	var b geom.Rect
	for i, r := range rects {
		if i == 0 {
			b = r
			continue
		}
		b = b.Union(r)
	}
	return b
}

// Fit returns the transform scale and origin that show the whole of world
// centered in a canvas.
func Fit(world geom.Rect, canvasWidth, canvasHeight float64) (scale, originX, originY float64) {
	if world.Empty() || canvasWidth <= 0 || canvasHeight <= 0 {
		return 1, 0, 0
	}
	scale = math.Min(canvasWidth/world.W, canvasHeight/world.H)
	originX = (canvasWidth-world.W*scale)/2 - world.X*scale
	originY = (canvasHeight-world.H*scale)/2 - world.Y*scale
	return scale, originX, originY
}
