package asset

import (
	"fmt"

	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
)

// State is the thumbnail lifecycle of an item.
type State int

const (
	// StatePlaceholder means nothing is loaded and nothing is in flight.
	StatePlaceholder State = iota
	// StateLoading means exactly one thumbnail resolution is in flight.
	StateLoading
	// StateReady means a thumbnail handle is available for drawing.
	StateReady
	// StateError means every thumbnail tier failed. Retry returns the item
	// to StatePlaceholder.
	StateError
)

func (s State) String() string {
	switch s {
	case StatePlaceholder:
		return "placeholder"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HighResState is the lifecycle of the full-resolution tier of an item.
type HighResState int

const (
	// HighResNone means no full-resolution resource exists or is loading.
	HighResNone HighResState = iota
	// HighResLoading means a promotion is in flight.
	HighResLoading
	// HighResReady means the full-resolution handle or tiles are populated.
	HighResReady
	// HighResError means the last promotion failed.
	HighResError
)

func (s HighResState) String() string {
	switch s {
	case HighResNone:
		return "none"
	case HighResLoading:
		return "loading"
	case HighResReady:
		return "ready"
	case HighResError:
		return "error"
	default:
		return fmt.Sprintf("highres(%d)", int(s))
	}
}

// Tile is one piece of a full-resolution asset that was too large for a
// single resource. OffsetX/OffsetY and ScaleX/ScaleY are fractions of the
// parent item's draw box.
type Tile struct {
	Handle  render.Handle
	Col     int
	Row     int
	OffsetX float64
	OffsetY float64
	ScaleX  float64
	ScaleY  float64
}

// Box places the tile inside a parent rectangle.
func (t Tile) Box(parent geom.Rect) geom.Rect {
	return geom.NewRect(
		parent.X+t.OffsetX*parent.W,
		parent.Y+t.OffsetY*parent.H,
		t.ScaleX*parent.W,
		t.ScaleY*parent.H,
	)
}

// Details is optional metadata loaded on demand. Rendering never waits
// for it.
type Details struct {
	Title    string            `json:"title,omitempty"`
	Size     int64             `json:"size,omitempty"`
	MimeType string            `json:"mimeType,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Item is one gallery asset. Its rectangle comes from the layout step; its
// state machines are driven by the streaming engine on the frame driver
// goroutine only.
type Item struct {
	ID string

	// Rect is the world-space box assigned by layout.
	Rect geom.Rect

	// SourceURL locates the full-resolution asset.
	SourceURL string

	// ThumbnailURL locates a pre-built remote thumbnail, if one exists.
	ThumbnailURL string

	// DetailsURL locates a JSON metadata document, if one exists.
	DetailsURL string

	// OriginalWidth and OriginalHeight are the native decoded dimensions,
	// zero until known.
	OriginalWidth  int
	OriginalHeight int

	// Visible is recomputed every frame and only affects scheduling order.
	Visible bool

	// Details is nil until loaded.
	Details *Details

	state     State
	thumbnail render.Handle
	lastErr   error

	highRes       HighResState
	highResHandle render.Handle
	tiles         []Tile
	highResErr    error
}

// New creates a placeholder item.
func New(id string, rect geom.Rect, sourceURL string) *Item {
	return &Item{ID: id, Rect: rect, SourceURL: sourceURL}
}

// Bounds returns the world rectangle. It lets items live in the spatial index.
func (it *Item) Bounds() geom.Rect { return it.Rect }

// State returns the thumbnail state.
func (it *Item) State() State { return it.state }

// Thumbnail returns the thumbnail handle. It is valid only in StateReady.
func (it *Item) Thumbnail() render.Handle { return it.thumbnail }

// Err returns the error that moved the item to StateError.
func (it *Item) Err() error { return it.lastErr }

// HighRes returns the full-resolution state.
func (it *Item) HighRes() HighResState { return it.highRes }

// HighResHandle returns the single full-resolution handle, if not tiled.
func (it *Item) HighResHandle() render.Handle { return it.highResHandle }

// Tiles returns the full-resolution tiles, if tiled.
func (it *Item) Tiles() []Tile { return it.tiles }

// HighResErr returns the error from the last failed promotion.
func (it *Item) HighResErr() error { return it.highResErr }

// BeginLoad moves a placeholder to StateLoading.
func (it *Item) BeginLoad() error {
	if it.state != StatePlaceholder {
		return transitionError(it.ID, it.state.String(), StateLoading.String())
	}
	it.state = StateLoading
	it.lastErr = nil
	return nil
}

// CompleteLoad stores the thumbnail handle and native size and marks the
// item ready.
func (it *Item) CompleteLoad(h render.Handle, width, height int) error {
	if it.state != StateLoading {
		return transitionError(it.ID, it.state.String(), StateReady.String())
	}
	it.state = StateReady
	it.thumbnail = h
	if width > 0 && height > 0 && it.OriginalWidth == 0 {
		it.OriginalWidth = width
		it.OriginalHeight = height
	}
	return nil
}

// FailLoad records a terminal failure of every thumbnail tier.
func (it *Item) FailLoad(err error) error {
	if it.state != StateLoading {
		return transitionError(it.ID, it.state.String(), StateError.String())
	}
	it.state = StateError
	it.lastErr = err
	return nil
}

// CancelLoad abandons an in-flight load whose result is no longer wanted.
// The item goes back to StatePlaceholder.
func (it *Item) CancelLoad() error {
	if it.state != StateLoading {
		return transitionError(it.ID, it.state.String(), StatePlaceholder.String())
	}
	it.state = StatePlaceholder
	return nil
}

// Retry returns a failed item to StatePlaceholder so it can be scheduled
// again.
func (it *Item) Retry() error {
	if it.state != StateError {
		return transitionError(it.ID, it.state.String(), StatePlaceholder.String())
	}
	it.state = StatePlaceholder
	it.lastErr = nil
	return nil
}

// ReleaseThumbnail drops a ready thumbnail, returning the handle the caller
// must release. The item goes back to StatePlaceholder.
func (it *Item) ReleaseThumbnail() (render.Handle, error) {
	if it.state != StateReady {
		return 0, transitionError(it.ID, it.state.String(), StatePlaceholder.String())
	}
	h := it.thumbnail
	it.thumbnail = 0
	it.state = StatePlaceholder
	return h, nil
}

// BeginHighRes starts a promotion. Only one may be in flight. A failed
// promotion may be started again.
func (it *Item) BeginHighRes() error {
	if it.highRes != HighResNone && it.highRes != HighResError {
		return transitionError(it.ID, it.highRes.String(), HighResLoading.String())
	}
	it.highRes = HighResLoading
	it.highResErr = nil
	return nil
}

// CompleteHighRes stores either a single handle or a tile set.
func (it *Item) CompleteHighRes(h render.Handle, tiles []Tile, width, height int) error {
	if it.highRes != HighResLoading {
		return transitionError(it.ID, it.highRes.String(), HighResReady.String())
	}
	it.highRes = HighResReady
	it.highResHandle = h
	it.tiles = tiles
	if width > 0 && height > 0 {
		it.OriginalWidth = width
		it.OriginalHeight = height
	}
	return nil
}

// FailHighRes records a failed promotion.
func (it *Item) FailHighRes(err error) error {
	if it.highRes != HighResLoading {
		return transitionError(it.ID, it.highRes.String(), HighResError.String())
	}
	it.highRes = HighResError
	it.highResErr = err
	return nil
}

// CancelHighRes abandons an in-flight promotion.
func (it *Item) CancelHighRes() error {
	if it.highRes != HighResLoading {
		return transitionError(it.ID, it.highRes.String(), HighResNone.String())
	}
	it.highRes = HighResNone
	return nil
}

// EvictHighRes moves a ready item back to HighResNone and returns every
// handle the caller must release.
func (it *Item) EvictHighRes() ([]render.Handle, error) {
	if it.highRes != HighResReady {
		return nil, transitionError(it.ID, it.highRes.String(), HighResNone.String())
	}
	var handles []render.Handle
	if it.highResHandle.Valid() {
		handles = append(handles, it.highResHandle)
	}
	for _, t := range it.tiles {
		if t.Handle.Valid() {
			handles = append(handles, t.Handle)
		}
	}
	it.highRes = HighResNone
	it.highResHandle = 0
	it.tiles = nil
	return handles, nil
}

// DrawRect returns the box the item's image occupies. Once the native size
// is known the image is fitted inside the layout box and centered, so an
// estimated box never distorts the aspect ratio.
func (it *Item) DrawRect() geom.Rect {
	r := it.Rect
	if it.OriginalWidth <= 0 || it.OriginalHeight <= 0 || r.Empty() {
		return r
	}
	native := float64(it.OriginalWidth) / float64(it.OriginalHeight)
	box := r.W / r.H
	if native > box {
		h := r.W / native
		return geom.NewRect(r.X, r.Y+(r.H-h)/2, r.W, h)
	}
	w := r.H * native
	return geom.NewRect(r.X+(r.W-w)/2, r.Y, w, r.H)
}

func (it *Item) String() string {
	return fmt.Sprintf("item(%s %s %s/%s)", it.ID, it.Rect, it.state, it.highRes)
}
