package render

import (
	"image"
	"image/color"

	"gallery-streamer/internal/geom"
)

// Handle identifies a render-ready resource (a texture) owned by a Renderer.
// The zero Handle is never valid.
type Handle uint64

// Valid reports whether h refers to a resource.
func (h Handle) Valid() bool { return h != 0 }

// Transform maps world coordinates to screen coordinates:
//
//	screen = world*Scale + Origin
type Transform struct {
	Scale   float64 `json:"scale"`
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
}

// Identity is the transform with unit scale and no offset.
var Identity = Transform{Scale: 1}

// ToScreen converts a world point to screen space.
func (t Transform) ToScreen(x, y float64) (float64, float64) {
	return x*t.Scale + t.OriginX, y*t.Scale + t.OriginY
}

// ToWorld converts a screen point to world space.
func (t Transform) ToWorld(x, y float64) (float64, float64) {
	s := t.Scale
	if s == 0 {
		s = 1
	}
	return (x - t.OriginX) / s, (y - t.OriginY) / s
}

// RectToScreen converts a world rectangle to screen space.
func (t Transform) RectToScreen(r geom.Rect) geom.Rect {
	x, y := t.ToScreen(r.X, r.Y)
	return geom.NewRect(x, y, r.W*t.Scale, r.H*t.Scale)
}

// Renderer is the rendering collaborator. It owns the device resources
// behind each Handle; the streaming engine decides when they are created
// and released. All methods are called from the frame driver goroutine.
type Renderer interface {
	// Transform returns the current world-to-screen transform.
	Transform() Transform

	// CanvasSize returns the viewport size in screen units.
	CanvasSize() (width, height float64)

	// MaxTextureSize returns the largest width or height a single resource
	// may have.
	MaxTextureSize() int

	// CreateFromPixels builds a resource from tightly packed non-premultiplied
	// RGBA pixels. The renderer takes ownership of pix.
	CreateFromPixels(pix []byte, width, height int) (Handle, error)

	// CreateFromImage builds a resource from a decoded image.
	CreateFromImage(img image.Image) (Handle, error)

	// Release destroys the resource behind h. Releasing an unknown handle is
	// a no-op.
	Release(h Handle)

	// DrawRect draws the resource stretched over the screen rectangle.
	DrawRect(h Handle, x, y, w, h2 float64)

	// Draw executes a primitive drawing operation in screen space.
	Draw(op Op)
}

// Op is one of the closed set of primitive drawing operations: Fill,
// Stroke, Shadow and Dash.
type Op interface {
	isOp()
}

// Fill paints a solid screen rectangle.
type Fill struct {
	Rect  geom.Rect
	Color color.NRGBA
}

// Stroke outlines a screen rectangle.
type Stroke struct {
	Rect  geom.Rect
	Color color.NRGBA
	Width float64
}

// Shadow paints a translucent copy of a rectangle offset by (DX, DY).
type Shadow struct {
	Rect   geom.Rect
	Color  color.NRGBA
	DX, DY float64
}

// Dash outlines a rectangle with a dashed line.
type Dash struct {
	Rect    geom.Rect
	Color   color.NRGBA
	Width   float64
	Segment float64
	Gap     float64
}

func (Fill) isOp()   {}
func (Stroke) isOp() {}
func (Shadow) isOp() {}
func (Dash) isOp()   {}

// FrameBeginner is implemented by renderers that prepare their target
// before each frame is drawn.
type FrameBeginner interface {
	BeginFrame()
}
