package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
)

// DefaultMaxTextureSize is the largest texture edge accepted when none is
// configured.
const DefaultMaxTextureSize = 4096

var (
	// ErrTextureTooLarge is returned when a texture exceeds the maximum
	// texture size in either dimension.
	ErrTextureTooLarge = errors.New("texture exceeds maximum size")

	// ErrBadPixels is returned when a pixel buffer does not match its size.
	ErrBadPixels = errors.New("pixel buffer does not match dimensions")
)

// Background is the color the canvas is cleared to.
var Background = color.NRGBA{R: 0x12, G: 0x12, B: 0x14, A: 0xff}

// Stats describes the texture table.
type Stats struct {
	Textures     int   `json:"textures"`
	TextureBytes int64 `json:"textureBytes"`
	Created      int64 `json:"created"`
	Released     int64 `json:"released"`
	Width        int   `json:"width"`
	Height       int   `json:"height"`
}

// Renderer draws into an in-memory canvas. Textures live in a handle table
// and are scaled into place with bilinear filtering. It is not safe for
// concurrent use; the frame driver owns it.
type Renderer struct {
	canvas     *image.RGBA
	transform  render.Transform
	maxTexture int

	textures map[render.Handle]*image.NRGBA
	next     render.Handle
	bytes    int64
	created  int64
	released int64
}

// New creates a renderer with a width×height canvas.
func New(width, height, maxTexture int) *Renderer {
	if maxTexture <= 0 {
		maxTexture = DefaultMaxTextureSize
	}
	r := &Renderer{
		canvas:     image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
		transform:  render.Identity,
		maxTexture: maxTexture,
		textures:   make(map[render.Handle]*image.NRGBA),
	}
	r.BeginFrame()
	return r
}

// SetTransform sets the world-to-screen transform reported to the engine.
// A non-positive scale is ignored.
func (r *Renderer) SetTransform(t render.Transform) {
	if t.Scale <= 0 {
		return
	}
	r.transform = t
}

// SetCanvasSize reallocates the canvas.
func (r *Renderer) SetCanvasSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	r.BeginFrame()
}

func (r *Renderer) Transform() render.Transform { return r.transform }

func (r *Renderer) CanvasSize() (float64, float64) {
	b := r.canvas.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (r *Renderer) MaxTextureSize() int { return r.maxTexture }

// BeginFrame clears the canvas.
func (r *Renderer) BeginFrame() {
	draw.Draw(r.canvas, r.canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

// CreateFromPixels takes ownership of pix, a tightly packed NRGBA buffer.
func (r *Renderer) CreateFromPixels(pix []byte, width, height int) (render.Handle, error) {
	if width <= 0 || height <= 0 || len(pix) < 4*width*height {
		return 0, fmt.Errorf("%w: %d bytes for %dx%d", ErrBadPixels, len(pix), width, height)
	}
	tex := &image.NRGBA{Pix: pix[:4*width*height], Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
	return r.add(tex)
}

// CreateFromImage copies img into a new texture.
func (r *Renderer) CreateFromImage(img image.Image) (render.Handle, error) {
	if img == nil {
		return 0, fmt.Errorf("%w: nil image", ErrBadPixels)
	}
	return r.add(imaging.Clone(img))
}

func (r *Renderer) add(tex *image.NRGBA) (render.Handle, error) {
	b := tex.Bounds()
	if b.Dx() > r.maxTexture || b.Dy() > r.maxTexture {
		return 0, fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, b.Dx(), b.Dy(), r.maxTexture)
	}
	r.next++
	r.textures[r.next] = tex
	r.bytes += int64(len(tex.Pix))
	r.created++
	return r.next, nil
}

// Release frees a texture. Unknown handles are ignored.
func (r *Renderer) Release(h render.Handle) {
	tex, ok := r.textures[h]
	if !ok {
		return
	}
	r.bytes -= int64(len(tex.Pix))
	r.released++
	delete(r.textures, h)
}

// DrawRect scales the texture into the screen rectangle.
func (r *Renderer) DrawRect(h render.Handle, x, y, w, hh float64) {
	tex, ok := r.textures[h]
	if !ok {
		return
	}
	dst := pixelRect(geom.NewRect(x, y, w, hh))
	if dst.Empty() || !dst.Overlaps(r.canvas.Bounds()) {
		return
	}
	draw.ApproxBiLinear.Scale(r.canvas, dst, tex, tex.Bounds(), draw.Over, nil)
}

// Draw executes a primitive operation.
func (r *Renderer) Draw(op render.Op) {
	switch op := op.(type) {
	case render.Fill:
		r.fill(pixelRect(op.Rect), op.Color)
	case render.Shadow:
		r.fill(pixelRect(geom.NewRect(op.Rect.X+op.DX, op.Rect.Y+op.DY, op.Rect.W, op.Rect.H)), op.Color)
	case render.Stroke:
		for _, edge := range edges(op.Rect, op.Width) {
			r.fill(pixelRect(edge), op.Color)
		}
	case render.Dash:
		for _, seg := range dashes(op.Rect, op.Width, op.Segment, op.Gap) {
			r.fill(pixelRect(seg), op.Color)
		}
	}
}

func (r *Renderer) fill(rect image.Rectangle, c color.NRGBA) {
	if rect.Empty() {
		return
	}
	draw.Draw(r.canvas, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// Canvas returns the current canvas. It is overwritten by the next frame.
func (r *Renderer) Canvas() *image.RGBA {
	return r.canvas
}

// EncodePNG writes the canvas as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	return imaging.Encode(w, r.canvas, imaging.PNG)
}

// Stats returns texture table statistics.
func (r *Renderer) Stats() Stats {
	b := r.canvas.Bounds()
	return Stats{
		Textures:     len(r.textures),
		TextureBytes: r.bytes,
		Created:      r.created,
		Released:     r.released,
		Width:        b.Dx(),
		Height:       b.Dy(),
	}
}

func pixelRect(r geom.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.MaxX())),
		int(math.Ceil(r.MaxY())),
	)
}

// edges returns the four bands of an outline drawn inside r.
func edges(r geom.Rect, width float64) []geom.Rect {
	width = math.Max(width, 1)
	return []geom.Rect{
		geom.NewRect(r.X, r.Y, r.W, width),
		geom.NewRect(r.X, r.MaxY()-width, r.W, width),
		geom.NewRect(r.X, r.Y, width, r.H),
		geom.NewRect(r.MaxX()-width, r.Y, width, r.H),
	}
}

// dashes splits the outline of r into segments separated by gaps.
func dashes(r geom.Rect, width, segment, gap float64) []geom.Rect {
	width = math.Max(width, 1)
	if segment <= 0 {
		return edges(r, width)
	}
	gap = math.Max(gap, 0)

	var out []geom.Rect
	for x := r.X; x < r.MaxX(); x += segment + gap {
		w := math.Min(segment, r.MaxX()-x)
		out = append(out, geom.NewRect(x, r.Y, w, width), geom.NewRect(x, r.MaxY()-width, w, width))
	}
	for y := r.Y; y < r.MaxY(); y += segment + gap {
		h := math.Min(segment, r.MaxY()-y)
		out = append(out, geom.NewRect(r.X, y, width, h), geom.NewRect(r.MaxX()-width, y, width, h))
	}
	return out
}
