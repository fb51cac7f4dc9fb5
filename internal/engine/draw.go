package engine

import (
	"image/color"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
	"gallery-streamer/internal/viewport"
)

var (
	placeholderColor = color.NRGBA{R: 0x2a, G: 0x2a, B: 0x2e, A: 0xff}
	errorFillColor   = color.NRGBA{R: 0x3a, G: 0x1c, B: 0x1c, A: 0xff}
	errorLineColor   = color.NRGBA{R: 0xd9, G: 0x53, B: 0x4f, A: 0xff}
	shadowColor      = color.NRGBA{A: 0x60}
	highlightColor   = color.NRGBA{R: 0x4f, G: 0x9d, B: 0xff, A: 0xff}
)

const (
	shadowOffset   = 3
	highlightWidth = 2
	dashWidth      = 1.5
	dashSegment    = 6
	dashGap        = 4
)

// draw issues the draw calls for the visible set. High-res assets win over
// thumbnails; items without an image get a placeholder, and failed items
// a dashed outline on top of it.
func (e *Engine) draw(a viewport.Analysis) {
	if fb, ok := e.renderer.(render.FrameBeginner); ok {
		fb.BeginFrame()
	}
	for _, it := range a.Visible {
		box := e.transform.RectToScreen(it.DrawRect())

		switch {
		case it.HighRes() == asset.HighResReady:
			e.highRes.Touch(it.ID)
			e.renderer.Draw(render.Shadow{Rect: box, Color: shadowColor, DX: shadowOffset, DY: shadowOffset})
			e.drawHighRes(it, box)
		case it.State() == asset.StateReady:
			e.renderer.Draw(render.Shadow{Rect: box, Color: shadowColor, DX: shadowOffset, DY: shadowOffset})
			e.renderer.DrawRect(it.Thumbnail(), box.X, box.Y, box.W, box.H)
		case it.State() == asset.StateError:
			e.renderer.Draw(render.Fill{Rect: box, Color: errorFillColor})
			e.renderer.Draw(render.Dash{Rect: box, Color: errorLineColor, Width: dashWidth, Segment: dashSegment, Gap: dashGap})
		default:
			e.renderer.Draw(render.Fill{Rect: box, Color: placeholderColor})
		}

		if it == a.UnderPointer {
			e.renderer.Draw(render.Stroke{Rect: box, Color: highlightColor, Width: highlightWidth})
		}
	}
}

func (e *Engine) drawHighRes(it *asset.Item, box geom.Rect) {
	tiles := it.Tiles()
	if len(tiles) == 0 {
		h := it.HighResHandle()
		e.renderer.DrawRect(h, box.X, box.Y, box.W, box.H)
		return
	}
	for _, t := range tiles {
		b := t.Box(box)
		e.renderer.DrawRect(t.Handle, b.X, b.Y, b.W, b.H)
	}
}
