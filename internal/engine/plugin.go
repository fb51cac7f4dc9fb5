package engine

import (
	"context"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
)

// FrameInfo describes a finished frame. Slices are only valid during the
// OnFrame call.
type FrameInfo struct {
	Frame        uint64
	Transform    render.Transform
	View         geom.Rect
	Visible      []*asset.Item
	Dominant     *asset.Item
	UnderPointer *asset.Item
	Elapsed      time.Duration
	Stats        Stats
}

// Plugin observes the engine. Every hook runs on the driver goroutine and
// must not block.
type Plugin interface {
	// OnFrame runs after each frame has been drawn.
	OnFrame(info FrameInfo)
	// OnPointerMove runs when the pointer moved since the previous frame.
	// item is the visible item under the pointer, or nil.
	OnPointerMove(item *asset.Item)
	// OnAssetLoaded runs when a thumbnail or a high-res asset of item
	// became ready.
	OnAssetLoaded(item *asset.Item)
}

// Host is what the engine offers to plugins that need background work.
type Host interface {
	// Async runs task off the driver and runs the closure it returns back
	// on the driver.
	Async(task func(ctx context.Context) func())
}

// Attacher is implemented by plugins that want a Host.
type Attacher interface {
	Attach(h Host)
}
