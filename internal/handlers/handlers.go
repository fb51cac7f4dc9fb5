package handlers

import (
	"context"
	"io"
	"time"

	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/render"
)

// Controller runs a function on the engine goroutine. *engine.Driver
// implements it.
type Controller interface {
	Do(ctx context.Context, fn func(*engine.Engine)) error
}

// StatsSource returns the stats published by the last frame.
type StatsSource interface {
	Snapshot() engine.Stats
}

// Canvas is the render target the control API steers. Its methods are only
// called from inside Controller.Do.
type Canvas interface {
	Transform() render.Transform
	SetTransform(t render.Transform)
	SetCanvasSize(width, height int)
	EncodePNG(w io.Writer) error
}

// ThumbStore backs the /thumbs endpoints.
type ThumbStore interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Put(ctx context.Context, id string, data []byte) error
}

// Options wires the handlers to the running gallery.
type Options struct {
	Driver Controller
	Stats  StatsSource
	Canvas Canvas
	// Thumbs may be nil, which disables /thumbs.
	Thumbs ThumbStore
	// Sources maps item IDs to local source files served by /media.
	Sources map[string]string
}

// Handlers serves the control and status API.
type Handlers struct {
	driver  Controller
	stats   StatsSource
	canvas  Canvas
	thumbs  ThumbStore
	sources map[string]string
	started time.Time
	log     *logging.Logger
}

// New creates the handlers.
func New(opts Options) *Handlers {
	sources := opts.Sources
	if sources == nil {
		sources = map[string]string{}
	}
	return &Handlers{
		driver:  opts.Driver,
		stats:   opts.Stats,
		canvas:  opts.Canvas,
		thumbs:  opts.Thumbs,
		sources: sources,
		started: time.Now(),
		log:     logging.For("api"),
	}
}
