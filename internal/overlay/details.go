package overlay

import (
	"context"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/pipeline"
)

// DefaultDetailsTimeout bounds a single details fetch.
const DefaultDetailsTimeout = 10 * time.Second

// DetailsResolver loads metadata for an item.
type DetailsResolver interface {
	ResolveDetails(ctx context.Context, req pipeline.DetailsRequest) (*asset.Details, error)
}

// DetailsLoader fetches details for the item under the pointer the first
// time it is hovered. Rendering never waits for it. A failed fetch is not
// retried.
type DetailsLoader struct {
	resolver DetailsResolver
	host     engine.Host
	timeout  time.Duration

	inFlight map[string]bool
	failed   map[string]bool
	loaded   int

	log *logging.Logger
}

// NewDetailsLoader creates a loader. It does nothing until attached to an
// engine.
func NewDetailsLoader(resolver DetailsResolver) *DetailsLoader {
	return &DetailsLoader{
		resolver: resolver,
		timeout:  DefaultDetailsTimeout,
		inFlight: make(map[string]bool),
		failed:   make(map[string]bool),
		log:      logging.For("details"),
	}
}

// Attach implements engine.Attacher.
func (l *DetailsLoader) Attach(h engine.Host) {
	l.host = h
}

// OnPointerMove starts a fetch for a newly hovered item.
func (l *DetailsLoader) OnPointerMove(item *asset.Item) {
	if item == nil || l.host == nil || item.Details != nil {
		return
	}
	if l.inFlight[item.ID] || l.failed[item.ID] {
		return
	}
	l.inFlight[item.ID] = true

	req := pipeline.DetailsRequest{
		ID:         item.ID,
		DetailsURL: item.DetailsURL,
		Width:      item.OriginalWidth,
		Height:     item.OriginalHeight,
	}
	timeout := l.timeout
	l.host.Async(func(ctx context.Context) func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		d, err := l.resolver.ResolveDetails(ctx, req)
		return func() {
			delete(l.inFlight, req.ID)
			if err != nil {
				l.failed[req.ID] = true
				l.log.Debug("%s: details unavailable: %v", req.ID, err)
				return
			}
			item.Details = d
			l.loaded++
		}
	})
}

// OnFrame implements engine.Plugin.
func (l *DetailsLoader) OnFrame(engine.FrameInfo) {}

// OnAssetLoaded implements engine.Plugin.
func (l *DetailsLoader) OnAssetLoaded(*asset.Item) {}

// Loaded returns the number of items whose details were fetched.
func (l *DetailsLoader) Loaded() int {
	return l.loaded
}
