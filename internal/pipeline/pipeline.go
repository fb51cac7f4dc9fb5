package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/fetch"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/media"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/thumbnail"
)

// Fetcher is the network collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LocalStore is the local cache tier. A miss is (nil, false, nil).
type LocalStore interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Put(ctx context.Context, id string, data []byte) error
}

// Uploader pushes generated thumbnails to the remote store without
// waiting for the result.
type Uploader interface {
	UploadBestEffort(id string, data []byte)
}

// Generator is the on-device generation worker.
type Generator interface {
	Generate(ctx context.Context, sourceURL string, targetSize int) (thumbnail.Pixels, error)
}

// Tier identifies one thumbnail strategy.
type Tier int

const (
	// TierNone means no tier succeeded.
	TierNone Tier = iota
	// TierRemote is a pre-built thumbnail fetched from the remote store.
	TierRemote
	// TierCache is a thumbnail found in the local store.
	TierCache
	// TierGenerate is a thumbnail generated from the full source.
	TierGenerate
)

func (t Tier) String() string {
	switch t {
	case TierRemote:
		return "remote"
	case TierCache:
		return "cache"
	case TierGenerate:
		return "generate"
	default:
		return "none"
	}
}

// Config tunes the pipeline.
type Config struct {
	// ThumbnailSize is the target long edge of generated thumbnails.
	ThumbnailSize int
	// RemoteTemplate builds a remote thumbnail URL for items that do not
	// declare one. Empty disables the remote tier for those items.
	RemoteTemplate string
	// TileWorkers bounds parallel tile slicing.
	TileWorkers int
}

// Pipeline resolves thumbnails, full-resolution assets and details. Every
// method is safe to call from many goroutines at once; none touches item
// state, which stays with the caller.
type Pipeline struct {
	config    Config
	fetcher   Fetcher
	store     LocalStore
	uploader  Uploader
	generator Generator
	log       *logging.Logger
}

// New creates a pipeline. store, uploader and generator may be nil, which
// disables the corresponding tier or step.
func New(config Config, fetcher Fetcher, store LocalStore, uploader Uploader, generator Generator) *Pipeline {
	if config.ThumbnailSize <= 0 {
		config.ThumbnailSize = 256
	}
	if config.TileWorkers <= 0 {
		config.TileWorkers = 4
	}
	return &Pipeline{
		config:    config,
		fetcher:   fetcher,
		store:     store,
		uploader:  uploader,
		generator: generator,
		log:       logging.For("pipeline"),
	}
}

// ThumbnailRequest is a snapshot of what the pipeline needs from an item.
type ThumbnailRequest struct {
	ID           string
	SourceURL    string
	ThumbnailURL string
	TargetSize   int
}

// ThumbnailResult carries either a decoded image (remote and cache tiers)
// or raw pixels (generated tier). Err is set only when every tier failed.
type ThumbnailResult struct {
	Tier   Tier
	Image  image.Image
	Pixels *thumbnail.Pixels

	// NativeWidth and NativeHeight are known only for generated thumbnails.
	NativeWidth  int
	NativeHeight int

	Err error
}

// errSkipped marks a tier that does not apply to the request.
var errSkipped = errors.New("tier skipped")

// errMiss marks a local store miss.
var errMiss = errors.New("not in local store")

// ResolveThumbnail tries the remote, cache and generate tiers in order.
// A tier failure falls through to the next tier; only the last failure is
// reported, wrapped with asset.ErrTiersExhausted.
func (p *Pipeline) ResolveThumbnail(ctx context.Context, req ThumbnailRequest) ThumbnailResult {
	if req.TargetSize <= 0 {
		req.TargetSize = p.config.ThumbnailSize
	}

	tiers := []struct {
		tier Tier
		run  func(context.Context, ThumbnailRequest) (ThumbnailResult, error)
	}{
		{TierRemote, p.remoteTier},
		{TierCache, p.cacheTier},
		{TierGenerate, p.generateTier},
	}

	var lastErr error
	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			return ThumbnailResult{Err: err}
		}
		start := time.Now()
		res, err := t.run(ctx, req)
		observeTier(t.tier, start, err)
		if err == nil {
			res.Tier = t.tier
			return res
		}
		if !errors.Is(err, errSkipped) && !errors.Is(err, errMiss) {
			p.log.Debug("%s: %s tier failed: %v", req.ID, t.tier, err)
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = errSkipped
	}
	return ThumbnailResult{Err: fmt.Errorf("%s: %w: %w", req.ID, asset.ErrTiersExhausted, lastErr)}
}

func observeTier(t Tier, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, errSkipped):
		status = "skipped"
	case errors.Is(err, errMiss):
		status = "miss"
	case err != nil:
		status = "error"
	}
	metrics.TierAttemptsTotal.WithLabelValues(t.String(), status).Inc()
	if status != "skipped" {
		metrics.TierDuration.WithLabelValues(t.String()).Observe(time.Since(start).Seconds())
	}
}

func (p *Pipeline) remoteURL(req ThumbnailRequest) string {
	if req.ThumbnailURL != "" {
		return req.ThumbnailURL
	}
	if p.config.RemoteTemplate != "" {
		return fetch.ExpandTemplate(p.config.RemoteTemplate, req.ID)
	}
	return ""
}

// remoteTier fetches a pre-built thumbnail and keeps a copy locally.
func (p *Pipeline) remoteTier(ctx context.Context, req ThumbnailRequest) (ThumbnailResult, error) {
	url := p.remoteURL(req)
	if url == "" || p.fetcher == nil {
		return ThumbnailResult{}, errSkipped
	}

	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return ThumbnailResult{}, err
	}
	img, err := media.Decode(data, url)
	if err != nil {
		return ThumbnailResult{}, err
	}

	p.putLocal(ctx, req.ID, data)
	return ThumbnailResult{Image: img}, nil
}

// cacheTier decodes a previously stored thumbnail. An unavailable store is
// a miss.
func (p *Pipeline) cacheTier(ctx context.Context, req ThumbnailRequest) (ThumbnailResult, error) {
	if p.store == nil {
		return ThumbnailResult{}, errSkipped
	}

	data, ok, err := p.store.Get(ctx, req.ID)
	if err != nil {
		p.log.Debug("%s: local store unavailable, treating as miss: %v", req.ID, err)
		return ThumbnailResult{}, errMiss
	}
	if !ok {
		return ThumbnailResult{}, errMiss
	}

	img, err := media.Decode(data, "local:"+req.ID)
	if err != nil {
		return ThumbnailResult{}, err
	}
	return ThumbnailResult{Image: img}, nil
}

// generateTier builds the thumbnail from the full source on a worker, then
// stores it locally and uploads it in the background.
func (p *Pipeline) generateTier(ctx context.Context, req ThumbnailRequest) (ThumbnailResult, error) {
	if p.generator == nil || req.SourceURL == "" {
		return ThumbnailResult{}, errSkipped
	}

	px, err := p.generator.Generate(ctx, req.SourceURL, req.TargetSize)
	if err != nil {
		return ThumbnailResult{}, err
	}

	if len(px.Encoded) > 0 {
		p.putLocal(ctx, req.ID, px.Encoded)
		if p.uploader != nil {
			p.uploader.UploadBestEffort(req.ID, px.Encoded)
		}
	}

	return ThumbnailResult{
		Pixels:       &px,
		NativeWidth:  px.NativeWidth,
		NativeHeight: px.NativeHeight,
	}, nil
}

func (p *Pipeline) putLocal(ctx context.Context, id string, data []byte) {
	if p.store == nil {
		return
	}
	if err := p.store.Put(ctx, id, data); err != nil {
		p.log.Debug("%s: local store put failed: %v", id, err)
	}
}
