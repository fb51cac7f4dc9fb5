package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/media"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/workers"
)

// ErrClosed is returned by Generate after Close.
var ErrClosed = errors.New("thumbnail generator closed")

// Fetcher downloads a source asset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Pixels is a generated thumbnail. Pix is tightly packed non-premultiplied
// RGBA; ownership of the buffer moves to the receiver and the generator
// never touches it again.
type Pixels struct {
	Pix    []byte
	Width  int
	Height int

	// NativeWidth and NativeHeight are the dimensions of the source.
	NativeWidth  int
	NativeHeight int

	// Encoded is the thumbnail as JPEG, for the local store and upload.
	Encoded []byte
}

// Config configures the generator pool.
type Config struct {
	// Workers is the pool size; 0 sizes it with workers.ForMixed.
	Workers int
	// QueueSize is the job channel buffer.
	QueueSize int
	// JPEGQuality is used for Encoded.
	JPEGQuality int
	// UseVips decodes with libvips when it has been initialized.
	UseVips bool
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:   64,
		JPEGQuality: media.DefaultJPEGQuality,
		UseVips:     true,
	}
}

type job struct {
	ctx    context.Context
	source string
	target int
	reply  chan result
}

type result struct {
	pixels Pixels
	err    error
}

// Generator is a pool of thumbnail workers fed through a job channel. Each
// job downloads the source, decodes it, fits it to the target long edge and
// replies with the pixels on its own channel.
type Generator struct {
	config  Config
	fetcher Fetcher
	jobs    chan job

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	generated atomic.Int64
	failed    atomic.Int64
	log       *logging.Logger
}

// NewGenerator starts the worker pool.
func NewGenerator(fetcher Fetcher, config Config) *Generator {
	if config.Workers <= 0 {
		config.Workers = workers.ForMixed(8)
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = media.DefaultJPEGQuality
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Generator{
		config:  config,
		fetcher: fetcher,
		jobs:    make(chan job, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		log:     logging.For("generator"),
	}

	metrics.GeneratorWorkers.Set(float64(config.Workers))
	for i := 0; i < config.Workers; i++ {
		g.wg.Add(1)
		go g.worker(i)
	}
	g.log.Info("started %d thumbnail workers", config.Workers)
	return g
}

// Workers returns the pool size.
func (g *Generator) Workers() int {
	return g.config.Workers
}

// Generate submits a job and waits for its reply.
func (g *Generator) Generate(ctx context.Context, sourceURL string, targetSize int) (Pixels, error) {
	reply := make(chan result, 1)
	j := job{ctx: ctx, source: sourceURL, target: targetSize, reply: reply}

	select {
	case g.jobs <- j:
	case <-ctx.Done():
		return Pixels{}, ctx.Err()
	case <-g.ctx.Done():
		return Pixels{}, ErrClosed
	}

	select {
	case r := <-reply:
		return r.pixels, r.err
	case <-ctx.Done():
		return Pixels{}, ctx.Err()
	case <-g.ctx.Done():
		return Pixels{}, ErrClosed
	}
}

// Close stops the workers and waits for them to exit. Pending jobs are
// abandoned.
func (g *Generator) Close() {
	g.cancel()
	g.wg.Wait()
	g.log.Info("stopped (generated %d, failed %d)", g.generated.Load(), g.failed.Load())
}

// Stats returns the number of generated and failed jobs.
func (g *Generator) Stats() (generated, failed int64) {
	return g.generated.Load(), g.failed.Load()
}

func (g *Generator) worker(id int) {
	defer g.wg.Done()
	g.log.Debug("worker %d started", id)

	for {
		select {
		case <-g.ctx.Done():
			g.log.Debug("worker %d finished", id)
			return
		case j := <-g.jobs:
			if j.ctx.Err() != nil {
				j.reply <- result{err: j.ctx.Err()}
				continue
			}
			metrics.GeneratorJobsInProgress.Inc()
			start := time.Now()
			px, err := g.process(j)
			metrics.GeneratorJobsInProgress.Dec()

			if err != nil {
				g.failed.Add(1)
				g.log.Debug("worker %d: %s failed after %v: %v", id, j.source, time.Since(start), err)
			} else {
				g.generated.Add(1)
			}
			// reply is buffered, so an abandoned job never blocks the worker.
			j.reply <- result{pixels: px, err: err}
		}
	}
}

func (g *Generator) process(j job) (Pixels, error) {
	data, err := g.fetcher.Fetch(j.ctx, j.source)
	if err != nil {
		return Pixels{}, err
	}

	img, native, err := g.decode(data, j.source, j.target)
	if err != nil {
		return Pixels{}, err
	}

	encoded, err := media.EncodeJPEG(img, g.config.JPEGQuality)
	if err != nil {
		return Pixels{}, fmt.Errorf("encode thumbnail %s: %w", j.source, err)
	}

	pix, w, h := media.ToPixels(img)
	return Pixels{
		Pix:          pix,
		Width:        w,
		Height:       h,
		NativeWidth:  native.Width,
		NativeHeight: native.Height,
		Encoded:      encoded,
	}, nil
}

// decode shrinks with libvips when available and falls back to imaging.
func (g *Generator) decode(data []byte, source string, target int) (image.Image, media.Dimensions, error) {
	if g.config.UseVips && media.IsVipsAvailable() {
		img, native, err := media.ThumbnailWithVips(data, source, target)
		if err == nil {
			return img, native, nil
		}
		g.log.Debug("vips failed for %s, falling back to imaging: %v", source, err)
	}

	img, err := media.Decode(data, source)
	if err != nil {
		return nil, media.Dimensions{}, err
	}
	b := img.Bounds()
	return media.Thumbnail(img, target), media.Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}
