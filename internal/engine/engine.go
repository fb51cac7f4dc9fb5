package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/cache"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/pipeline"
	"gallery-streamer/internal/render"
	"gallery-streamer/internal/scheduler"
	"gallery-streamer/internal/spatial"
	"gallery-streamer/internal/viewport"
)

// ErrUnknownItem is returned when an id is not part of the current layout.
var ErrUnknownItem = errors.New("unknown item")

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine closed")

// Resolver turns items into decoded images. It runs off the driver and
// must not touch item state.
type Resolver interface {
	ResolveThumbnail(ctx context.Context, req pipeline.ThumbnailRequest) pipeline.ThumbnailResult
	ResolveHighRes(ctx context.Context, req pipeline.HighResRequest) pipeline.HighResResult
}

// Collaborators are the external services the engine is built on.
type Collaborators struct {
	Renderer render.Renderer
	Resolver Resolver
}

// Config tunes the engine.
type Config struct {
	MaxConcurrentRequests int
	Buffer                float64
	ThumbnailSize         int

	HighResCacheSize     int
	HighResZoomThreshold float64
	ImmediateFraction    float64
	Debounce             time.Duration

	// ThumbnailRetention bounds the number of ready thumbnails. Zero keeps
	// every thumbnail once built.
	ThumbnailRetention int

	IndexCapacity int
	IndexMaxLevel int

	// CompletionBuffer sizes the completion channel.
	CompletionBuffer int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentRequests: scheduler.DefaultMaxConcurrentRequests,
		Buffer:                viewport.DefaultBuffer,
		ThumbnailSize:         256,
		HighResCacheSize:      cache.DefaultHighResCapacity,
		HighResZoomThreshold:  2.0,
		ImmediateFraction:     0.8,
		Debounce:              250 * time.Millisecond,
		IndexCapacity:         spatial.DefaultCapacity,
		IndexMaxLevel:         spatial.DefaultMaxLevel,
		CompletionBuffer:      256,
	}
}

// Timer is a pending debounce.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d on another goroutine.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Stats is a snapshot of the engine.
type Stats struct {
	Frames          uint64  `json:"frames"`
	Items           int     `json:"items"`
	Candidates      int     `json:"candidates"`
	Visible         int     `json:"visible"`
	Queued          int     `json:"queued"`
	Processing      int     `json:"processing"`
	MaxConcurrent   int     `json:"maxConcurrent"`
	ThumbnailsReady int     `json:"thumbnailsReady"`
	Errors          int     `json:"errors"`
	HighResEntries  int     `json:"highResEntries"`
	HighResCapacity int     `json:"highResCapacity"`
	HighResLoading  int     `json:"highResLoading"`
	Retained        int     `json:"retained"`
	RetentionLimit  int     `json:"retentionLimit"`
	Scale           float64 `json:"scale"`
	Dominant        string  `json:"dominant,omitempty"`
	UnderPointer    string  `json:"underPointer,omitempty"`
}

type pendingPromotion struct {
	item  *asset.Item
	timer Timer
	seq   uint64
}

// Engine decides, frame by frame, which assets must be resident. Every
// method except Snapshot must be called from the driver goroutine.
type Engine struct {
	cfg      Config
	renderer render.Renderer
	resolver Resolver

	items map[string]*asset.Item
	order []*asset.Item
	index *spatial.Tree[*asset.Item]

	analyzer  *viewport.Analyzer
	analysis  viewport.Analysis
	transform render.Transform

	sched     *scheduler.Scheduler
	highRes   *cache.HighRes
	retention *cache.Retention

	plugins []Plugin

	completions chan func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closed      bool

	afterFunc  AfterFunc
	pending    pendingPromotion
	pendingSeq uint64

	pointerX, pointerY float64
	hasPointer         bool
	pointerMoved       bool

	frames   uint64
	snapshot atomic.Pointer[Stats]

	log *logging.Logger
}

// New creates an engine with no items.
func New(cfg Config, c Collaborators) (*Engine, error) {
	if c.Renderer == nil || c.Resolver == nil {
		return nil, fmt.Errorf("engine needs a renderer and a resolver")
	}
	def := DefaultConfig()
	if cfg.HighResZoomThreshold <= 0 {
		cfg.HighResZoomThreshold = def.HighResZoomThreshold
	}
	if cfg.ImmediateFraction <= 0 {
		cfg.ImmediateFraction = def.ImmediateFraction
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = def.ThumbnailSize
	}
	if cfg.CompletionBuffer <= 0 {
		cfg.CompletionBuffer = def.CompletionBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:         cfg,
		renderer:    c.Renderer,
		resolver:    c.Resolver,
		items:       make(map[string]*asset.Item),
		index:       spatial.Build[*asset.Item](nil, cfg.IndexCapacity, cfg.IndexMaxLevel),
		analyzer:    viewport.New(),
		completions: make(chan func(), cfg.CompletionBuffer),
		ctx:         ctx,
		cancel:      cancel,
		afterFunc:   realAfterFunc,
		log:         logging.For("engine"),
	}

	e.sched = scheduler.New(cfg.MaxConcurrentRequests, e.dispatchThumbnail)

	highRes, err := cache.NewHighRes(cfg.HighResCacheSize, e.releaseHighRes)
	if err != nil {
		cancel()
		return nil, err
	}
	e.highRes = highRes

	retention, err := cache.NewRetention(cfg.ThumbnailRetention, e.releaseThumbnail)
	if err != nil {
		cancel()
		return nil, err
	}
	e.retention = retention

	e.publish()
	return e, nil
}

// SetThrottle installs a memory-pressure signal for the scheduler.
func (e *Engine) SetThrottle(t scheduler.Throttle) {
	e.sched.SetThrottle(t)
}

// SetAfterFunc replaces the debounce timer source.
func (e *Engine) SetAfterFunc(f AfterFunc) {
	if f != nil {
		e.afterFunc = f
	}
}

// AddPlugin registers p. Plugins that implement Attacher are handed the
// engine as their host first.
func (e *Engine) AddPlugin(p Plugin) {
	if a, ok := p.(Attacher); ok {
		a.Attach(e)
	}
	e.plugins = append(e.plugins, p)
}

// Async runs task on its own goroutine and posts the closure it returns
// back to the driver, where it runs at the start of a later frame.
func (e *Engine) Async(task func(ctx context.Context) func()) {
	if e.ctx.Err() != nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		done := task(e.ctx)
		if done != nil {
			e.post(done)
		}
	}()
}

func (e *Engine) post(fn func()) {
	select {
	case e.completions <- fn:
	case <-e.ctx.Done():
	}
}

// drain runs the completions that were pending when the frame started.
func (e *Engine) drain() int {
	n := len(e.completions)
	for i := 0; i < n; i++ {
		(<-e.completions)()
	}
	return n
}

// OnLayoutChanged replaces the item set and rebuilds the spatial index.
// Items that left the layout give up their resources; completions still in
// flight for them are discarded when they arrive.
func (e *Engine) OnLayoutChanged(items []*asset.Item) {
	next := make(map[string]*asset.Item, len(items))
	order := make([]*asset.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, dup := next[it.ID]; dup {
			e.log.Warn("duplicate item id %q ignored", it.ID)
			continue
		}
		next[it.ID] = it
		order = append(order, it)
	}

	for id, old := range e.items {
		if next[id] != old {
			e.dropItem(old)
		}
	}

	e.items = next
	e.order = order
	e.index = spatial.Build(order, e.cfg.IndexCapacity, e.cfg.IndexMaxLevel)
	e.analysis = viewport.Analysis{}
	e.sched.Prune(func(it *asset.Item) bool { return e.items[it.ID] == it })

	metrics.LayoutRebuildsTotal.Inc()
	metrics.ItemsIndexed.Set(float64(e.index.Len()))
	e.log.Debug("layout rebuilt: %d items, depth %d", e.index.Len(), e.index.Depth())
	e.publish()
}

func (e *Engine) dropItem(it *asset.Item) {
	if e.pending.item == it {
		e.cancelPending()
	}
	e.highRes.Remove(it.ID)
	if it.State() == asset.StateReady {
		e.retention.Forget(it.ID)
		e.releaseThumbnail(it)
	}
	it.Visible = false
}

// OnFrame runs one scheduling, promotion and drawing cycle.
func (e *Engine) OnFrame() {
	if e.closed {
		return
	}
	start := time.Now()
	e.frames++
	e.drain()

	e.transform = e.renderer.Transform()
	cw, ch := e.renderer.CanvasSize()
	a := e.analyzer.Analyze(e.index, viewport.Input{
		Transform:    e.transform,
		CanvasWidth:  cw,
		CanvasHeight: ch,
		Buffer:       e.cfg.Buffer,
		PointerX:     e.pointerX,
		PointerY:     e.pointerY,
		HasPointer:   e.hasPointer,
	})
	e.analysis = a
	metrics.QueryCandidates.Observe(float64(len(a.Candidates)))
	metrics.VisibleItems.Set(float64(len(a.Visible)))

	e.schedule(a)
	e.considerPromotion(a, cw)
	e.draw(a)

	if e.pointerMoved {
		e.pointerMoved = false
		for _, p := range e.plugins {
			p.OnPointerMove(a.UnderPointer)
		}
	}

	elapsed := time.Since(start)
	stats := e.publish()
	info := FrameInfo{
		Frame:        e.frames,
		Transform:    e.transform,
		View:         a.View,
		Visible:      a.Visible,
		Dominant:     a.Dominant,
		UnderPointer: a.UnderPointer,
		Elapsed:      elapsed,
		Stats:        stats,
	}
	for _, p := range e.plugins {
		p.OnFrame(info)
	}

	metrics.FramesTotal.Inc()
	metrics.FrameDuration.Observe(elapsed.Seconds())
}

func (e *Engine) schedule(a viewport.Analysis) {
	for _, it := range a.Candidates {
		switch it.State() {
		case asset.StatePlaceholder:
			e.sched.Enqueue(it)
		case asset.StateReady:
			e.retention.Touch(it.ID)
		}
	}
	e.sched.Prune(func(it *asset.Item) bool {
		return e.items[it.ID] == it && a.Query.Overlaps(it.Bounds())
	})
	e.sched.Admit()
	// Anything still inside the query region would be enqueued again next
	// frame, so only items that left it are eligible for release.
	e.retention.Enforce(func(it *asset.Item) bool {
		return a.Query.Overlaps(it.Bounds())
	})
}

// dispatchThumbnail is the scheduler's dispatcher. It never blocks.
func (e *Engine) dispatchThumbnail(item *asset.Item) {
	req := pipeline.ThumbnailRequest{
		ID:           item.ID,
		SourceURL:    item.SourceURL,
		ThumbnailURL: item.ThumbnailURL,
		TargetSize:   e.cfg.ThumbnailSize,
	}
	e.Async(func(ctx context.Context) func() {
		res := e.resolver.ResolveThumbnail(ctx, req)
		return func() { e.completeThumbnail(item, res) }
	})
}

// completeThumbnail is the single completion sink for thumbnail loads. It
// always releases the scheduler slot.
func (e *Engine) completeThumbnail(item *asset.Item, res pipeline.ThumbnailResult) {
	defer e.sched.OnComplete(item)

	if e.items[item.ID] != item || item.State() != asset.StateLoading {
		if item.State() == asset.StateLoading {
			_ = item.CancelLoad()
		}
		metrics.ThumbnailsTotal.WithLabelValues("stale").Inc()
		metrics.StaleCompletionsTotal.Inc()
		e.log.Debug("%s: discarding stale thumbnail", item.ID)
		return
	}

	if res.Err != nil {
		e.failThumbnail(item, res.Err)
		return
	}

	var (
		h   render.Handle
		err error
	)
	if res.Pixels != nil {
		h, err = e.renderer.CreateFromPixels(res.Pixels.Pix, res.Pixels.Width, res.Pixels.Height)
	} else {
		h, err = e.renderer.CreateFromImage(res.Image)
	}
	if err != nil {
		e.failThumbnail(item, fmt.Errorf("create thumbnail resource: %w", err))
		return
	}

	if err := item.CompleteLoad(h, res.NativeWidth, res.NativeHeight); err != nil {
		e.renderer.Release(h)
		e.log.Warn("%s: %v", item.ID, err)
		return
	}
	e.retention.Track(item)
	metrics.ThumbnailsTotal.WithLabelValues("ready").Inc()
	metrics.ThumbnailsReady.Inc()
	e.log.Debug("%s: thumbnail ready from %s tier", item.ID, res.Tier)

	for _, p := range e.plugins {
		p.OnAssetLoaded(item)
	}
}

func (e *Engine) failThumbnail(item *asset.Item, err error) {
	if ferr := item.FailLoad(err); ferr != nil {
		e.log.Warn("%s: %v", item.ID, ferr)
		return
	}
	metrics.ThumbnailsTotal.WithLabelValues("error").Inc()
	e.log.Debug("%s: thumbnail failed: %v", item.ID, err)
}

func (e *Engine) releaseThumbnail(item *asset.Item) {
	h, err := item.ReleaseThumbnail()
	if err != nil {
		return
	}
	e.renderer.Release(h)
	metrics.ThumbnailsReady.Dec()
}

func (e *Engine) releaseHighRes(item *asset.Item) {
	handles, err := item.EvictHighRes()
	if err != nil {
		return
	}
	for _, h := range handles {
		e.renderer.Release(h)
	}
}

// Retry returns a failed item to the queue.
func (e *Engine) Retry(id string) error {
	if e.closed {
		return ErrClosed
	}
	item, ok := e.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if err := item.Retry(); err != nil {
		return err
	}
	e.sched.Enqueue(item)
	e.sched.Admit()
	return nil
}

// SetPointer records the pointer position in screen space.
func (e *Engine) SetPointer(x, y float64) {
	if e.hasPointer && x == e.pointerX && y == e.pointerY {
		return
	}
	e.pointerX, e.pointerY = x, y
	e.hasPointer = true
	e.pointerMoved = true
}

// ClearPointer forgets the pointer, for example when it leaves the canvas.
func (e *Engine) ClearPointer() {
	if !e.hasPointer {
		return
	}
	e.hasPointer = false
	e.pointerMoved = true
}

// VisibleSet returns the items visible in the last frame.
func (e *Engine) VisibleSet() []*asset.Item {
	return append([]*asset.Item(nil), e.analysis.Visible...)
}

// DominantItem returns the item covering most of the view in the last
// frame, or nil.
func (e *Engine) DominantItem() *asset.Item {
	return e.analysis.Dominant
}

// ItemUnderPointer returns the visible item under the pointer in the last
// frame, or nil.
func (e *Engine) ItemUnderPointer() *asset.Item {
	return e.analysis.UnderPointer
}

// Item looks up an item of the current layout.
func (e *Engine) Item(id string) (*asset.Item, bool) {
	it, ok := e.items[id]
	return it, ok
}

// Items returns the current layout in insertion order.
func (e *Engine) Items() []*asset.Item {
	return append([]*asset.Item(nil), e.order...)
}

// Stats computes a fresh snapshot.
func (e *Engine) Stats() Stats {
	s := Stats{
		Frames:          e.frames,
		Items:           len(e.order),
		Candidates:      len(e.analysis.Candidates),
		Visible:         len(e.analysis.Visible),
		HighResEntries:  e.highRes.Len(),
		HighResCapacity: e.highRes.Capacity(),
		Retained:        e.retention.Len(),
		RetentionLimit:  e.retention.Limit(),
		Scale:           e.transform.Scale,
	}
	q := e.sched.Stats()
	s.Queued, s.Processing, s.MaxConcurrent = q.Queued, q.Processing, q.Max

	for _, it := range e.order {
		switch it.State() {
		case asset.StateReady:
			s.ThumbnailsReady++
		case asset.StateError:
			s.Errors++
		}
		if it.HighRes() == asset.HighResLoading {
			s.HighResLoading++
		}
	}
	if d := e.analysis.Dominant; d != nil {
		s.Dominant = d.ID
	}
	if p := e.analysis.UnderPointer; p != nil {
		s.UnderPointer = p.ID
	}
	return s
}

func (e *Engine) publish() Stats {
	s := e.Stats()
	e.snapshot.Store(&s)
	return s
}

// Snapshot returns the stats published by the last frame. It is safe for
// concurrent use.
func (e *Engine) Snapshot() Stats {
	if s := e.snapshot.Load(); s != nil {
		return *s
	}
	return Stats{}
}

// Close stops background work and releases every resource the engine
// created. Completions still in flight are discarded.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.cancelPending()
	e.cancel()
	e.wg.Wait()

	e.highRes.Purge()
	for _, it := range e.order {
		if it.State() == asset.StateReady {
			e.releaseThumbnail(it)
		}
	}
	e.publish()
}
