package engine

import (
	"context"
	"fmt"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/pipeline"
	"gallery-streamer/internal/render"
	"gallery-streamer/internal/viewport"
)

const (
	triggerImmediate = "immediate"
	triggerDebounced = "debounced"
	triggerManual    = "manual"
)

// considerPromotion applies the automatic promotion policy to the dominant
// item. A dominant item that fills most of the canvas is promoted at once;
// otherwise a debounce is armed and the trigger is checked again when it
// fires.
func (e *Engine) considerPromotion(a viewport.Analysis, canvasWidth float64) {
	d := a.Dominant
	if e.pending.item != nil && e.pending.item != d {
		e.cancelPending()
	}
	if d == nil || a.Scale <= e.cfg.HighResZoomThreshold || d.HighRes() != asset.HighResNone {
		return
	}

	if viewport.ScreenFraction(e.transform, d.DrawRect(), canvasWidth) >= e.cfg.ImmediateFraction {
		e.cancelPending()
		e.promote(d, triggerImmediate)
		return
	}

	if e.pending.item == d {
		return
	}
	item := d
	e.pendingSeq++
	seq := e.pendingSeq
	e.pending = pendingPromotion{
		item: item,
		seq:  seq,
		timer: e.afterFunc(e.cfg.Debounce, func() {
			e.post(func() { e.debounceFired(item, seq) })
		}),
	}
}

func (e *Engine) cancelPending() {
	if e.pending.timer != nil {
		e.pending.timer.Stop()
	}
	e.pending = pendingPromotion{}
}

// debounceFired re-checks the trigger for a debounced promotion. Intents
// that were replaced or went stale while the timer ran are dropped. A timer
// that fired just before it was stopped still posts its callback, so the
// sequence number must match as well as the item.
func (e *Engine) debounceFired(item *asset.Item, seq uint64) {
	if e.pending.item != item || e.pending.seq != seq {
		return
	}
	e.pending = pendingPromotion{}

	scale := e.renderer.Transform().Scale
	if e.items[item.ID] != item || !item.Visible || scale <= e.cfg.HighResZoomThreshold || item.HighRes() != asset.HighResNone {
		metrics.HighResPromotionsTotal.WithLabelValues(triggerDebounced, "cancelled").Inc()
		e.log.Debug("%s: debounced promotion dropped at scale %.2f", item.ID, scale)
		return
	}
	e.promote(item, triggerDebounced)
}

// RequestHighResPromotion promotes id regardless of zoom. A promotion that
// is already resident only refreshes its recency.
func (e *Engine) RequestHighResPromotion(id string) error {
	if e.closed {
		return ErrClosed
	}
	item, ok := e.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if item.HighRes() == asset.HighResReady {
		e.highRes.Touch(id)
		return nil
	}
	if e.pending.item == item {
		e.cancelPending()
	}
	return e.promote(item, triggerManual)
}

func (e *Engine) promote(item *asset.Item, trigger string) error {
	if err := item.BeginHighRes(); err != nil {
		return err
	}
	metrics.HighResPromotionsTotal.WithLabelValues(trigger, "started").Inc()
	e.log.Debug("%s: %s high-res promotion", item.ID, trigger)

	req := pipeline.HighResRequest{
		ID:             item.ID,
		SourceURL:      item.SourceURL,
		MaxTextureSize: e.renderer.MaxTextureSize(),
	}
	e.Async(func(ctx context.Context) func() {
		res := e.resolver.ResolveHighRes(ctx, req)
		return func() { e.completeHighRes(item, trigger, res) }
	})
	return nil
}

func (e *Engine) completeHighRes(item *asset.Item, trigger string, res pipeline.HighResResult) {
	if e.items[item.ID] != item || item.HighRes() != asset.HighResLoading {
		if item.HighRes() == asset.HighResLoading {
			_ = item.CancelHighRes()
		}
		metrics.HighResPromotionsTotal.WithLabelValues(trigger, "cancelled").Inc()
		metrics.StaleCompletionsTotal.Inc()
		e.log.Debug("%s: discarding stale high-res result", item.ID)
		return
	}

	if res.Err != nil {
		e.failHighRes(item, trigger, res.Err)
		return
	}

	var (
		single render.Handle
		tiles  []asset.Tile
	)
	if len(res.Tiles) > 0 {
		for _, t := range res.Tiles {
			h, err := e.renderer.CreateFromImage(t.Image)
			if err != nil {
				for _, made := range tiles {
					e.renderer.Release(made.Handle)
				}
				e.failHighRes(item, trigger, fmt.Errorf("create tile %d,%d: %w", t.Col, t.Row, err))
				return
			}
			tiles = append(tiles, asset.Tile{
				Handle:  h,
				Col:     t.Col,
				Row:     t.Row,
				OffsetX: t.OffsetX,
				OffsetY: t.OffsetY,
				ScaleX:  t.ScaleX,
				ScaleY:  t.ScaleY,
			})
		}
		metrics.HighResTiles.Observe(float64(len(tiles)))
	} else {
		h, err := e.renderer.CreateFromImage(res.Image)
		if err != nil {
			e.failHighRes(item, trigger, fmt.Errorf("create high-res resource: %w", err))
			return
		}
		single = h
	}

	if err := item.CompleteHighRes(single, tiles, res.Width, res.Height); err != nil {
		e.log.Warn("%s: %v", item.ID, err)
		return
	}
	for _, evicted := range e.highRes.Insert(item) {
		e.log.Debug("%s: high-res evicted", evicted.ID)
	}
	metrics.HighResPromotionsTotal.WithLabelValues(trigger, "success").Inc()

	for _, p := range e.plugins {
		p.OnAssetLoaded(item)
	}
}

func (e *Engine) failHighRes(item *asset.Item, trigger string, err error) {
	if ferr := item.FailHighRes(err); ferr != nil {
		e.log.Warn("%s: %v", item.ID, ferr)
		return
	}
	metrics.HighResPromotionsTotal.WithLabelValues(trigger, "error").Inc()
	e.log.Warn("%s: high-res promotion failed: %v", item.ID, err)
}
