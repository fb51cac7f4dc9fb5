package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/metrics"
)

// recencyBound sizes the recency list of a Retention. The list never evicts
// on its own; the configured limit is applied by Enforce.
const recencyBound = 1 << 30

// Retention bounds the number of ready thumbnails. Thumbnails that have not
// been seen for the longest time are released first. Visible thumbnails and
// those the caller pins are never released, so the limit may be exceeded
// while more items than the limit are wanted.
//
// A nil *Retention retains everything.
type Retention struct {
	recent  *lru.Cache[string, *asset.Item]
	limit   int
	release ReleaseFunc
}

// NewRetention creates a retention policy keeping at most limit ready
// thumbnails. A limit of zero or less disables the policy and returns nil.
func NewRetention(limit int, release ReleaseFunc) (*Retention, error) {
	if limit <= 0 {
		return nil, nil
	}
	recent, err := lru.New[string, *asset.Item](recencyBound)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail retention list: %w", err)
	}
	return &Retention{recent: recent, limit: limit, release: release}, nil
}

// Track records a newly ready thumbnail as most recently seen.
func (r *Retention) Track(item *asset.Item) {
	if r == nil {
		return
	}
	r.recent.Add(item.ID, item)
}

// Touch marks id as seen this frame.
func (r *Retention) Touch(id string) {
	if r == nil {
		return
	}
	r.recent.Get(id)
}

// Forget drops id without releasing it.
func (r *Retention) Forget(id string) {
	if r == nil {
		return
	}
	r.recent.Remove(id)
}

// Enforce releases the least recently seen thumbnails until at most limit
// remain, skipping visible items and items for which keep returns true.
// keep may be nil. It returns the released items.
func (r *Retention) Enforce(keep func(*asset.Item) bool) []*asset.Item {
	if r == nil || r.recent.Len() <= r.limit {
		return nil
	}

	excess := r.recent.Len() - r.limit
	var released []*asset.Item
	for _, id := range r.recent.Keys() {
		if excess == 0 {
			break
		}
		item, ok := r.recent.Peek(id)
		if !ok || item.Visible || (keep != nil && keep(item)) {
			continue
		}
		if r.release != nil {
			r.release(item)
		}
		r.recent.Remove(id)
		released = append(released, item)
		excess--
	}

	if len(released) > 0 {
		metrics.RetentionEvictionsTotal.Add(float64(len(released)))
	}
	return released
}

// Len returns the number of tracked thumbnails.
func (r *Retention) Len() int {
	if r == nil {
		return 0
	}
	return r.recent.Len()
}

// Limit returns the configured bound, or zero when disabled.
func (r *Retention) Limit() int {
	if r == nil {
		return 0
	}
	return r.limit
}
