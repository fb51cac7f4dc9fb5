package scheduler

import (
	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
)

// DefaultMaxConcurrentRequests is the admission budget used when none is
// configured.
const DefaultMaxConcurrentRequests = 6

// Dispatcher starts resolving an admitted item. It must not block: the
// resolution runs asynchronously and eventually reports back through
// Scheduler.OnComplete, exactly once.
type Dispatcher func(item *asset.Item)

// Throttle reduces the admission budget under resource pressure.
type Throttle interface {
	ShouldThrottle() bool
}

// Stats is a snapshot of the queue.
type Stats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Max        int `json:"max"`
}

// Scheduler is the bounded-concurrency request queue. It is driven from a
// single goroutine; no method is safe for concurrent use.
type Scheduler struct {
	queue      []*asset.Item
	queued     map[*asset.Item]struct{}
	inFlight   map[*asset.Item]struct{}
	processing int
	max        int
	dispatch   Dispatcher
	throttle   Throttle
	log        *logging.Logger
}

// New creates a scheduler that admits at most maxConcurrent items at once.
func New(maxConcurrent int, dispatch Dispatcher) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRequests
	}
	return &Scheduler{
		queued:   make(map[*asset.Item]struct{}),
		inFlight: make(map[*asset.Item]struct{}),
		max:      maxConcurrent,
		dispatch: dispatch,
		log:      logging.For("scheduler"),
	}
}

// SetThrottle installs a pressure signal consulted on every admission pass.
func (s *Scheduler) SetThrottle(t Throttle) {
	s.throttle = t
}

// Enqueue adds item if it is a placeholder and not already queued.
func (s *Scheduler) Enqueue(item *asset.Item) bool {
	if item.State() != asset.StatePlaceholder {
		return false
	}
	if _, ok := s.queued[item]; ok {
		return false
	}
	s.queued[item] = struct{}{}
	s.queue = append(s.queue, item)
	metrics.SchedulerQueueDepth.Set(float64(len(s.queue)))
	return true
}

// Admit moves the highest-priority placeholders to Loading and dispatches
// them until the budget is spent. Visible items go first; the relative order
// inside each group is kept. It returns the number admitted.
func (s *Scheduler) Admit() int {
	budget := s.budget()
	if s.processing >= budget {
		return 0
	}

	s.prioritize()

	// Dispatch may complete synchronously and re-enter Admit, so walk a copy.
	candidates := append([]*asset.Item(nil), s.queue...)

	admitted := 0
	for _, item := range candidates {
		if s.processing >= budget {
			break
		}
		if item.State() != asset.StatePlaceholder {
			continue
		}
		if _, busy := s.inFlight[item]; busy {
			continue
		}
		if err := item.BeginLoad(); err != nil {
			s.log.Debug("skip %s: %v", item.ID, err)
			continue
		}
		s.inFlight[item] = struct{}{}
		s.processing++
		admitted++
		metrics.SchedulerAdmissions.Inc()
		metrics.SchedulerInFlight.Set(float64(s.processing))
		s.dispatch(item)
	}
	return admitted
}

// OnComplete releases the slot held by item and immediately tries to fill
// it again. Completing an item that was never admitted is ignored.
func (s *Scheduler) OnComplete(item *asset.Item) {
	if _, ok := s.inFlight[item]; !ok {
		s.log.Warn("completion for %s which is not in flight", item.ID)
		return
	}
	delete(s.inFlight, item)
	s.processing--
	s.remove(item)
	metrics.SchedulerInFlight.Set(float64(s.processing))
	s.Admit()
}

// Prune drops queued items that are waiting to be admitted and for which
// keep returns false. In-flight items are never dropped.
func (s *Scheduler) Prune(keep func(*asset.Item) bool) int {
	dropped := 0
	kept := s.queue[:0]
	for _, item := range s.queue {
		_, busy := s.inFlight[item]
		if busy || keep(item) {
			kept = append(kept, item)
			continue
		}
		delete(s.queued, item)
		dropped++
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	metrics.SchedulerQueueDepth.Set(float64(len(s.queue)))
	return dropped
}

// Processing returns the number of in-flight items.
func (s *Scheduler) Processing() int { return s.processing }

// Len returns the number of queued items, in flight or waiting.
func (s *Scheduler) Len() int { return len(s.queue) }

// Contains reports whether item is queued.
func (s *Scheduler) Contains(item *asset.Item) bool {
	_, ok := s.queued[item]
	return ok
}

// Stats returns a snapshot of the queue.
func (s *Scheduler) Stats() Stats {
	return Stats{Queued: len(s.queue), Processing: s.processing, Max: s.max}
}

func (s *Scheduler) budget() int {
	if s.throttle != nil && s.throttle.ShouldThrottle() {
		return 1
	}
	return s.max
}

// prioritize stably partitions the queue so visible items come first.
func (s *Scheduler) prioritize() {
	visible := make([]*asset.Item, 0, len(s.queue))
	var rest []*asset.Item
	for _, item := range s.queue {
		if item.Visible {
			visible = append(visible, item)
		} else {
			rest = append(rest, item)
		}
	}
	s.queue = append(visible, rest...)
}

func (s *Scheduler) remove(item *asset.Item) {
	delete(s.queued, item)
	for i, q := range s.queue {
		if q == item {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	metrics.SchedulerQueueDepth.Set(float64(len(s.queue)))
}
