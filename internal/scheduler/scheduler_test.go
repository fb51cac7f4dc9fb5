package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/geom"
)

// recorder is a dispatcher that remembers admitted items without finishing
// them.
type recorder struct {
	admitted []*asset.Item
}

func (r *recorder) dispatch(item *asset.Item) {
	r.admitted = append(r.admitted, item)
}

func makeItems(n int) []*asset.Item {
	items := make([]*asset.Item, n)
	for i := range items {
		items[i] = asset.New(fmt.Sprintf("item-%d", i), geom.NewRect(float64(i)*10, 0, 10, 10), "")
	}
	return items
}

// finish completes an admitted item the way the completion sink does.
func finish(t *testing.T, s *Scheduler, item *asset.Item) {
	t.Helper()
	if err := item.CompleteLoad(1, 10, 10); err != nil {
		t.Fatalf("CompleteLoad(%s) error: %v", item.ID, err)
	}
	s.OnComplete(item)
}

func TestAdmitRespectsBudget(t *testing.T) {
	rec := &recorder{}
	s := New(3, rec.dispatch)

	items := makeItems(10)
	for _, it := range items {
		if !s.Enqueue(it) {
			t.Fatalf("Expected %s to be enqueued", it.ID)
		}
	}

	if got := s.Admit(); got != 3 {
		t.Errorf("Expected 3 admitted immediately, got %d", got)
	}
	if len(rec.admitted) != 3 {
		t.Fatalf("Expected 3 dispatches, got %d", len(rec.admitted))
	}
	if s.Processing() != 3 {
		t.Errorf("Expected processing 3, got %d", s.Processing())
	}

	// A second pass without completions admits nothing.
	if got := s.Admit(); got != 0 {
		t.Errorf("Expected 0 admitted with full budget, got %d", got)
	}

	for _, it := range items[3:] {
		if it.State() != asset.StatePlaceholder {
			t.Errorf("Expected %s to still be a placeholder, got %s", it.ID, it.State())
		}
	}

	// Each completion admits exactly one more.
	finish(t, s, rec.admitted[0])
	if len(rec.admitted) != 4 {
		t.Errorf("Expected completion to admit one more (4 total), got %d", len(rec.admitted))
	}
	if s.Processing() != 3 {
		t.Errorf("Expected processing to stay at 3, got %d", s.Processing())
	}
}

func TestQueueDrainsThroughCompletions(t *testing.T) {
	rec := &recorder{}
	s := New(2, rec.dispatch)
	items := makeItems(7)
	for _, it := range items {
		s.Enqueue(it)
	}
	s.Admit()

	for done := 0; done < len(rec.admitted); done++ {
		finish(t, s, rec.admitted[done])
	}

	if len(rec.admitted) != 7 {
		t.Errorf("Expected all 7 items admitted, got %d", len(rec.admitted))
	}
	if s.Len() != 0 || s.Processing() != 0 {
		t.Errorf("Expected empty queue, got len=%d processing=%d", s.Len(), s.Processing())
	}
	for _, it := range items {
		if it.State() != asset.StateReady {
			t.Errorf("Expected %s ready, got %s", it.ID, it.State())
		}
	}
}

func TestProcessingNeverExceedsMax(t *testing.T) {
	const limit = 4
	rng := rand.New(rand.NewSource(7))

	var s *Scheduler
	var inFlight []*asset.Item
	s = New(limit, func(item *asset.Item) {
		inFlight = append(inFlight, item)
		if s.Processing() > limit {
			t.Fatalf("Processing %d exceeds max %d", s.Processing(), limit)
		}
	})

	items := makeItems(200)
	next := 0
	for step := 0; step < 1000; step++ {
		switch op := rng.Intn(3); {
		case op == 0 && next < len(items):
			s.Enqueue(items[next])
			next++
		case op == 1 && len(inFlight) > 0:
			i := rng.Intn(len(inFlight))
			item := inFlight[i]
			inFlight = append(inFlight[:i], inFlight[i+1:]...)
			if rng.Intn(4) == 0 {
				_ = item.FailLoad(asset.ErrTiersExhausted)
			} else {
				_ = item.CompleteLoad(1, 1, 1)
			}
			s.OnComplete(item)
		default:
			s.Admit()
		}

		if s.Processing() > limit {
			t.Fatalf("Step %d: processing %d exceeds max %d", step, s.Processing(), limit)
		}
		if s.Processing() != len(inFlight) {
			t.Fatalf("Step %d: processing %d but %d in flight", step, s.Processing(), len(inFlight))
		}
	}
}

func TestVisibleItemsAdmittedFirst(t *testing.T) {
	rec := &recorder{}
	s := New(2, rec.dispatch)
	items := makeItems(5)
	for _, it := range items {
		s.Enqueue(it)
	}
	items[3].Visible = true
	items[4].Visible = true

	s.Admit()

	if len(rec.admitted) != 2 {
		t.Fatalf("Expected 2 admitted, got %d", len(rec.admitted))
	}
	if rec.admitted[0] != items[3] || rec.admitted[1] != items[4] {
		t.Errorf("Expected visible items 3 and 4 first, got %s and %s", rec.admitted[0].ID, rec.admitted[1].ID)
	}

	// Visibility changes between passes re-prioritize the waiting items.
	items[3].Visible, items[4].Visible = false, false
	items[2].Visible = true
	finish(t, s, items[3])
	if last := rec.admitted[len(rec.admitted)-1]; last != items[2] {
		t.Errorf("Expected newly visible item-2 next, got %s", last.ID)
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	s := New(1, func(*asset.Item) {})
	it := makeItems(1)[0]

	if !s.Enqueue(it) {
		t.Fatal("Expected first enqueue to succeed")
	}
	if s.Enqueue(it) {
		t.Error("Expected duplicate enqueue to be rejected")
	}
	if s.Len() != 1 {
		t.Errorf("Expected queue length 1, got %d", s.Len())
	}

	loading := makeItems(1)[0]
	_ = loading.BeginLoad()
	if s.Enqueue(loading) {
		t.Error("Expected loading item to be rejected")
	}
}

func TestOnCompleteIgnoresUnknownItems(t *testing.T) {
	s := New(2, func(*asset.Item) {})
	it := makeItems(1)[0]
	s.OnComplete(it)
	if s.Processing() != 0 {
		t.Errorf("Expected processing 0, got %d", s.Processing())
	}
}

func TestPruneKeepsInFlight(t *testing.T) {
	rec := &recorder{}
	s := New(1, rec.dispatch)
	items := makeItems(4)
	for _, it := range items {
		s.Enqueue(it)
	}
	s.Admit()

	dropped := s.Prune(func(*asset.Item) bool { return false })
	if dropped != 3 {
		t.Errorf("Expected 3 dropped, got %d", dropped)
	}
	if !s.Contains(items[0]) {
		t.Error("Expected in-flight item to survive prune")
	}
	if s.Contains(items[1]) {
		t.Error("Expected waiting item to be pruned")
	}

	// A pruned item can be enqueued again later.
	if !s.Enqueue(items[1]) {
		t.Error("Expected pruned item to be re-enqueueable")
	}
}

type fixedThrottle bool

func (f fixedThrottle) ShouldThrottle() bool { return bool(f) }

func TestThrottleReducesBudget(t *testing.T) {
	rec := &recorder{}
	s := New(4, rec.dispatch)
	s.SetThrottle(fixedThrottle(true))
	for _, it := range makeItems(4) {
		s.Enqueue(it)
	}

	if got := s.Admit(); got != 1 {
		t.Errorf("Expected 1 admitted under throttle, got %d", got)
	}

	s.SetThrottle(fixedThrottle(false))
	if got := s.Admit(); got != 3 {
		t.Errorf("Expected 3 more admitted without throttle, got %d", got)
	}
}

func TestDefaultBudget(t *testing.T) {
	s := New(0, func(*asset.Item) {})
	if st := s.Stats(); st.Max != DefaultMaxConcurrentRequests {
		t.Errorf("Expected default max %d, got %d", DefaultMaxConcurrentRequests, st.Max)
	}
}

func TestSynchronousCompletion(t *testing.T) {
	var s *Scheduler
	count := 0
	s = New(1, func(item *asset.Item) {
		count++
		_ = item.FailLoad(asset.ErrTiersExhausted)
		s.OnComplete(item)
	})
	items := makeItems(5)
	for _, it := range items {
		s.Enqueue(it)
	}
	s.Admit()

	if count != 5 {
		t.Errorf("Expected 5 dispatches, got %d", count)
	}
	if s.Processing() != 0 || s.Len() != 0 {
		t.Errorf("Expected drained queue, got processing=%d len=%d", s.Processing(), s.Len())
	}
}
