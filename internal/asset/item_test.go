package asset

import (
	"errors"
	"testing"

	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"
)

func TestThumbnailLifecycle(t *testing.T) {
	it := New("a", geom.NewRect(0, 0, 100, 100), "file:///a.jpg")
	if it.State() != StatePlaceholder {
		t.Fatalf("Expected placeholder, got %s", it.State())
	}

	if err := it.BeginLoad(); err != nil {
		t.Fatalf("BeginLoad() error: %v", err)
	}
	if err := it.BeginLoad(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected second BeginLoad to fail with ErrInvalidTransition, got %v", err)
	}

	if err := it.CompleteLoad(render.Handle(3), 400, 200); err != nil {
		t.Fatalf("CompleteLoad() error: %v", err)
	}
	if it.State() != StateReady || it.Thumbnail() != 3 {
		t.Errorf("Expected ready with handle 3, got %s/%d", it.State(), it.Thumbnail())
	}
	if it.OriginalWidth != 400 || it.OriginalHeight != 200 {
		t.Errorf("Expected native 400x200, got %dx%d", it.OriginalWidth, it.OriginalHeight)
	}

	h, err := it.ReleaseThumbnail()
	if err != nil || h != 3 {
		t.Fatalf("Expected ReleaseThumbnail to return 3, got %d (%v)", h, err)
	}
	if it.State() != StatePlaceholder || it.Thumbnail().Valid() {
		t.Errorf("Expected placeholder without handle, got %s/%d", it.State(), it.Thumbnail())
	}
}

func TestErrorAndRetry(t *testing.T) {
	it := New("b", geom.NewRect(0, 0, 10, 10), "")
	if err := it.Retry(); err == nil {
		t.Error("Expected Retry on placeholder to fail")
	}
	_ = it.BeginLoad()
	cause := &FetchError{URL: "http://x", StatusCode: 404}
	if err := it.FailLoad(cause); err != nil {
		t.Fatalf("FailLoad() error: %v", err)
	}
	if it.State() != StateError {
		t.Fatalf("Expected error state, got %s", it.State())
	}
	var fe *FetchError
	if !errors.As(it.Err(), &fe) {
		t.Errorf("Expected FetchError, got %v", it.Err())
	}
	if err := it.Retry(); err != nil {
		t.Fatalf("Retry() error: %v", err)
	}
	if it.State() != StatePlaceholder || it.Err() != nil {
		t.Errorf("Expected clean placeholder after retry, got %s (%v)", it.State(), it.Err())
	}
}

func TestHighResLifecycle(t *testing.T) {
	it := New("c", geom.NewRect(0, 0, 10, 10), "")
	if _, err := it.EvictHighRes(); err == nil {
		t.Error("Expected EvictHighRes on none to fail")
	}
	if err := it.BeginHighRes(); err != nil {
		t.Fatalf("BeginHighRes() error: %v", err)
	}
	if err := it.BeginHighRes(); err == nil {
		t.Error("Expected concurrent promotion to be rejected")
	}

	tiles := []Tile{{Handle: 5}, {Handle: 6}}
	if err := it.CompleteHighRes(0, tiles, 9000, 3000); err != nil {
		t.Fatalf("CompleteHighRes() error: %v", err)
	}
	if it.HighRes() != HighResReady || len(it.Tiles()) != 2 {
		t.Fatalf("Expected ready with 2 tiles, got %s/%d", it.HighRes(), len(it.Tiles()))
	}

	handles, err := it.EvictHighRes()
	if err != nil {
		t.Fatalf("EvictHighRes() error: %v", err)
	}
	if len(handles) != 2 || handles[0] != 5 || handles[1] != 6 {
		t.Errorf("Expected handles [5 6], got %v", handles)
	}
	if it.HighRes() != HighResNone || it.Tiles() != nil || it.HighResHandle().Valid() {
		t.Error("Expected high-res fields cleared after eviction")
	}
}

func TestHighResFailureAllowsRetry(t *testing.T) {
	it := New("d", geom.NewRect(0, 0, 10, 10), "")
	_ = it.BeginHighRes()
	_ = it.FailHighRes(errors.New("boom"))
	if it.HighRes() != HighResError {
		t.Fatalf("Expected high-res error, got %s", it.HighRes())
	}
	if err := it.BeginHighRes(); err != nil {
		t.Errorf("Expected promotion retry to be allowed, got %v", err)
	}
}

func TestDrawRectPreservesAspect(t *testing.T) {
	tests := []struct {
		name   string
		native [2]int
		want   geom.Rect
	}{
		{"unknown native size", [2]int{0, 0}, geom.NewRect(0, 0, 200, 100)},
		{"wider than box", [2]int{400, 100}, geom.NewRect(0, 25, 200, 50)},
		{"taller than box", [2]int{100, 100}, geom.NewRect(50, 0, 100, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New("e", geom.NewRect(0, 0, 200, 100), "")
			it.OriginalWidth, it.OriginalHeight = tt.native[0], tt.native[1]
			if got := it.DrawRect(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTileBox(t *testing.T) {
	tile := Tile{OffsetX: 0.5, OffsetY: 0, ScaleX: 0.5, ScaleY: 1}
	got := tile.Box(geom.NewRect(10, 10, 200, 100))
	want := geom.NewRect(110, 10, 100, 100)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFetchErrorTemporary(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true}, {500, true}, {503, true}, {429, true}, {404, false}, {400, false},
	}
	for _, tt := range tests {
		e := &FetchError{URL: "u", StatusCode: tt.status}
		if got := e.Temporary(); got != tt.want {
			t.Errorf("Status %d: expected Temporary=%v, got %v", tt.status, tt.want, got)
		}
	}
}

func TestCancelTransitions(t *testing.T) {
	it := New("a", geom.NewRect(0, 0, 10, 10), "src")
	if err := it.CancelLoad(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected cancelling a placeholder to fail, got %v", err)
	}
	_ = it.BeginLoad()
	if err := it.CancelLoad(); err != nil {
		t.Fatalf("CancelLoad() error: %v", err)
	}
	if it.State() != StatePlaceholder {
		t.Errorf("Expected placeholder after cancel, got %s", it.State())
	}

	if err := it.CancelHighRes(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected cancelling idle promotion to fail, got %v", err)
	}
	_ = it.BeginHighRes()
	if err := it.CancelHighRes(); err != nil {
		t.Fatalf("CancelHighRes() error: %v", err)
	}
	if it.HighRes() != HighResNone {
		t.Errorf("Expected none after cancel, got %s", it.HighRes())
	}
}
