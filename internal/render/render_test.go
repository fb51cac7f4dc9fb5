package render

import (
	"testing"

	"gallery-streamer/internal/geom"
)

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Scale: 2.5, OriginX: -100, OriginY: 40}
	sx, sy := tr.ToScreen(10, 20)
	if sx != -75 || sy != 90 {
		t.Errorf("Expected screen (-75, 90), got (%f, %f)", sx, sy)
	}
	wx, wy := tr.ToWorld(sx, sy)
	if wx != 10 || wy != 20 {
		t.Errorf("Expected world (10, 20), got (%f, %f)", wx, wy)
	}
}

func TestRectToScreen(t *testing.T) {
	tr := Transform{Scale: 0.5, OriginX: 10, OriginY: 10}
	got := tr.RectToScreen(geom.NewRect(100, 200, 40, 20))
	want := geom.NewRect(60, 110, 20, 10)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestHandleValid(t *testing.T) {
	if Handle(0).Valid() {
		t.Error("Expected zero handle to be invalid")
	}
	if !Handle(7).Valid() {
		t.Error("Expected non-zero handle to be valid")
	}
}
