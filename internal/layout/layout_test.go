package layout

import (
	"math"
	"testing"

	"gallery-streamer/internal/geom"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"grid", KindGrid, false},
		{" Justified ", KindJustified, false},
		{"masonry", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q): expected %q (err %v), got %q (%v)", tt.in, tt.want, tt.wantErr, got, err)
		}
	}
}

func TestGrid(t *testing.T) {
	entries := make([]Entry, 5)
	rects := Grid(entries, Options{Width: 100, Gap: 10, CellSize: 40})

	// Two 40-unit cells and one gap fit in 100.
	want := []geom.Rect{
		geom.NewRect(0, 0, 40, 40),
		geom.NewRect(50, 0, 40, 40),
		geom.NewRect(0, 50, 40, 40),
		geom.NewRect(50, 50, 40, 40),
		geom.NewRect(0, 100, 40, 40),
	}
	for i := range want {
		if rects[i] != want[i] {
			t.Errorf("Cell %d: expected %v, got %v", i, want[i], rects[i])
		}
	}
}

func TestGridNarrowWidthKeepsOneColumn(t *testing.T) {
	rects := Grid(make([]Entry, 2), Options{Width: 10, CellSize: 40})
	if rects[1].X != 0 || rects[1].Y != 40 {
		t.Errorf("Expected a single column, got %v", rects[1])
	}
}

func TestJustifiedRowsFillWidth(t *testing.T) {
	entries := []Entry{
		{ID: "a", Width: 400, Height: 200},
		{ID: "b", Width: 200, Height: 200},
		{ID: "c", Width: 300, Height: 200},
		{ID: "d", Width: 200, Height: 200},
		{ID: "e"},
	}
	rects := Justified(entries, Options{Width: 1000, Gap: 10, RowHeight: 250})

	// a+b+c have aspect 4.5: (1000-20)/4.5 ≈ 217.8 <= 250 closes the row.
	rowH := 980 / 4.5
	for i := 0; i < 3; i++ {
		if math.Abs(rects[i].H-rowH) > 1e-9 || rects[i].Y != 0 {
			t.Errorf("Entry %d: expected first row of height %v, got %v", i, rowH, rects[i])
		}
	}
	right := rects[2].MaxX()
	if math.Abs(right-1000) > 1e-9 {
		t.Errorf("Expected the row to end at the full width, got %v", right)
	}
	if math.Abs(rects[0].W/rects[0].H-2) > 1e-9 {
		t.Errorf("Expected aspect ratio preserved, got %v", rects[0])
	}

	// The trailing row is not stretched.
	if rects[3].H != 250 || rects[4].H != 250 || rects[4].W != 250 {
		t.Errorf("Expected the last row at the target height, got %v %v", rects[3], rects[4])
	}
	if math.Abs(rects[3].Y-(rowH+10)) > 1e-9 {
		t.Errorf("Expected the second row below the first, got %v", rects[3])
	}

	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersects(rects[j]) {
				t.Errorf("Boxes %d and %d overlap: %v %v", i, j, rects[i], rects[j])
			}
		}
	}
}

func TestBoundsAndFit(t *testing.T) {
	b := Bounds([]geom.Rect{geom.NewRect(0, 0, 10, 10), geom.NewRect(90, 40, 10, 10)})
	if b != geom.NewRect(0, 0, 100, 50) {
		t.Fatalf("Expected 100x50 bounds, got %v", b)
	}

	scale, ox, oy := Fit(b, 200, 200)
	if scale != 2 || ox != 0 || oy != 50 {
		t.Errorf("Expected scale 2 at (0, 50), got %v at (%v, %v)", scale, ox, oy)
	}
	if s, _, _ := Fit(geom.Rect{}, 100, 100); s != 1 {
		t.Errorf("Expected identity scale for an empty world, got %v", s)
	}
}
