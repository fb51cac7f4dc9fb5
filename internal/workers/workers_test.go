package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"CPU-bound", 1.0, 0, max(available, 1)},
		{"I/O-bound", 2.0, 0, max(available*2, 1)},
		{"mixed", 1.5, 0, max(int(float64(available)*1.5), 1)},
		{"limited", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"override used", "5", 0, 5},
		{"override capped by limit", "50", 8, 8},
		{"invalid override ignored", "lots", 1, 1},
		{"zero override ignored", "0", 1, 1},
		{"negative override ignored", "-3", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestHelpersNeverReturnZero(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	for name, fn := range map[string]func(int) int{"ForCPU": ForCPU, "ForIO": ForIO, "ForMixed": ForMixed} {
		if got := fn(4); got < 1 || got > 4 {
			t.Errorf("%s(4): expected 1..4, got %d", name, got)
		}
	}
}
