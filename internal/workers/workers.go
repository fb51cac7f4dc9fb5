package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "GENERATOR_WORKERS"

// Count returns the number of workers for a task type. It respects
// container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit caps the result; 0 means no cap. A positive GENERATOR_WORKERS
// value replaces the computed count but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)
	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU). Thumbnail
// generation (fetch, decode, resize) is sized with this.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
