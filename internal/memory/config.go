package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"gallery-streamer/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for libvips, SQLite and goroutine stacks.
const DefaultMemoryRatio = 0.85

// ConfigResult describes how GOMEMLIMIT was configured.
type ConfigResult struct {
	// Configured indicates whether a Go memory limit is in effect.
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	// ContainerLimit is the container memory limit in bytes (0 if not set).
	ContainerLimit int64

	// GoMemLimit is the effective Go memory limit in bytes (0 if not set).
	GoMemLimit int64

	// Ratio is the MEMORY_RATIO used (0 if not applicable).
	Ratio float64
}

// ConfigureFromEnv sets the Go memory limit from the environment. Call it
// early in main, before large allocations.
//
//   - GOMEMLIMIT: read by the runtime itself; takes precedence.
//   - MEMORY_LIMIT: container limit in bytes, e.g. from the Kubernetes
//     Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the heap (default 0.85).
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: "none"}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q, memory limit not configured", raw)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio(os.Getenv("MEMORY_RATIO"))
	goMemLimit := int64(math.Round(float64(containerLimit) * ratio))
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// parseRatio returns the ratio in raw, or DefaultMemoryRatio when raw is
// empty, malformed or outside (0, 1].
func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", raw, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes formats bytes into a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
