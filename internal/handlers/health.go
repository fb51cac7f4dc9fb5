package handlers

import (
	"net/http"
	"runtime"
	"time"

	"gallery-streamer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Frames          uint64 `json:"frames"`
	Items           int    `json:"items"`
	ThumbnailsReady int    `json:"thumbnailsReady"`
	Errors          int    `json:"errors"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// ready reports whether the frame driver has produced at least one frame.
func (h *Handlers) ready() bool {
	return h.stats.Snapshot().Frames > 0
}

// HealthCheck returns the health status of the service. Every item in
// error makes the service degraded but still ready.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.stats.Snapshot()

	response := HealthResponse{
		Ready:           stats.Frames > 0,
		Version:         startup.Version,
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		Frames:          stats.Frames,
		Items:           stats.Items,
		ThumbnailsReady: stats.ThumbnailsReady,
		Errors:          stats.Errors,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	switch {
	case !response.Ready:
		response.Status = statusStarting
	case stats.Items > 0 && stats.Errors == stats.Items:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	w.Header().Set("Content-Type", "application/json")
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only once frames are being produced
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready() {
		writeJSONStatus(w, "ready")
		return
	}
	writeJSONError(w, "not_ready", http.StatusServiceUnavailable)
}
