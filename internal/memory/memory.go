package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
)

// Config holds memory monitoring configuration.
type Config struct {
	// MemoryLimitBytes is the limit usage is measured against
	// (0 = use GOMEMLIMIT, or disable the monitor if none is set).
	MemoryLimitBytes int64

	// HighWaterMark is the usage ratio at which loading is throttled.
	HighWaterMark float64

	// LowWaterMark is the usage ratio below which throttling stops.
	LowWaterMark float64

	// CheckInterval is how often usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		HighWaterMark: 0.8,
		LowWaterMark:  0.7,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and reports memory pressure. The scheduler
// consults ShouldThrottle on every admission pass.
type Monitor struct {
	config    Config
	limit     int64
	sample    func() uint64
	stopOnce  sync.Once
	stopChan  chan struct{}
	mu        sync.RWMutex
	current   uint64
	throttled bool
}

// NewMonitor creates a monitor. Without an explicit limit or GOMEMLIMIT the
// monitor is inert and never throttles.
func NewMonitor(config Config) *Monitor {
	if config.LowWaterMark <= 0 || config.LowWaterMark > config.HighWaterMark {
		config.LowWaterMark = config.HighWaterMark
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}

	limit := config.MemoryLimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Info("Memory monitor: no memory limit configured, throttling disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		sample:   heapAlloc,
		stopChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins periodic sampling.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.monitorLoop()
}

// Stop ends sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stopChan:
			return
		}
	}
}

// Check samples usage once and updates the throttle state. Throttling
// starts at the high water mark and stops below the low water mark.
func (m *Monitor) Check() {
	if m.limit == 0 {
		return
	}
	alloc := m.sample()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case !m.throttled && usage >= m.config.HighWaterMark:
		m.throttled = true
		metrics.MemoryThrottled.Set(1)
		logging.Warn("Memory high (%.1f%% of limit), throttling asset loading", usage*100)
		go runtime.GC()
	case m.throttled && usage < m.config.LowWaterMark:
		m.throttled = false
		metrics.MemoryThrottled.Set(0)
		logging.Info("Memory recovered (%.1f%% of limit), resuming full loading", usage*100)
	}
}

// ShouldThrottle reports whether usage is under pressure.
func (m *Monitor) ShouldThrottle() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.throttled
}

// GetUsage returns the last sampled usage as a ratio of the limit, or 0
// when no limit is configured.
func (m *Monitor) GetUsage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the limit usage is measured against.
func (m *Monitor) Limit() int64 {
	return m.limit
}
