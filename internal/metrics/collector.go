package metrics

import (
	"time"

	"gallery-streamer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	CollectStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	Items           int
	ThumbnailsReady int
	HighResEntries  int
	StoreBackend    string
	StoreBytes      int64
	StoreEntries    int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.CollectStats()

	ItemsIndexed.Set(float64(stats.Items))
	ThumbnailsReady.Set(float64(stats.ThumbnailsReady))
	HighResCacheEntries.Set(float64(stats.HighResEntries))
	if stats.StoreBackend != "" {
		LocalStoreBytes.WithLabelValues(stats.StoreBackend).Set(float64(stats.StoreBytes))
		LocalStoreEntries.WithLabelValues(stats.StoreBackend).Set(float64(stats.StoreEntries))
	}

	logging.Debug("Metrics collected: items=%d, thumbnails=%d, highres=%d, store=%d bytes",
		stats.Items, stats.ThumbnailsReady, stats.HighResEntries, stats.StoreBytes)
}
