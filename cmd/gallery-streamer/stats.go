package main

import (
	"context"
	"errors"
	"time"

	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/storage"
)

var errCacheDisabled = errors.New("cache directory not writable")

// snapshotter is the part of the engine the collector reads. Snapshot is
// safe off the driver goroutine.
type snapshotter interface {
	Snapshot() engine.Stats
}

// usageReporter is the part of a store the collector reads.
type usageReporter interface {
	Usage(ctx context.Context) (int64, int64, error)
	Backend() string
}

// statsAdapter adapts the engine snapshot and store usage to
// metrics.StatsProvider.
type statsAdapter struct {
	engine snapshotter
	store  usageReporter
}

var _ metrics.StatsProvider = (*statsAdapter)(nil)

// storage.Store satisfies usageReporter.
var _ usageReporter = (storage.Store)(nil)

// CollectStats implements metrics.StatsProvider
func (a *statsAdapter) CollectStats() metrics.Stats {
	snap := a.engine.Snapshot()
	stats := metrics.Stats{
		Items:           snap.Items,
		ThumbnailsReady: snap.ThumbnailsReady,
		HighResEntries:  snap.HighResEntries,
	}

	if a.store == nil {
		return stats
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bytes, entries, err := a.store.Usage(ctx)
	if err != nil {
		logging.Debug("store usage unavailable: %v", err)
		return stats
	}
	stats.StoreBackend = a.store.Backend()
	stats.StoreBytes = bytes
	stats.StoreEntries = entries
	return stats
}
