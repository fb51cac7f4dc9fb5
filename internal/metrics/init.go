package metrics

// Tier labels used by the thumbnail pipeline.
var tierLabels = []string{"remote", "cache", "generate"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, tier := range tierLabels {
		for _, status := range []string{"success", "miss", "error", "skipped"} {
			TierAttemptsTotal.WithLabelValues(tier, status)
		}
		TierDuration.WithLabelValues(tier)
	}

	for _, status := range []string{"ready", "error", "stale"} {
		ThumbnailsTotal.WithLabelValues(status)
	}

	for _, trigger := range []string{"immediate", "debounced", "manual"} {
		for _, status := range []string{"started", "success", "error", "cancelled"} {
			HighResPromotionsTotal.WithLabelValues(trigger, status)
		}
	}

	for _, status := range []string{"success", "error"} {
		UploadsTotal.WithLabelValues(status)
	}

	for _, scheme := range []string{"http", "file"} {
		for _, status := range []string{"success", "error"} {
			FetchRequestsTotal.WithLabelValues(scheme, status)
		}
		FetchDuration.WithLabelValues(scheme)
	}

	for _, backend := range []string{"sqlite", "disk"} {
		for _, op := range []string{"get", "put"} {
			for _, status := range []string{"hit", "miss", "success", "error"} {
				LocalStoreOpsTotal.WithLabelValues(backend, op, status)
			}
		}
		LocalStoreBytes.WithLabelValues(backend)
		LocalStoreEntries.WithLabelValues(backend)
	}
}
