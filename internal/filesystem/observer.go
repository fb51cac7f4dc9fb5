package filesystem

// Observer records retry metrics. The implementation is provided by the
// metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveStaleError records one ESTALE result. op is "stat", "open"
	// or "read"; volume is the resolved volume label.
	ObserveStaleError(op, volume string)

	// ObserveRetryOutcome records whether an operation that hit ESTALE
	// eventually succeeded.
	ObserveRetryOutcome(op, volume string, success bool)
}

// defaultObserver is nil in tests, which skips recording.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observeStale(op, volume string) {
	if defaultObserver != nil {
		defaultObserver.ObserveStaleError(op, volume)
	}
}

func observeRetry(op, volume string, success bool) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetryOutcome(op, volume, success)
	}
}
