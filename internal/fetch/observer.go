package fetch

// Observer records fetch metrics. The implementation is provided by the
// metrics package to break the import cycle between fetch and metrics.
type Observer interface {
	// ObserveFetch records the total duration (retries included) and the
	// outcome of one Fetch call. scheme is "http" or "file".
	ObserveFetch(scheme string, durationSeconds float64, err error)

	// ObserveRetry records one retry after a transient failure.
	ObserveRetry()

	// ObserveUpload records the outcome of one best-effort upload.
	ObserveUpload(err error)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observeFetch(scheme string, seconds float64, err error) {
	if defaultObserver != nil {
		defaultObserver.ObserveFetch(scheme, seconds, err)
	}
}

func observeRetry() {
	if defaultObserver != nil {
		defaultObserver.ObserveRetry()
	}
}

func observeUpload(err error) {
	if defaultObserver != nil {
		defaultObserver.ObserveUpload(err)
	}
}
