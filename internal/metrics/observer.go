package metrics

import (
	"gallery-streamer/internal/fetch"
	"gallery-streamer/internal/filesystem"
)

// fetchObserver implements fetch.Observer using the Prometheus metrics
// declared in this package.
type fetchObserver struct{}

// NewFetchObserver creates an observer that records fetch metrics into the
// counters and histograms declared in metrics.go.
func NewFetchObserver() fetch.Observer {
	return &fetchObserver{}
}

func (o *fetchObserver) ObserveFetch(scheme string, durationSeconds float64, err error) {
	FetchDuration.WithLabelValues(scheme).Observe(durationSeconds)
	status := "success"
	if err != nil {
		status = "error"
	}
	FetchRequestsTotal.WithLabelValues(scheme, status).Inc()
}

func (o *fetchObserver) ObserveRetry() {
	FetchRetriesTotal.Inc()
}

func (o *fetchObserver) ObserveUpload(err error) {
	if err != nil {
		UploadsTotal.WithLabelValues("error").Inc()
		return
	}
	UploadsTotal.WithLabelValues("success").Inc()
}

// filesystemObserver implements filesystem.Observer.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records stale handle
// retries.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveStaleError(op, volume string) {
	FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryOutcome(op, volume string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	FilesystemRetryOutcomes.WithLabelValues(op, volume, status).Inc()
}
