package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Frame metrics
var (
	FrameDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_frame_duration_seconds",
			Help:    "Time spent in one scheduling/query/draw cycle",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
		},
	)

	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_frames_total",
			Help: "Total number of frames driven",
		},
	)

	QueryCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_query_candidates",
			Help:    "Number of items returned by the buffered spatial query",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	VisibleItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_visible_items",
			Help: "Number of items intersecting the viewport in the last frame",
		},
	)

	LayoutRebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_layout_rebuilds_total",
			Help: "Total number of spatial index rebuilds",
		},
	)

	ItemsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_items_indexed",
			Help: "Number of items in the spatial index",
		},
	)

	StaleCompletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_stale_completions_total",
			Help: "Completions discarded because the item was no longer wanted",
		},
	)
)

// Scheduler metrics
var (
	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_scheduler_queue_depth",
			Help: "Number of items in the request queue",
		},
	)

	SchedulerInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_scheduler_in_flight",
			Help: "Number of thumbnail resolutions in flight",
		},
	)

	SchedulerAdmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scheduler_admissions_total",
			Help: "Total number of items admitted for resolution",
		},
	)
)

// Thumbnail pipeline metrics
var (
	TierAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_tier_attempts_total",
			Help: "Thumbnail tier attempts by tier and outcome",
		},
		[]string{"tier", "status"},
	)

	TierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_tier_duration_seconds",
			Help:    "Duration of one thumbnail tier attempt",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"tier"},
	)

	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbnails_total",
			Help: "Thumbnail resolutions by final state",
		},
		[]string{"status"},
	)

	ThumbnailsReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_thumbnails_ready",
			Help: "Number of thumbnails currently held as render resources",
		},
	)

	RetentionEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_thumbnail_retention_evictions_total",
			Help: "Thumbnails released by the retention policy",
		},
	)

	GeneratorJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_generator_jobs_in_progress",
			Help: "On-device thumbnail generations currently running",
		},
	)

	GeneratorWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_generator_workers",
			Help: "Number of thumbnail generator workers",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_remote_uploads_total",
			Help: "Best-effort remote thumbnail uploads by outcome",
		},
		[]string{"status"},
	)
)

// High-resolution metrics
var (
	HighResPromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_highres_promotions_total",
			Help: "High-resolution promotions by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	HighResEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_highres_evictions_total",
			Help: "High-resolution entries evicted from the LRU cache",
		},
	)

	HighResCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_highres_cache_entries",
			Help: "Number of entries in the high-resolution cache",
		},
	)

	HighResTiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_highres_tiles",
			Help:    "Number of tiles per promoted asset",
			Buckets: []float64{1, 2, 4, 6, 9, 16, 25, 64},
		},
	)
)

// Network and storage metrics
var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_fetch_requests_total",
			Help: "Fetch requests by scheme and outcome",
		},
		[]string{"scheme", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_fetch_duration_seconds",
			Help:    "Fetch duration including retries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"scheme"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_stale_errors_total",
			Help: "Stale NFS file handle errors by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_retry_outcomes_total",
			Help: "Outcome of filesystem operations that hit a stale handle",
		},
		[]string{"operation", "volume", "status"},
	)

	FetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_fetch_retries_total",
			Help: "Fetch retry attempts after transient failures",
		},
	)

	LocalStoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_local_store_operations_total",
			Help: "Local thumbnail store operations by backend, operation and outcome",
		},
		[]string{"backend", "operation", "status"},
	)

	LocalStoreBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_local_store_bytes",
			Help: "Bytes held by the local thumbnail store",
		},
		[]string{"backend"},
	)

	LocalStoreEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_local_store_entries",
			Help: "Entries held by the local thumbnail store",
		},
		[]string{"backend"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryThrottled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_throttled",
			Help: "Whether admissions are throttled by memory pressure (1 = throttled)",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
