// Package metrics provides Prometheus instrumentation for the gallery
// streamer. All metrics are prefixed with "gallery_".
//
// # Metric Categories
//
// ## Frame Metrics
//
// Track the cooperative frame driver:
//   - FrameDuration, FramesTotal: cost and count of scheduling cycles
//   - QueryCandidates: items returned by the buffered spatial query
//   - VisibleItems: items intersecting the unbuffered viewport
//   - StaleCompletionsTotal: async results discarded after re-validation
//
// ## Scheduler Metrics
//
//   - SchedulerQueueDepth, SchedulerInFlight, SchedulerAdmissions
//
// ## Pipeline Metrics
//
// Monitor the thumbnail tiers (remote, cache, generate):
//   - TierAttemptsTotal: attempts by tier and status (success/miss/error/skipped)
//   - TierDuration: per-tier latency
//   - ThumbnailsTotal: final outcome per resolution
//   - GeneratorJobsInProgress, GeneratorWorkers: on-device generation
//   - UploadsTotal: best-effort remote uploads
//
// ## High-Resolution Metrics
//
//   - HighResPromotionsTotal: by trigger (immediate/debounced/manual) and status
//   - HighResEvictionsTotal, HighResCacheEntries, HighResTiles
//
// ## Network and Storage Metrics
//
//   - FetchRequestsTotal, FetchDuration, FetchRetriesTotal
//   - LocalStoreOpsTotal, LocalStoreBytes, LocalStoreEntries
//
// # Usage
//
// Metrics are registered at package init through promauto. Call
// InitializeMetrics once at startup so labelled series exist before the first
// scrape, and expose them with promhttp.Handler().
//
// The fetch package reports through the fetch.Observer interface; this
// package supplies the implementation (NewFetchObserver) so that fetch does
// not import metrics.
package metrics
