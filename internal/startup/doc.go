// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Directory scanned for gallery images (default: /media)
//   - CACHE_DIR: Directory for the local thumbnail store (default: /cache)
//   - LOCAL_STORE: Local store backend, sqlite or disk (default: sqlite)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_ENABLED: Serve /metrics and run the collector (default: true)
//   - LOG_HTTP: Log API requests (default: true)
//   - FRAME_INTERVAL: Frame driver tick as Go duration (default: 16ms)
//   - CANVAS_WIDTH, CANVAS_HEIGHT: Raster canvas size (default: 1280x800)
//   - LAYOUT: grid or justified (default: justified)
//   - MAX_CONCURRENT_REQUESTS: Thumbnail admission budget (default: 6)
//   - VIEWPORT_BUFFER: Prefetch margin as a fraction of the view (default: 0.5)
//   - THUMBNAIL_SIZE: Longest edge of generated thumbnails (default: 256)
//   - MAX_TEXTURE_SIZE: Largest single render resource edge (default: 4096)
//   - HIGHRES_CACHE_SIZE: Full-resolution assets kept resident (default: 6)
//   - HIGHRES_ZOOM_THRESHOLD: Scale above which promotion is considered (default: 2.0)
//   - HIGHRES_IMMEDIATE_FRACTION: Screen fraction that skips the debounce (default: 0.8)
//   - HIGHRES_DEBOUNCE: Promotion debounce as Go duration (default: 250ms)
//   - THUMBNAIL_RETENTION: Ready thumbnails kept off-screen, 0 for unbounded (default: 0)
//   - REMOTE_THUMBNAIL_URL: Template with %s for the item ID; enables the remote tier
//   - REMOTE_UPLOAD_URL: Template with %s for uploading generated thumbnails
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// Malformed numbers and durations are logged and replaced by their defaults.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogStoreInit]: Local store backend and timing
//   - [LogGeneratorInit]: Thumbnail generator workers and libvips availability
//   - [LogGalleryLoaded]: Initial scan and layout
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
