// Package main provides the entry point for the gallery streamer.
//
// The gallery streamer lays out a directory of images on a large world-space
// canvas and streams their thumbnails and full-resolution versions to a
// renderer as the viewport moves. Only the assets that matter for the
// current view are resident: thumbnails are loaded in priority order under
// a concurrency budget, and the dominant item is promoted to full
// resolution when the view zooms in on it.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT or GOMEMLIMIT
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Local Store: Opens the SQLite or on-disk thumbnail cache under CACHE_DIR
//  4. Component Initialization:
//     - Fetch client with retry and the best-effort uploader
//     - Thumbnail generator pool (libvips when available)
//     - Resolution pipeline: remote, local cache, then on-device generation
//     - Gallery scan and layout (grid or justified rows)
//     - Software renderer fitted to the whole gallery
//     - Streaming engine with the details loader and frame statistics plugins
//     - Memory monitor throttling admissions under pressure
//  5. Frame Driver: Runs the engine on its own goroutine at FRAME_INTERVAL
//  6. HTTP Server: Control API, frame snapshots, metrics and health
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM and releases every resource
//
// # HTTP Server
//
//   - /healthz, /livez, /readyz: Health probes
//   - /version: Build information
//   - /metrics: Prometheus metrics (when METRICS_ENABLED)
//   - GET /api/state: Engine stats; ?items=true or ?visible=true lists items
//   - POST /api/viewport: Set scale, origin and canvas size
//   - POST /api/pointer: Move or clear the pointer
//   - GET /api/frame.png: The last rendered frame
//   - POST /api/items/{id}/retry: Retry a failed thumbnail
//   - POST /api/items/{id}/promote: Load the full-resolution asset now
//   - GET /media/{id}: The item's source file
//   - GET|PUT /thumbs/{id}: A thumbnail store that REMOTE_THUMBNAIL_URL and
//     REMOTE_UPLOAD_URL may point at
//
// See package startup for the environment variables.
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests
//  2. Stop the frame driver and release every render resource
//  3. Stop the metrics collector and memory monitor
//  4. Stop the thumbnail generator and libvips
//  5. Close the stores
//
// # Build Requirements
//
// CGO is required for SQLite and libvips:
//
//	go build -o gallery-streamer ./cmd/gallery-streamer
package main
