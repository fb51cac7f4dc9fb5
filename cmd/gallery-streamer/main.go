package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/fetch"
	"gallery-streamer/internal/filesystem"
	"gallery-streamer/internal/handlers"
	"gallery-streamer/internal/layout"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/media"
	"gallery-streamer/internal/memory"
	"gallery-streamer/internal/metrics"
	"gallery-streamer/internal/middleware"
	"gallery-streamer/internal/overlay"
	"gallery-streamer/internal/pipeline"
	"gallery-streamer/internal/raster"
	"gallery-streamer/internal/render"
	"gallery-streamer/internal/startup"
	"gallery-streamer/internal/storage"
	"gallery-streamer/internal/thumbnail"
	"gallery-streamer/internal/workers"

	"github.com/gorilla/mux"
)

const (
	metricsInterval = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()

	// Memory limit first, before anything allocates in bulk
	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	fetch.SetObserver(metrics.NewFetchObserver())
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media": config.MediaDir,
		"cache": config.CacheDir,
	}))

	ctx := context.Background()

	// Local thumbnail store (cache tier) and the store behind /thumbs
	var store storage.Store
	var thumbs storage.Store
	if config.CacheEnabled {
		storeStart := time.Now()
		store, err = storage.Open(ctx, config.LocalStore, config.CacheDir)
		startup.LogStoreInit(config.LocalStore, time.Since(storeStart), err)
		if err != nil {
			store = nil
		}
		thumbs, err = storage.NewDiskStore(filepath.Join(config.CacheDir, "remote"))
		if err != nil {
			logging.Warn("Thumbnail store for /thumbs unavailable: %v", err)
			thumbs = nil
		}
	} else {
		startup.LogStoreInit(config.LocalStore, 0, errCacheDisabled)
	}

	// Network collaborator
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client := fetch.NewClient(httpClient, fetch.DefaultRetryConfig())
	uploader := fetch.NewUploader(httpClient, config.RemoteUploadURL)

	// Generation worker pool
	media.InitVips(workers.ForCPU(4))
	genConfig := thumbnail.DefaultConfig()
	genConfig.Workers = workers.ForMixed(8)
	generator := thumbnail.NewGenerator(client, genConfig)
	startup.LogGeneratorInit(generator.Workers(), media.IsVipsAvailable())

	pipe := newPipeline(config, client, store, uploader, generator)

	// Scan and lay out the gallery
	galleryStart := time.Now()
	kind, err := layout.ParseKind(config.Layout)
	if err != nil {
		startup.LogFatal("Layout error: %v", err)
	}
	g, err := loadGallery(ctx, config.MediaDir, kind, layout.DefaultOptions())
	if err != nil {
		startup.LogFatal("Failed to load gallery: %v", err)
	}
	startup.LogGalleryLoaded(len(g.items), config.Layout, time.Since(galleryStart))

	// Renderer, fitted to the whole gallery
	canvas := raster.New(config.CanvasWidth, config.CanvasHeight, config.MaxTextureSize)
	scale, originX, originY := layout.Fit(g.bounds, float64(config.CanvasWidth), float64(config.CanvasHeight))
	canvas.SetTransform(render.Transform{Scale: scale, OriginX: originX, OriginY: originY})

	// Streaming engine
	eng, err := engine.New(engineConfig(config), engine.Collaborators{Renderer: canvas, Resolver: pipe})
	if err != nil {
		startup.LogFatal("Failed to create engine: %v", err)
	}
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()
	eng.SetThrottle(memMonitor)
	eng.AddPlugin(overlay.NewDetailsLoader(pipe))
	eng.AddPlugin(overlay.NewFrameStats(0))
	eng.OnLayoutChanged(g.items)

	driver := engine.NewDriver(eng, config.FrameInterval)
	driverCtx, stopDriver := context.WithCancel(context.Background())
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		if err := driver.Run(driverCtx); err != nil && err != context.Canceled {
			logging.Error("Frame driver stopped: %v", err)
		}
	}()

	// Metrics collector
	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(&statsAdapter{engine: eng, store: store}, metricsInterval)
		collector.Start()
	}

	// HTTP server
	h := handlers.New(handlers.Options{
		Driver:  driver,
		Stats:   eng,
		Canvas:  canvas,
		Thumbs:  thumbs,
		Sources: g.sources,
	})
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      wrapHandler(router, config),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, func() {
		startup.LogShutdownStep("Stopping frame driver")
		stopDriver()
		<-driverDone
		eng.Close()
		startup.LogShutdownStepComplete("Frame driver stopped")

		if collector != nil {
			collector.Stop()
		}
		memMonitor.Stop()

		startup.LogShutdownStep("Stopping thumbnail generator")
		generator.Close()
		media.ShutdownVips()
		startup.LogShutdownStepComplete("Thumbnail generator stopped")

		for _, s := range []storage.Store{store, thumbs} {
			if s == nil {
				continue
			}
			if err := s.Close(); err != nil {
				logging.Warn("Closing %s store: %v", s.Backend(), err)
			}
		}
		startup.LogShutdownStepComplete("Stores closed")
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// newPipeline wires the thumbnail tiers. A nil store or a disabled uploader
// leaves the corresponding step out.
func newPipeline(config *startup.Config, client *fetch.Client, store storage.Store, uploader *fetch.Uploader, generator *thumbnail.Generator) *pipeline.Pipeline {
	var local pipeline.LocalStore
	if store != nil {
		local = store
	}
	var up pipeline.Uploader
	if uploader.Enabled() {
		up = uploader
	}
	return pipeline.New(pipeline.Config{
		ThumbnailSize:  config.ThumbnailSize,
		RemoteTemplate: config.RemoteThumbnailURL,
		TileWorkers:    workers.ForCPU(4),
	}, client, local, up, generator)
}

func engineConfig(config *startup.Config) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.MaxConcurrentRequests = config.MaxConcurrentRequests
	cfg.Buffer = config.ViewportBuffer
	cfg.ThumbnailSize = config.ThumbnailSize
	cfg.HighResCacheSize = config.HighResCacheSize
	cfg.HighResZoomThreshold = config.HighResZoomThreshold
	cfg.ImmediateFraction = config.HighResImmediateFraction
	cfg.Debounce = config.HighResDebounce
	cfg.ThumbnailRetention = config.ThumbnailRetention
	return cfg
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	// Control API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/viewport", h.SetViewport).Methods("POST")
	api.HandleFunc("/pointer", h.SetPointer).Methods("POST")
	api.HandleFunc("/frame.png", h.GetFrame).Methods("GET")
	api.HandleFunc("/items/{id:.+}/retry", h.RetryItem).Methods("POST")
	api.HandleFunc("/items/{id:.+}/promote", h.PromoteItem).Methods("POST")

	// Sources and the thumbnail store
	r.HandleFunc("/media/{id:.+}", h.GetMedia).Methods("GET")
	r.HandleFunc("/thumbs/{id:.+}", h.GetThumb).Methods("GET")
	r.HandleFunc("/thumbs/{id:.+}", h.PutThumb).Methods("PUT")

	return r
}

func wrapHandler(router http.Handler, config *startup.Config) http.Handler {
	var handler http.Handler = router
	if config.LogHTTP {
		handler = middleware.Logger(middleware.DefaultLoggingConfig())(handler)
	}
	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

func handleShutdown(srv *http.Server, cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	cleanup()
	startup.LogShutdownComplete()
}
