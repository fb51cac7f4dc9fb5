package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-streamer/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	MediaDir       string
	CacheDir       string
	LocalStore     string
	Port           string
	MetricsEnabled bool
	LogHTTP        bool

	FrameInterval time.Duration
	CanvasWidth   int
	CanvasHeight  int
	Layout        string

	MaxConcurrentRequests int
	ViewportBuffer        float64
	ThumbnailSize         int
	MaxTextureSize        int

	HighResCacheSize         int
	HighResZoomThreshold     float64
	HighResImmediateFraction float64
	HighResDebounce          time.Duration
	ThumbnailRetention       int

	RemoteThumbnailURL string
	RemoteUploadURL    string

	// CacheEnabled is false when CACHE_DIR is not writable; the local
	// tier is then skipped.
	CacheEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		MediaDir:       getEnv("MEDIA_DIR", "/media"),
		CacheDir:       getEnv("CACHE_DIR", "/cache"),
		LocalStore:     strings.ToLower(getEnv("LOCAL_STORE", "sqlite")),
		Port:           getEnv("PORT", "8080"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		LogHTTP:        getEnvBool("LOG_HTTP", true),

		FrameInterval: getEnvDuration("FRAME_INTERVAL", 16*time.Millisecond),
		CanvasWidth:   getEnvInt("CANVAS_WIDTH", 1280),
		CanvasHeight:  getEnvInt("CANVAS_HEIGHT", 800),
		Layout:        strings.ToLower(getEnv("LAYOUT", "justified")),

		MaxConcurrentRequests: getEnvInt("MAX_CONCURRENT_REQUESTS", 6),
		ViewportBuffer:        getEnvFloat("VIEWPORT_BUFFER", 0.5),
		ThumbnailSize:         getEnvInt("THUMBNAIL_SIZE", 256),
		MaxTextureSize:        getEnvInt("MAX_TEXTURE_SIZE", 4096),

		HighResCacheSize:         getEnvInt("HIGHRES_CACHE_SIZE", 6),
		HighResZoomThreshold:     getEnvFloat("HIGHRES_ZOOM_THRESHOLD", 2.0),
		HighResImmediateFraction: getEnvFloat("HIGHRES_IMMEDIATE_FRACTION", 0.8),
		HighResDebounce:          getEnvDuration("HIGHRES_DEBOUNCE", 250*time.Millisecond),
		ThumbnailRetention:       getEnvInt("THUMBNAIL_RETENTION", 0),

		RemoteThumbnailURL: os.Getenv("REMOTE_THUMBNAIL_URL"),
		RemoteUploadURL:    os.Getenv("REMOTE_UPLOAD_URL"),
	}

	if config.LocalStore != "sqlite" && config.LocalStore != "disk" {
		logging.Warn("  Invalid LOCAL_STORE %q, using default: sqlite", config.LocalStore)
		config.LocalStore = "sqlite"
	}
	if config.Layout != "grid" && config.Layout != "justified" {
		logging.Warn("  Invalid LAYOUT %q, using default: justified", config.Layout)
		config.Layout = "justified"
	}
	if config.ThumbnailRetention < 0 {
		logging.Warn("  Invalid THUMBNAIL_RETENTION %d, retention disabled", config.ThumbnailRetention)
		config.ThumbnailRetention = 0
	}

	logging.Info("  MEDIA_DIR:                  %s", config.MediaDir)
	logging.Info("  CACHE_DIR:                  %s", config.CacheDir)
	logging.Info("  LOCAL_STORE:                %s", config.LocalStore)
	logging.Info("  PORT:                       %s", config.Port)
	logging.Info("  METRICS_ENABLED:            %v", config.MetricsEnabled)
	logging.Info("  FRAME_INTERVAL:             %s", config.FrameInterval)
	logging.Info("  CANVAS:                     %dx%d", config.CanvasWidth, config.CanvasHeight)
	logging.Info("  LAYOUT:                     %s", config.Layout)
	logging.Info("  MAX_CONCURRENT_REQUESTS:    %d", config.MaxConcurrentRequests)
	logging.Info("  VIEWPORT_BUFFER:            %.2f", config.ViewportBuffer)
	logging.Info("  THUMBNAIL_SIZE:             %d", config.ThumbnailSize)
	logging.Info("  MAX_TEXTURE_SIZE:           %d", config.MaxTextureSize)
	logging.Info("  HIGHRES_CACHE_SIZE:         %d", config.HighResCacheSize)
	logging.Info("  HIGHRES_ZOOM_THRESHOLD:     %.2f", config.HighResZoomThreshold)
	logging.Info("  HIGHRES_IMMEDIATE_FRACTION: %.2f", config.HighResImmediateFraction)
	logging.Info("  HIGHRES_DEBOUNCE:           %s", config.HighResDebounce)
	logging.Info("  THUMBNAIL_RETENTION:        %s", retentionString(config.ThumbnailRetention))
	logging.Info("  REMOTE_THUMBNAIL_URL:       %s", orNone(config.RemoteThumbnailURL))
	logging.Info("  REMOTE_UPLOAD_URL:          %s", orNone(config.RemoteUploadURL))
	logging.Info("  LOG_LEVEL:                  %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	config.MediaDir, err = filepath.Abs(config.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", config.MediaDir)

	config.CacheDir, err = filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	// Check/create media directory (warning only)
	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	config.CacheEnabled = setupOptionalDir(config.CacheDir, "cache")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Local cache tier: %s", enabledString(config.CacheEnabled))
	logging.Info("    Remote tier:      %s", enabledString(config.RemoteThumbnailURL != ""))
	logging.Info("    Remote upload:    %s", enabledString(config.RemoteUploadURL != ""))
	logging.Info("    Metrics:          %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func retentionString(limit int) string {
	if limit <= 0 {
		return "unbounded"
	}
	return strconv.Itoa(limit)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// LogStoreInit logs local store initialization
func LogStoreInit(backend string, duration time.Duration, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LOCAL STORE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if err != nil {
		logging.Warn("  Local store (%s) unavailable: %v", backend, err)
		logging.Warn("  The local cache tier will be skipped")
		return
	}
	logging.Info("  [OK] %s store opened in %v", backend, duration)
}

// LogGeneratorInit logs thumbnail generator initialization
func LogGeneratorInit(workers int, vips bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL GENERATOR INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Workers: %d", workers)
	if vips {
		logging.Info("  [OK] libvips available, using shrink-on-load")
	} else {
		logging.Info("  libvips not available, using pure Go decoding")
	}
}

// LogGalleryLoaded logs the result of the initial media scan
func LogGalleryLoaded(items int, layout string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("GALLERY")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %d items laid out (%s) in %v", items, layout, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		logging.Info("  Routes registered (set LOG_LEVEL=debug to list them)")
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group != "" {
			logging.Debug("  [%s]", group)
		} else {
			logging.Debug("  [root]")
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Control API:   http://0.0.0.0:%s/api/state", config.Port)
	logging.Info("    Frame:         http://0.0.0.0:%s/api/frame.png", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ____       _ _                    ____  _
  / ___| __ _| | | ___ _ __ _   _   / ___|| |_ _ __ ___  __ _ _ __ ___   ___ _ __
 | |  _ / _' | | |/ _ \ '__| | | |  \___ \| __| '__/ _ \/ _' | '_ ' _ \ / _ \ '__|
 | |_| | (_| | | |  __/ |  | |_| |   ___) | |_| | |  __/ (_| | | | | | |  __/ |
  \____|\__,_|_|_|\___|_|   \__, |  |____/ \__|_|  \___|\__,_|_| |_| |_|\___|_|
                            |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
