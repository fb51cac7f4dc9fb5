package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GALLERY_TEST_SET", "custom")

	if got := getEnv("GALLERY_TEST_SET", "default"); got != "custom" {
		t.Errorf("Expected custom, got %s", got)
	}
	if got := getEnv("GALLERY_TEST_UNSET", "default"); got != "default" {
		t.Errorf("Expected default, got %s", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		def    bool
		expect bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric false", "0", true, false},
		{"invalid uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GALLERY_TEST_BOOL", tt.value)
			if got := getEnvBool("GALLERY_TEST_BOOL", tt.def); got != tt.expect {
				t.Errorf("Expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("GALLERY_TEST_INT", "12")
	t.Setenv("GALLERY_TEST_BAD_INT", "twelve")
	t.Setenv("GALLERY_TEST_FLOAT", "1.5")
	t.Setenv("GALLERY_TEST_BAD_FLOAT", "x")
	t.Setenv("GALLERY_TEST_DURATION", "100ms")
	t.Setenv("GALLERY_TEST_BAD_DURATION", "soon")
	t.Setenv("GALLERY_TEST_NEG_DURATION", "-1s")

	if got := getEnvInt("GALLERY_TEST_INT", 3); got != 12 {
		t.Errorf("Expected 12, got %d", got)
	}
	if got := getEnvInt("GALLERY_TEST_BAD_INT", 3); got != 3 {
		t.Errorf("Expected default 3, got %d", got)
	}
	if got := getEnvFloat("GALLERY_TEST_FLOAT", 2); got != 1.5 {
		t.Errorf("Expected 1.5, got %v", got)
	}
	if got := getEnvFloat("GALLERY_TEST_BAD_FLOAT", 2); got != 2 {
		t.Errorf("Expected default 2, got %v", got)
	}
	if got := getEnvDuration("GALLERY_TEST_DURATION", time.Second); got != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", got)
	}
	if got := getEnvDuration("GALLERY_TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("Expected default 1s, got %v", got)
	}
	if got := getEnvDuration("GALLERY_TEST_NEG_DURATION", time.Second); got != time.Second {
		t.Errorf("Expected default 1s for negative duration, got %v", got)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "media")
	cache := filepath.Join(dir, "cache")

	t.Setenv("MEDIA_DIR", media)
	t.Setenv("CACHE_DIR", cache)
	t.Setenv("LOCAL_STORE", "DISK")
	t.Setenv("LAYOUT", "mosaic")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "3")
	t.Setenv("HIGHRES_DEBOUNCE", "50ms")
	t.Setenv("THUMBNAIL_RETENTION", "-4")
	t.Setenv("REMOTE_THUMBNAIL_URL", "http://thumbs/%s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MediaDir != media {
		t.Errorf("Expected MediaDir %s, got %s", media, cfg.MediaDir)
	}
	if _, err := os.Stat(media); err != nil {
		t.Errorf("Expected media directory to be created: %v", err)
	}
	if !cfg.CacheEnabled {
		t.Error("Expected writable cache directory to enable the cache")
	}
	if cfg.LocalStore != "disk" {
		t.Errorf("Expected LocalStore disk, got %s", cfg.LocalStore)
	}
	if cfg.Layout != "justified" {
		t.Errorf("Expected invalid layout to fall back to justified, got %s", cfg.Layout)
	}
	if cfg.MaxConcurrentRequests != 3 {
		t.Errorf("Expected MaxConcurrentRequests 3, got %d", cfg.MaxConcurrentRequests)
	}
	if cfg.HighResDebounce != 50*time.Millisecond {
		t.Errorf("Expected HighResDebounce 50ms, got %v", cfg.HighResDebounce)
	}
	if cfg.ThumbnailRetention != 0 {
		t.Errorf("Expected negative retention to disable it, got %d", cfg.ThumbnailRetention)
	}
	if cfg.HighResZoomThreshold != 2.0 {
		t.Errorf("Expected default zoom threshold 2.0, got %v", cfg.HighResZoomThreshold)
	}
	if cfg.RemoteThumbnailURL != "http://thumbs/%s" {
		t.Errorf("Expected remote template to be kept, got %s", cfg.RemoteThumbnailURL)
	}
}

func TestEnsureDirectoryRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureDirectory(path, "test"); err == nil {
		t.Error("Expected error for a regular file")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/api/state", noop).Methods("GET").Name("state")
	router.HandleFunc("/api/items/{id}/retry", noop).Methods("POST")
	router.HandleFunc("/healthz", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("Expected 3 routes, got %d", len(routes))
	}
	if routes[0].Method != "GET" || routes[0].Path != "/api/state" || routes[0].Name != "state" {
		t.Errorf("Unexpected first route: %+v", routes[0])
	}
	if routes[2].Method != "*" {
		t.Errorf("Expected wildcard method for route without methods, got %s", routes[2].Method)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/items/{id}/retry", "api/items"},
		{"/api/state", "api/state"},
		{"/healthz", "healthz"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}
}
