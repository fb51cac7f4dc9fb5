package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gallery-streamer/internal/asset"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), fastRetry())
	data, err := c.Fetch(context.Background(), srv.URL+"/a.jpg")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Expected payload, got %q", data)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), fastRetry())
	data, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Expected ok, got %q", data)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), fastRetry())
	_, err := c.Fetch(context.Background(), srv.URL)
	var fe *asset.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", fe.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single call, got %d", calls.Load())
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), fastRetry())
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 1 attempt + 2 retries, got %d calls", calls.Load())
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.bin")
	if err := os.WriteFile(path, []byte("local"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	c := NewClient(nil, fastRetry())
	for _, u := range []string{path, "file://" + path} {
		data, err := c.Fetch(context.Background(), u)
		if err != nil {
			t.Fatalf("Fetch(%s) error: %v", u, err)
		}
		if string(data) != "local" {
			t.Errorf("Expected local, got %q", data)
		}
	}

	_, err := c.Fetch(context.Background(), filepath.Join(dir, "missing"))
	var fe *asset.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 FetchError for missing file, got %v", err)
	}
}

func TestUploaderPut(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	u := NewUploader(srv.Client(), srv.URL+"/thumbs/%s")
	if !u.Enabled() {
		t.Fatal("Expected uploader to be enabled")
	}
	if err := u.Upload(context.Background(), "dir/a b.jpg", []byte("jpeg")); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("Expected PUT, got %s", gotMethod)
	}
	if gotPath != "/thumbs/dir%2Fa%20b.jpg" {
		t.Errorf("Expected escaped id in path, got %s", gotPath)
	}
	if string(gotBody) != "jpeg" {
		t.Errorf("Expected body jpeg, got %q", gotBody)
	}
}

func TestUploaderDisabled(t *testing.T) {
	u := NewUploader(nil, "")
	if u.Enabled() {
		t.Error("Expected empty template to disable uploads")
	}
	if err := u.Upload(context.Background(), "x", nil); err != nil {
		t.Errorf("Expected disabled upload to be a no-op, got %v", err)
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		template, id, want string
	}{
		{"http://h/thumbs/%s.jpg", "a", "http://h/thumbs/a.jpg"},
		{"http://h/thumbs/", "a b", "http://h/thumbs/a%20b"},
		{"http://h/thumbs", "x/y", "http://h/thumbs/x%2Fy"},
	}
	for _, tt := range tests {
		if got := ExpandTemplate(tt.template, tt.id); got != tt.want {
			t.Errorf("ExpandTemplate(%q, %q): expected %q, got %q", tt.template, tt.id, tt.want, got)
		}
	}
}

type uploadObserver struct {
	uploads chan error
}

func (o *uploadObserver) ObserveFetch(string, float64, error) {}
func (o *uploadObserver) ObserveRetry()                       {}
func (o *uploadObserver) ObserveUpload(err error)             { o.uploads <- err }

func TestUploadBestEffortReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs := &uploadObserver{uploads: make(chan error, 1)}
	SetObserver(obs)
	defer SetObserver(nil)

	NewUploader(srv.Client(), srv.URL+"/thumbs/%s").UploadBestEffort("a", []byte("jpeg"))

	select {
	case err := <-obs.uploads:
		var fe *asset.FetchError
		if !errors.As(err, &fe) || fe.StatusCode != http.StatusInternalServerError {
			t.Errorf("Expected 500 FetchError, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for best-effort upload")
	}
}
