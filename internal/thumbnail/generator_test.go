package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/media"
)

type mapFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	calls int
	block chan struct{}
}

func (f *mapFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	data, ok := f.data[url]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, &asset.FetchError{URL: url, StatusCode: 404}
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	return buf.Bytes()
}

func newTestGenerator(t *testing.T, f Fetcher, workers int) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = workers
	cfg.UseVips = false
	g := NewGenerator(f, cfg)
	t.Cleanup(g.Close)
	return g
}

func TestGenerateFitsTarget(t *testing.T) {
	f := &mapFetcher{data: map[string][]byte{"src.png": pngBytes(t, 400, 200)}}
	g := newTestGenerator(t, f, 2)

	px, err := g.Generate(context.Background(), "src.png", 100)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if px.Width != 100 || px.Height != 50 {
		t.Errorf("Expected 100x50, got %dx%d", px.Width, px.Height)
	}
	if len(px.Pix) != 100*50*4 {
		t.Errorf("Expected %d pixel bytes, got %d", 100*50*4, len(px.Pix))
	}
	if px.NativeWidth != 400 || px.NativeHeight != 200 {
		t.Errorf("Expected native 400x200, got %dx%d", px.NativeWidth, px.NativeHeight)
	}
	dims, err := media.DecodeConfig(px.Encoded)
	if err != nil || dims.Width != 100 || dims.Height != 50 {
		t.Errorf("Expected 100x50 encoded JPEG, got %+v (%v)", dims, err)
	}

	generated, failed := g.Stats()
	if generated != 1 || failed != 0 {
		t.Errorf("Expected 1 generated 0 failed, got %d / %d", generated, failed)
	}
}

func TestGenerateFailures(t *testing.T) {
	f := &mapFetcher{data: map[string][]byte{"bad.png": []byte("garbage")}}
	g := newTestGenerator(t, f, 1)

	_, err := g.Generate(context.Background(), "missing.png", 100)
	var fe *asset.FetchError
	if !errors.As(err, &fe) {
		t.Errorf("Expected FetchError, got %v", err)
	}

	_, err = g.Generate(context.Background(), "bad.png", 100)
	var de *asset.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected DecodeError, got %v", err)
	}

	if _, failed := g.Stats(); failed != 2 {
		t.Errorf("Expected 2 failures, got %d", failed)
	}
}

func TestGenerateConcurrent(t *testing.T) {
	f := &mapFetcher{data: map[string][]byte{"src.png": pngBytes(t, 64, 64)}}
	g := newTestGenerator(t, f, 3)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			px, err := g.Generate(context.Background(), "src.png", 32)
			if err == nil && (px.Width != 32 || px.Height != 32) {
				err = errors.New("unexpected size")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Generate() error: %v", err)
		}
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	f := &mapFetcher{data: map[string][]byte{}, block: make(chan struct{})}
	g := newTestGenerator(t, f, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Generate(ctx, "slow.png", 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestGenerateAfterClose(t *testing.T) {
	g := NewGenerator(&mapFetcher{}, Config{Workers: 1, UseVips: false})
	g.Close()

	if _, err := g.Generate(context.Background(), "x", 10); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
