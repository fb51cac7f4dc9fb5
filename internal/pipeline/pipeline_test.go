package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"sync"
	"testing"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/thumbnail"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	return buf.Bytes()
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if d, ok := f.data[url]; ok {
		return d, nil
	}
	return nil, &asset.FetchError{URL: url, StatusCode: 404}
}

type fakeStore struct {
	data   map[string][]byte
	getErr error
	puts   []string
}

func (s *fakeStore) Get(_ context.Context, id string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	d, ok := s.data[id]
	return d, ok, nil
}

func (s *fakeStore) Put(_ context.Context, id string, data []byte) error {
	if s.data == nil {
		s.data = map[string][]byte{}
	}
	s.data[id] = data
	s.puts = append(s.puts, id)
	return nil
}

type fakeGenerator struct {
	calls int
	px    thumbnail.Pixels
	err   error
}

func (g *fakeGenerator) Generate(context.Context, string, int) (thumbnail.Pixels, error) {
	g.calls++
	return g.px, g.err
}

type fakeUploader struct {
	ids []string
}

func (u *fakeUploader) UploadBestEffort(id string, _ []byte) {
	u.ids = append(u.ids, id)
}

func TestRemoteFailureFallsThroughToCacheHit(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{}}
	store := &fakeStore{data: map[string][]byte{"a": pngBytes(t, 8, 4)}}
	gen := &fakeGenerator{}
	p := New(Config{}, fetcher, store, nil, gen)

	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a", SourceURL: "src/a", ThumbnailURL: "remote/a"})

	if res.Err != nil {
		t.Fatalf("Expected success, got %v", res.Err)
	}
	if res.Tier != TierCache {
		t.Errorf("Expected cache tier, got %s", res.Tier)
	}
	if res.Image == nil || res.Image.Bounds().Dx() != 8 {
		t.Errorf("Expected decoded 8px wide image, got %v", res.Image)
	}
	if gen.calls != 0 {
		t.Errorf("Expected generator not to be invoked, got %d calls", gen.calls)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "remote/a" {
		t.Errorf("Expected one remote fetch, got %v", fetcher.calls)
	}
}

func TestRemoteSuccessIsCachedLocally(t *testing.T) {
	data := pngBytes(t, 4, 4)
	fetcher := &fakeFetcher{data: map[string][]byte{"http://thumbs/a%20b": data}}
	store := &fakeStore{}
	p := New(Config{RemoteTemplate: "http://thumbs/%s"}, fetcher, store, nil, nil)

	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a b"})
	if res.Err != nil || res.Tier != TierRemote {
		t.Fatalf("Expected remote tier success, got %s / %v", res.Tier, res.Err)
	}
	if !bytes.Equal(store.data["a b"], data) {
		t.Error("Expected remote thumbnail to be written to the local store")
	}
}

func TestUnavailableStoreFallsThroughToGeneration(t *testing.T) {
	store := &fakeStore{getErr: &asset.CacheError{Op: "get", ID: "a", Err: errors.New("disk gone")}}
	gen := &fakeGenerator{px: thumbnail.Pixels{Pix: make([]byte, 16), Width: 2, Height: 2, NativeWidth: 20, NativeHeight: 20, Encoded: []byte("jpeg")}}
	up := &fakeUploader{}
	p := New(Config{}, &fakeFetcher{}, store, up, gen)

	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a", SourceURL: "src/a"})
	if res.Err != nil || res.Tier != TierGenerate {
		t.Fatalf("Expected generated thumbnail, got %s / %v", res.Tier, res.Err)
	}
	if res.Pixels == nil || res.Pixels.Width != 2 {
		t.Fatalf("Expected 2px pixels, got %+v", res.Pixels)
	}
	if res.NativeWidth != 20 || res.NativeHeight != 20 {
		t.Errorf("Expected native 20x20, got %dx%d", res.NativeWidth, res.NativeHeight)
	}
	if len(store.puts) != 1 || string(store.data["a"]) != "jpeg" {
		t.Errorf("Expected generated JPEG stored locally, got %v", store.puts)
	}
	if len(up.ids) != 1 || up.ids[0] != "a" {
		t.Errorf("Expected one best-effort upload, got %v", up.ids)
	}
}

func TestCorruptCacheEntryFallsThrough(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{"a": []byte("corrupt")}}
	gen := &fakeGenerator{px: thumbnail.Pixels{Pix: make([]byte, 4), Width: 1, Height: 1}}
	p := New(Config{}, &fakeFetcher{}, store, nil, gen)

	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a", SourceURL: "src/a"})
	if res.Tier != TierGenerate || gen.calls != 1 {
		t.Errorf("Expected fallthrough to generation, got %s with %d calls", res.Tier, gen.calls)
	}
}

func TestAllTiersFail(t *testing.T) {
	genErr := &asset.DecodeError{Source: "src/a", Err: errors.New("truncated")}
	p := New(Config{}, &fakeFetcher{}, &fakeStore{}, nil, &fakeGenerator{err: genErr})

	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a", SourceURL: "src/a", ThumbnailURL: "remote/a"})
	if !errors.Is(res.Err, asset.ErrTiersExhausted) {
		t.Fatalf("Expected ErrTiersExhausted, got %v", res.Err)
	}
	var de *asset.DecodeError
	if !errors.As(res.Err, &de) {
		t.Errorf("Expected the final tier's DecodeError to be wrapped, got %v", res.Err)
	}
	if res.Tier != TierNone {
		t.Errorf("Expected no tier, got %s", res.Tier)
	}
}

func TestNoApplicableTier(t *testing.T) {
	p := New(Config{}, nil, nil, nil, nil)
	res := p.ResolveThumbnail(context.Background(), ThumbnailRequest{ID: "a"})
	if !errors.Is(res.Err, asset.ErrTiersExhausted) {
		t.Errorf("Expected ErrTiersExhausted, got %v", res.Err)
	}
}

func TestResolveThumbnailCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{}
	p := New(Config{}, &fakeFetcher{}, &fakeStore{}, nil, gen)

	res := p.ResolveThumbnail(ctx, ThumbnailRequest{ID: "a", SourceURL: "src"})
	if !errors.Is(res.Err, context.Canceled) || gen.calls != 0 {
		t.Errorf("Expected cancellation before any tier, got %v (%d calls)", res.Err, gen.calls)
	}
}

func TestTileGrid(t *testing.T) {
	tests := []struct {
		w, h, max          int
		wantCols, wantRows int
	}{
		{100, 100, 100, 1, 1},
		{101, 100, 100, 2, 1},
		{10000, 3000, 4096, 3, 1},
		{5, 5, 0, 1, 1},
	}
	for _, tt := range tests {
		cols, rows := TileGrid(tt.w, tt.h, tt.max)
		if cols != tt.wantCols || rows != tt.wantRows {
			t.Errorf("TileGrid(%d, %d, %d): expected %dx%d, got %dx%d", tt.w, tt.h, tt.max, tt.wantCols, tt.wantRows, cols, rows)
		}
	}
}

func TestResolveHighResSingle(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{"src/a": pngBytes(t, 30, 20)}}
	p := New(Config{}, fetcher, nil, nil, nil)

	res := p.ResolveHighRes(context.Background(), HighResRequest{ID: "a", SourceURL: "src/a", MaxTextureSize: 64})
	if res.Err != nil {
		t.Fatalf("ResolveHighRes() error: %v", res.Err)
	}
	if res.Image == nil || len(res.Tiles) != 0 {
		t.Errorf("Expected a single image, got image=%v tiles=%d", res.Image != nil, len(res.Tiles))
	}
	if res.Width != 30 || res.Height != 20 {
		t.Errorf("Expected 30x20, got %dx%d", res.Width, res.Height)
	}
}

func TestResolveHighResTiled(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{"src/a": pngBytes(t, 10, 5)}}
	p := New(Config{TileWorkers: 2}, fetcher, nil, nil, nil)

	res := p.ResolveHighRes(context.Background(), HighResRequest{ID: "a", SourceURL: "src/a", MaxTextureSize: 4})
	if res.Err != nil {
		t.Fatalf("ResolveHighRes() error: %v", res.Err)
	}
	if res.Image != nil {
		t.Error("Expected no single image for a tiled result")
	}
	// 10x5 with a limit of 4 needs 3 columns and 2 rows of 4x3 tiles.
	if len(res.Tiles) != 6 {
		t.Fatalf("Expected 6 tiles, got %d", len(res.Tiles))
	}

	var area float64
	for i, tile := range res.Tiles {
		b := tile.Image.Bounds()
		if b.Dx() > 4 || b.Dy() > 4 {
			t.Errorf("Tile %d is %dx%d, exceeds limit", i, b.Dx(), b.Dy())
		}
		if tile.Row*3+tile.Col != i {
			t.Errorf("Tile %d out of row-major order (col %d row %d)", i, tile.Col, tile.Row)
		}
		if got := tile.ScaleX * 10; math.Abs(got-float64(b.Dx())) > 1e-9 {
			t.Errorf("Tile %d: ScaleX %v does not match width %d", i, tile.ScaleX, b.Dx())
		}
		area += tile.ScaleX * tile.ScaleY
	}
	if math.Abs(area-1) > 1e-9 {
		t.Errorf("Expected tiles to cover the parent exactly, got area %v", area)
	}

	last := res.Tiles[5]
	if last.OffsetX != 0.8 || last.OffsetY != 0.6 {
		t.Errorf("Expected last tile at (0.8, 0.6), got (%v, %v)", last.OffsetX, last.OffsetY)
	}
}

func TestResolveHighResErrors(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{"bad": []byte("nope")}}
	p := New(Config{}, fetcher, nil, nil, nil)

	var fe *asset.FetchError
	if res := p.ResolveHighRes(context.Background(), HighResRequest{SourceURL: "missing"}); !errors.As(res.Err, &fe) {
		t.Errorf("Expected FetchError, got %v", res.Err)
	}
	var de *asset.DecodeError
	if res := p.ResolveHighRes(context.Background(), HighResRequest{SourceURL: "bad"}); !errors.As(res.Err, &de) {
		t.Errorf("Expected DecodeError, got %v", res.Err)
	}
}

func TestResolveDetails(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{
		"a.json":   []byte(`{"title":"Sunset","extra":{"camera":"X100"}}`),
		"bad.json": []byte(`{`),
	}}
	p := New(Config{}, fetcher, nil, nil, nil)

	d, err := p.ResolveDetails(context.Background(), DetailsRequest{ID: "trips/a.jpg", Width: 40, Height: 30})
	if err != nil {
		t.Fatalf("ResolveDetails() error: %v", err)
	}
	if d.Title != "a.jpg" || d.MimeType != "image/jpeg" || d.Extra["dimensions"] != "40x30" {
		t.Errorf("Unexpected basic details: %+v", d)
	}

	d, err = p.ResolveDetails(context.Background(), DetailsRequest{ID: "trips/a.jpg", DetailsURL: "a.json"})
	if err != nil {
		t.Fatalf("ResolveDetails() error: %v", err)
	}
	if d.Title != "Sunset" || d.Extra["camera"] != "X100" || d.MimeType != "image/jpeg" {
		t.Errorf("Expected merged details, got %+v", d)
	}

	_, err = p.ResolveDetails(context.Background(), DetailsRequest{ID: "b", DetailsURL: "bad.json"})
	var de *asset.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected DecodeError for malformed JSON, got %v", err)
	}
}
