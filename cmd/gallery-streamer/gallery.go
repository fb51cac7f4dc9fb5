package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/layout"
	"gallery-streamer/internal/media"
)

// gallery is the scanned media directory laid out in world space.
type gallery struct {
	items   []*asset.Item
	sources map[string]string
	bounds  geom.Rect
}

// loadGallery scans mediaDir and assigns every image a world rectangle.
// Item IDs are slash-separated paths relative to mediaDir. A sibling
// "<name>.json" file becomes the item's details document.
func loadGallery(ctx context.Context, mediaDir string, kind layout.Kind, opts layout.Options) (*gallery, error) {
	files, err := media.NewScanner(mediaDir).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", mediaDir, err)
	}

	entries := make([]layout.Entry, len(files))
	for i, f := range files {
		entries[i] = layout.Entry{ID: f.Path, Width: f.Width, Height: f.Height}
	}
	rects := layout.Apply(kind, entries, opts)

	g := &gallery{
		items:   make([]*asset.Item, len(files)),
		sources: make(map[string]string, len(files)),
		bounds:  layout.Bounds(rects),
	}
	for i, f := range files {
		path := filepath.Join(mediaDir, filepath.FromSlash(f.Path))
		item := asset.New(f.Path, rects[i], path)
		item.OriginalWidth, item.OriginalHeight = f.Width, f.Height
		if sidecar := detailsSidecar(path); sidecar != "" {
			item.DetailsURL = sidecar
		}
		g.items[i] = item
		g.sources[f.Path] = path
	}
	return g, nil
}

// detailsSidecar returns the JSON details file next to path, or "".
func detailsSidecar(path string) string {
	candidates := []string{
		path + ".json",
		strings.TrimSuffix(path, filepath.Ext(path)) + ".json",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
