package storage

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 used for cache key generation, not security
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
)

// DiskStore keeps one file per thumbnail, named by the MD5 of the item id.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the cache directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache dir: %w", err)
	}
	logging.Debug("DiskStore: cache dir %s", dir)
	return &DiskStore{dir: dir}, nil
}

// Backend returns the metrics label for this store.
func (d *DiskStore) Backend() string { return "disk" }

// path returns the cache file for id.
func (d *DiskStore) path(id string) string {
	hash := md5.Sum([]byte(id)) //nolint:gosec // cache key only
	return filepath.Join(d.dir, fmt.Sprintf("%x.jpg", hash))
}

// Get returns the cached bytes for id.
func (d *DiskStore) Get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &asset.CacheError{Op: "get", ID: id, Err: err}
	}
	data, err := os.ReadFile(d.path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		metrics.LocalStoreOpsTotal.WithLabelValues("disk", "get", "miss").Inc()
		return nil, false, nil
	case err != nil:
		metrics.LocalStoreOpsTotal.WithLabelValues("disk", "get", "error").Inc()
		return nil, false, &asset.CacheError{Op: "get", ID: id, Err: err}
	}
	metrics.LocalStoreOpsTotal.WithLabelValues("disk", "get", "hit").Inc()
	return data, true, nil
}

// Put writes data for id. The write goes to a temp file first so readers
// never observe a partial thumbnail.
func (d *DiskStore) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &asset.CacheError{Op: "put", ID: id, Err: err}
	}
	target := d.path(id)
	tmp, err := os.CreateTemp(d.dir, ".thumb-*")
	if err != nil {
		metrics.LocalStoreOpsTotal.WithLabelValues("disk", "put", "error").Inc()
		return &asset.CacheError{Op: "put", ID: id, Err: err}
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Rename(tmpName, target)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		metrics.LocalStoreOpsTotal.WithLabelValues("disk", "put", "error").Inc()
		return &asset.CacheError{Op: "put", ID: id, Err: writeErr}
	}

	metrics.LocalStoreOpsTotal.WithLabelValues("disk", "put", "success").Inc()
	return nil
}

// Usage returns the total size and number of cached files.
func (d *DiskStore) Usage(ctx context.Context) (int64, int64, error) {
	var size, count int64
	err := filepath.WalkDir(d.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || filepath.Ext(path) != ".jpg" {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk; skip it
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to walk thumbnail cache: %w", err)
	}
	return size, count, nil
}

// Close is a no-op.
func (d *DiskStore) Close() error { return nil }
