package storage

import (
	"context"
	"fmt"
	"path/filepath"
)

// Store is a local thumbnail store. Get reports a miss as (nil, false, nil)
// and an unavailable store as an *asset.CacheError.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Put(ctx context.Context, id string, data []byte) error
	Usage(ctx context.Context) (bytes int64, entries int64, err error)
	Backend() string
	Close() error
}

// Open creates the store named by backend ("sqlite" or "disk") under dir.
func Open(ctx context.Context, backend, dir string) (Store, error) {
	switch backend {
	case "", "sqlite":
		return NewSQLiteStore(ctx, filepath.Join(dir, "thumbnails.db"))
	case "disk":
		return NewDiskStore(filepath.Join(dir, "thumbnails"))
	default:
		return nil, fmt.Errorf("unknown local store %q", backend)
	}
}
