package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/logging"
	"gallery-streamer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// SQLiteStore keeps encoded thumbnails in a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	log    *logging.Logger
}

// NewSQLiteStore opens (or creates) the store at dbPath. The parent
// directory must exist and be writable.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	// WAL lets readers proceed while a generated thumbnail is written;
	// busy_timeout prevents "database is locked" under concurrent puts.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open thumbnail store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close thumbnail store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to thumbnail store: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	s := &SQLiteStore{db: db, dbPath: dbPath, log: logging.For("sqlite-store")}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close thumbnail store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize thumbnail store schema: %w", err)
	}

	logging.Info("Thumbnail store initialized at %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS thumbnails (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_thumbnails_updated_at ON thumbnails(updated_at);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Backend returns the metrics label for this store.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Get returns the stored bytes for id. A missing row is (nil, false, nil);
// database failures are returned as *asset.CacheError.
func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM thumbnails WHERE id = ?`, id).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.LocalStoreOpsTotal.WithLabelValues("sqlite", "get", "miss").Inc()
		return nil, false, nil
	case err != nil:
		metrics.LocalStoreOpsTotal.WithLabelValues("sqlite", "get", "error").Inc()
		return nil, false, &asset.CacheError{Op: "get", ID: id, Err: err}
	}

	metrics.LocalStoreOpsTotal.WithLabelValues("sqlite", "get", "hit").Inc()
	return data, true, nil
}

// Put stores data for id, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, id string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thumbnails (id, data, size, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, id, data, len(data))
	if err != nil {
		metrics.LocalStoreOpsTotal.WithLabelValues("sqlite", "put", "error").Inc()
		return &asset.CacheError{Op: "put", ID: id, Err: err}
	}

	metrics.LocalStoreOpsTotal.WithLabelValues("sqlite", "put", "success").Inc()
	return nil
}

// Delete removes id from the store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM thumbnails WHERE id = ?`, id); err != nil {
		return &asset.CacheError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

// Usage returns the total payload size and entry count.
func (s *SQLiteStore) Usage(ctx context.Context) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var size, count int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0), COUNT(*) FROM thumbnails`).Scan(&size, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read thumbnail store usage: %w", err)
	}
	return size, count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
