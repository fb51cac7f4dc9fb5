package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"gallery-streamer/internal/logging"
)

// VolumeResolver maps file paths to volume names for metric labels using
// longest-prefix matching on absolute paths.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing slash
	name string
}

// NewVolumeResolver creates a resolver from volume name to directory, for
// example {"media": "/media", "cache": "/cache"}.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, "/") {
			absPath += "/"
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}
	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})
	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}
	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+"/", mount.path) {
			return mount.name
		}
	}
	return "unknown"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retries of operations that hit a stale NFS handle
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError reports whether err is ESTALE
func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry runs fn until it succeeds, fails with something other than
// ESTALE, runs out of retries, or ctx is done.
func withRetry(ctx context.Context, op, path string, config RetryConfig, fn func() error) error {
	volume := config.resolveVolume(path)
	backoff := config.InitialBackoff

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
				observeRetry(op, volume, true)
			}
			return nil
		}
		if !isNFSStaleError(err) {
			return err
		}
		observeStale(op, volume)

		if attempt >= config.MaxRetries {
			logging.Warn("%s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			observeRetry(op, volume, false)
			return err
		}

		logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, config.MaxRetries)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}

// Stat is os.Stat with stale handle retries
func Stat(ctx context.Context, path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry(ctx, "stat", path, config, func() error {
		var err error
		info, err = os.Stat(path)
		return err
	})
	return info, err
}

// Open is os.Open with stale handle retries
func Open(ctx context.Context, path string, config RetryConfig) (*os.File, error) {
	var f *os.File
	err := withRetry(ctx, "open", path, config, func() error {
		var err error
		f, err = os.Open(path)
		return err
	})
	return f, err
}

// ReadFile is os.ReadFile with stale handle retries
func ReadFile(ctx context.Context, path string, config RetryConfig) ([]byte, error) {
	var data []byte
	err := withRetry(ctx, "read", path, config, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}
