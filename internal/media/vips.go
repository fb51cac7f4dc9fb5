package media

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogging maps the application log level to a libvips level and a
// handler that forwards messages at or above it.
func vipsLogging() (vips.LogLevel, func(string, vips.LogLevel, string)) {
	var threshold vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	case logging.LevelError:
		threshold = vips.LogLevelCritical
	default:
		threshold = vips.LogLevelWarning
	}

	handler := func(domain string, level vips.LogLevel, msg string) {
		if level > threshold {
			return
		}
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return threshold, handler
}

// InitVips initializes libvips. It should be called once at startup; when it
// is not called the generator decodes with imaging only.
func InitVips(concurrency int) {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	level, handler := vipsLogging()
	vips.LoggingSettings(handler, level)

	if concurrency <= 0 {
		concurrency = 1
	}
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// ThumbnailWithVips decodes data with libvips, shrinking during decode so
// that the long edge is at most target. It also returns the native size.
func ThumbnailWithVips(data []byte, source string, target int) (image.Image, Dimensions, error) {
	if !IsVipsAvailable() {
		return nil, Dimensions{}, fmt.Errorf("libvips not available")
	}

	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, Dimensions{}, &asset.DecodeError{Source: source, Err: err}
	}
	defer ref.Close()

	native := Dimensions{Width: ref.Width(), Height: ref.Height()}
	w, h := FitSize(native.Width, native.Height, target)
	logging.Debug("vips: %s %dx%d -> %dx%d", source, native.Width, native.Height, w, h)

	if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
		return nil, native, fmt.Errorf("vips resize failed: %w", err)
	}

	out, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, native, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out), imaging.AutoOrientation(true))
	if err != nil {
		return nil, native, &asset.DecodeError{Source: source, Err: err}
	}
	return img, native, nil
}
