package overlay

import (
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/logging"
)

// DefaultReportInterval is how often FrameStats logs a summary.
const DefaultReportInterval = 30 * time.Second

// FrameSummary aggregates frames since the last report.
type FrameSummary struct {
	Frames       int           `json:"frames"`
	AvgFrameTime time.Duration `json:"avgFrameTime"`
	MaxFrameTime time.Duration `json:"maxFrameTime"`
	AssetsLoaded int           `json:"assetsLoaded"`
	PointerMoves int           `json:"pointerMoves"`
	Last         engine.Stats  `json:"last"`
}

// FrameStats logs a periodic summary of frame timing and engine activity.
type FrameStats struct {
	interval time.Duration
	now      func() time.Time
	since    time.Time

	current FrameSummary
	total   time.Duration
	last    FrameSummary

	log *logging.Logger
}

// NewFrameStats creates a reporter. A non-positive interval uses
// DefaultReportInterval.
func NewFrameStats(interval time.Duration) *FrameStats {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &FrameStats{
		interval: interval,
		now:      time.Now,
		since:    time.Now(),
		log:      logging.For("frames"),
	}
}

func (f *FrameStats) OnFrame(info engine.FrameInfo) {
	f.current.Frames++
	f.current.Last = info.Stats
	f.total += info.Elapsed
	if info.Elapsed > f.current.MaxFrameTime {
		f.current.MaxFrameTime = info.Elapsed
	}

	now := f.now()
	if now.Sub(f.since) < f.interval {
		return
	}
	f.current.AvgFrameTime = f.total / time.Duration(f.current.Frames)
	f.last = f.current

	s := f.current.Last
	f.log.Info("%d frames, avg %s, max %s | %d/%d visible, %d queued, %d in flight, %d ready, %d errors, %d high-res",
		f.current.Frames, f.current.AvgFrameTime, f.current.MaxFrameTime,
		s.Visible, s.Items, s.Queued, s.Processing, s.ThumbnailsReady, s.Errors, s.HighResEntries)

	f.current = FrameSummary{}
	f.total = 0
	f.since = now
}

func (f *FrameStats) OnPointerMove(*asset.Item) {
	f.current.PointerMoves++
}

func (f *FrameStats) OnAssetLoaded(*asset.Item) {
	f.current.AssetsLoaded++
}

// Last returns the most recent reported summary.
func (f *FrameStats) Last() FrameSummary {
	return f.last
}
