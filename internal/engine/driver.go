package engine

import (
	"context"
	"errors"
	"time"

	"gallery-streamer/internal/logging"
)

// DefaultFrameInterval is roughly sixty frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrDriverStopped is returned by Do once Run has returned.
var ErrDriverStopped = errors.New("driver stopped")

type command struct {
	fn   func(*Engine)
	done chan struct{}
}

// Driver owns the engine goroutine: it runs the frame clock and executes
// commands from other goroutines between frames.
type Driver struct {
	engine   *Engine
	interval time.Duration
	commands chan command
	stopped  chan struct{}
	log      *logging.Logger
}

// NewDriver creates a driver for e. A non-positive interval uses
// DefaultFrameInterval.
func NewDriver(e *Engine, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Driver{
		engine:   e,
		interval: interval,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		log:      logging.For("driver"),
	}
}

// Run drives frames until ctx is cancelled. It must be called once.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.stopped)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("frame driver started (interval %s)", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("frame driver stopped after %d frames", d.engine.frames)
			return ctx.Err()
		case <-ticker.C:
			d.engine.OnFrame()
		case cmd := <-d.commands:
			cmd.fn(d.engine)
			close(cmd.done)
		}
	}
}

// Do runs fn on the driver goroutine and waits for it to finish.
func (d *Driver) Do(ctx context.Context, fn func(*Engine)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case d.commands <- cmd:
	case <-d.stopped:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
