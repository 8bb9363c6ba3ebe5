// Package consumer drains the bounded queue and holds the current value.
//
// The consumer is the only writer of Current. Each received reading is
// published atomically and then handed to a Listener (the delivery layer),
// which decides whether a subscribed peer should be told. Receives wait with
// a timeout so the loop notices cancellation promptly; a timeout changes
// nothing.
package consumer

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/sampler"
)

// DefaultWait is the receive timeout (10 Hz wake-ups when idle).
const DefaultWait = 100 * time.Millisecond

// Receiver yields queued readings, waiting at most timeout.
type Receiver interface {
	Receive(ctx context.Context, timeout time.Duration) (sampler.Reading, bool, error)
}

// Listener is told about every newly published value.
type Listener interface {
	OnNewValue(v uint16)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(v uint16)

// OnNewValue calls f(v).
func (f ListenerFunc) OnNewValue(v uint16) { f(v) }

// Current is the last value the consumer received. It starts at 0 and is
// always a complete, previously published value.
type Current struct {
	v atomic.Uint32
}

// Load returns the current value.
func (c *Current) Load() uint16 {
	return uint16(c.v.Load())
}

func (c *Current) store(v uint16) {
	c.v.Store(uint32(v))
}

// Config configures a Consumer.
type Config struct {
	// Wait bounds each receive.
	Wait time.Duration

	// PinThread locks the consumer goroutine to its own OS thread.
	PinThread bool

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger receives pipeline events. Nil disables capture.
	EventLogger log.Logger

	// RunID is stamped on captured events.
	RunID string
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Received uint64
	Timeouts uint64
}

// Consumer moves readings from a Receiver into Current.
type Consumer struct {
	rx       Receiver
	listener Listener
	config   Config
	logger   *slog.Logger
	events   log.Logger

	current Current

	received atomic.Uint64
	timeouts atomic.Uint64
}

// New creates a Consumer. listener may be nil.
func New(rx Receiver, listener Listener, config Config) *Consumer {
	if config.Wait <= 0 {
		config.Wait = DefaultWait
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		rx:       rx,
		listener: listener,
		config:   config,
		logger:   logger.With("component", "consumer"),
		events:   log.OrNoop(config.EventLogger),
	}
}

// Current returns the value cell. Readers may call Load at any time.
func (c *Consumer) Current() *Current {
	return &c.current
}

// Step performs one bounded receive. It reports whether a value was
// published. The error is non-nil only when ctx ended.
func (c *Consumer) Step(ctx context.Context) (bool, error) {
	r, ok, err := c.rx.Receive(ctx, c.config.Wait)
	if err != nil {
		return false, err
	}
	if !ok {
		c.timeouts.Add(1)
		return false, nil
	}

	v := r.Value()
	c.current.store(v)
	c.received.Add(1)

	c.logger.Debug("new value", "value", v)
	c.events.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     c.config.RunID,
		Layer:     log.LayerPipeline,
		Category:  log.CategoryValue,
		Value:     &log.ValueEvent{Action: log.ValueReceived, Value: v},
	})

	if c.listener != nil {
		c.listener.OnNewValue(v)
	}
	return true, nil
}

// Run calls Step until ctx is cancelled and returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	if c.config.PinThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		if _, err := c.Step(ctx); err != nil {
			c.logger.Debug("consumer stopped", "reason", err)
			return err
		}
	}
}

// Stats returns a snapshot of the consumer counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Received: c.received.Load(),
		Timeouts: c.timeouts.Load(),
	}
}
