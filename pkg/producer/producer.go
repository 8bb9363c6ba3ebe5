package producer

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/sampler"
)

// Defaults match the firmware: 5 Hz polling, tolerance of 10 ADC codes.
const (
	DefaultPollPeriod = 200 * time.Millisecond
	DefaultTolerance  = 10
)

// Sink accepts forwarded readings without blocking.
type Sink interface {
	TrySend(v sampler.Reading) error
}

// Config configures a Producer.
type Config struct {
	// PollPeriod is the time between polls of the sampler.
	PollPeriod time.Duration

	// Tolerance is the largest change that is still considered noise.
	Tolerance uint32

	// PinThread locks the producer goroutine to its own OS thread.
	PinThread bool

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger receives pipeline events. Nil disables capture.
	EventLogger log.Logger

	// RunID is stamped on captured events.
	RunID string
}

// Outcome is the result of one poll.
type Outcome uint8

const (
	// OutcomeUnchanged: the change was within tolerance.
	OutcomeUnchanged Outcome = iota

	// OutcomeForwarded: the reading was queued and became the new baseline.
	OutcomeForwarded

	// OutcomeDropped: the queue was full; the baseline is unchanged.
	OutcomeDropped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "UNCHANGED"
	case OutcomeForwarded:
		return "FORWARDED"
	case OutcomeDropped:
		return "DROPPED"
	default:
		return "UNKNOWN"
	}
}

// Stats is a snapshot of producer counters.
type Stats struct {
	Polls     uint64
	Forwarded uint64
	Dropped   uint64
}

// Producer polls a Source and forwards significant changes to a Sink.
// Poll must only be called from one goroutine at a time.
type Producer struct {
	source sampler.Source
	sink   Sink
	config Config
	logger *slog.Logger
	events log.Logger

	baseline sampler.Reading

	polls     atomic.Uint64
	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a Producer. The baseline starts at the source's current reading.
func New(source sampler.Source, sink Sink, config Config) *Producer {
	if config.PollPeriod <= 0 {
		config.PollPeriod = DefaultPollPeriod
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		source:   source,
		sink:     sink,
		config:   config,
		logger:   logger.With("component", "producer"),
		events:   log.OrNoop(config.EventLogger),
		baseline: source.LatestRaw(),
	}
}

// Baseline returns the last forwarded reading. It must not be called while
// Run is active.
func (p *Producer) Baseline() sampler.Reading {
	return p.baseline
}

// Poll runs one iteration of the filter.
func (p *Producer) Poll() Outcome {
	p.polls.Add(1)

	current := p.source.LatestRaw()
	delta := Delta(current, p.baseline)
	if delta <= p.config.Tolerance {
		return OutcomeUnchanged
	}

	if err := p.sink.TrySend(current); err != nil {
		p.dropped.Add(1)
		p.logger.Warn("failed to queue value, consumer is not keeping up",
			"value", current.Value(), "error", err)
		p.emit(log.ValueDropped, current, delta)
		return OutcomeDropped
	}

	p.logger.Info("value changed", "value", current.Value(), "delta", delta)
	p.emit(log.ValueForwarded, current, delta)
	p.baseline = current
	p.forwarded.Add(1)
	return OutcomeForwarded
}

// Run polls once per period until ctx is cancelled. It returns ctx.Err().
func (p *Producer) Run(ctx context.Context) error {
	if p.config.PinThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	ticker := time.NewTicker(p.config.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			if errors.Is(err, context.Canceled) {
				p.logger.Debug("producer stopped")
			}
			return err
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Stats returns a snapshot of the producer counters.
func (p *Producer) Stats() Stats {
	return Stats{
		Polls:     p.polls.Load(),
		Forwarded: p.forwarded.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Producer) emit(action log.ValueAction, current sampler.Reading, delta uint32) {
	baseline := p.baseline.Value()
	p.events.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     p.config.RunID,
		Layer:     log.LayerPipeline,
		Category:  log.CategoryValue,
		Value: &log.ValueEvent{
			Action:   action,
			Value:    current.Value(),
			Baseline: &baseline,
			Delta:    &delta,
		},
	})
}
