package sampler

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Input produces a normalised analog level in [0, 1]. Values outside the
// range are clamped.
type Input func() float64

// SimDriver emulates the coprocessor program on a host: every wake-up period
// it samples Input, quantises it to the configured bit width and stores the
// result in its slot.
type SimDriver struct {
	input Input
	slot  Slot

	mu      sync.Mutex
	cfg     Config
	inited  bool
	started bool
	done    chan struct{}

	samples atomic.Uint64
}

// NewSimDriver creates a simulated driver reading from input.
func NewSimDriver(input Input) *SimDriver {
	return &SimDriver{input: input}
}

// Init validates cfg.
func (d *SimDriver) Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.inited = true
	return nil
}

// Start takes a first sample synchronously, so the slot holds a real reading
// before any poller starts, then samples every wake-up period until ctx is done.
func (d *SimDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	if !d.inited {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.done = make(chan struct{})
	cfg := d.cfg
	d.mu.Unlock()

	d.sample(cfg)

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(cfg.WakeupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.sample(cfg)
			}
		}
	}()
	return nil
}

// Wait blocks until the sampling goroutine has exited.
func (d *SimDriver) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Source returns the driver's slot.
func (d *SimDriver) Source() Source {
	return &d.slot
}

// Samples returns the number of conversions performed.
func (d *SimDriver) Samples() uint64 {
	return d.samples.Load()
}

func (d *SimDriver) sample(cfg Config) {
	level := d.input()
	if math.IsNaN(level) || level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	d.slot.Store(Reading(math.Round(level * float64(cfg.MaxValue()))))
	d.samples.Add(1)
}

var _ Driver = (*SimDriver)(nil)

// ManualInput is an Input whose level is set explicitly, e.g. from a console
// or a test. The zero value reads 0.
type ManualInput struct {
	bits atomic.Uint64
}

// Set changes the analog level.
func (m *ManualInput) Set(level float64) {
	m.bits.Store(math.Float64bits(level))
}

// Read returns the current level. Pass m.Read as an Input.
func (m *ManualInput) Read() float64 {
	return math.Float64frombits(m.bits.Load())
}

// SweepInput returns an Input that follows a sine between 0 and 1 with the
// given period, like a dial turned back and forth.
func SweepInput(period time.Duration) Input {
	start := time.Now()
	return func() float64 {
		phase := float64(time.Since(start)) / float64(period)
		return 0.5 + 0.5*math.Sin(2*math.Pi*phase)
	}
}
