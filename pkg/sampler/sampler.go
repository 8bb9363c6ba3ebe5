package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Driver errors.
var (
	// ErrDriverFault indicates the sensor could not be configured or started.
	ErrDriverFault = errors.New("sensor driver fault")

	// ErrNotInitialized indicates Start was called before a successful Init.
	ErrNotInitialized = errors.New("sensor driver not initialized")
)

// Reading is one coprocessor output word. Only the low 16 bits are meaningful.
type Reading uint32

// Value returns the meaningful low 16 bits of the reading.
func (r Reading) Value() uint16 {
	return uint16(r & 0xFFFF)
}

// Source provides the latest raw reading.
type Source interface {
	LatestRaw() Reading
}

// Slot is the process-wide latest-reading cell. It has one writer (the
// coprocessor or its emulation) and any number of readers.
type Slot struct {
	word atomic.Uint32
}

// Store overwrites the slot.
func (s *Slot) Store(r Reading) {
	s.word.Store(uint32(r))
}

// LatestRaw returns the most recent reading.
func (s *Slot) LatestRaw() Reading {
	return Reading(s.word.Load())
}

var _ Source = (*Slot)(nil)

// Driver brings up the sensor and exposes its slot.
type Driver interface {
	// Init validates and applies the configuration.
	Init(cfg Config) error

	// Start begins sampling. Sampling stops when ctx is cancelled.
	Start(ctx context.Context) error

	// Source returns the slot readers poll.
	Source() Source
}

// Config describes the coprocessor ADC program.
type Config struct {
	// Unit selects the ADC unit (0 or 1).
	Unit uint8 `yaml:"unit"`

	// Channel selects the ADC input channel (0-9).
	Channel uint8 `yaml:"channel"`

	// Attenuation selects the input range (0-3, 3 = 12 dB).
	Attenuation uint8 `yaml:"attenuation"`

	// BitWidth is the conversion width in bits (9-12). Zero means 12.
	BitWidth uint8 `yaml:"bitWidth"`

	// WakeupPeriod is how often the coprocessor program runs.
	WakeupPeriod time.Duration `yaml:"wakeupPeriod"`
}

// Default coprocessor settings: ADC1 channel 6 at 12 dB, sampled at 20 Hz.
const (
	DefaultUnit         = 0
	DefaultChannel      = 6
	DefaultAttenuation  = 3
	DefaultBitWidth     = 12
	DefaultWakeupPeriod = 50 * time.Millisecond
)

// DefaultConfig returns the default coprocessor configuration.
func DefaultConfig() Config {
	return Config{
		Unit:         DefaultUnit,
		Channel:      DefaultChannel,
		Attenuation:  DefaultAttenuation,
		BitWidth:     DefaultBitWidth,
		WakeupPeriod: DefaultWakeupPeriod,
	}
}

// Validate checks the configuration. Errors wrap ErrDriverFault.
func (c Config) Validate() error {
	if c.Unit > 1 {
		return fmt.Errorf("%w: adc unit %d out of range 0-1", ErrDriverFault, c.Unit)
	}
	if c.Channel > 9 {
		return fmt.Errorf("%w: adc channel %d out of range 0-9", ErrDriverFault, c.Channel)
	}
	if c.Attenuation > 3 {
		return fmt.Errorf("%w: attenuation %d out of range 0-3", ErrDriverFault, c.Attenuation)
	}
	if w := c.bitWidth(); w < 9 || w > 12 {
		return fmt.Errorf("%w: bit width %d out of range 9-12", ErrDriverFault, w)
	}
	if c.WakeupPeriod <= 0 {
		return fmt.Errorf("%w: wakeup period must be positive", ErrDriverFault)
	}
	return nil
}

// MaxValue returns the largest code the configured conversion can produce.
func (c Config) MaxValue() uint16 {
	return uint16(1)<<c.bitWidth() - 1
}

func (c Config) bitWidth() uint8 {
	if c.BitWidth == 0 {
		return DefaultBitWidth
	}
	return c.BitWidth
}
