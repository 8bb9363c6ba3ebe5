// Package config loads device configuration from YAML.
//
// A file only needs the keys it changes; everything else keeps the values
// from Default. Durations are Go duration strings ("200ms", "1s").
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dialsense/dialsense-go/pkg/consumer"
	"github.com/dialsense/dialsense-go/pkg/delivery"
	"github.com/dialsense/dialsense-go/pkg/discovery"
	"github.com/dialsense/dialsense-go/pkg/producer"
	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/transport"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultQueueCapacity is the depth of the producer/consumer channel.
const DefaultQueueCapacity = 10

// Config is the complete device configuration.
type Config struct {
	Sensor    sampler.Config  `yaml:"sensor"`
	Producer  ProducerConfig  `yaml:"producer"`
	Queue     QueueConfig     `yaml:"queue"`
	Consumer  ConsumerConfig  `yaml:"consumer"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`
}

// ProducerConfig configures the change filter.
type ProducerConfig struct {
	PollPeriod time.Duration `yaml:"pollPeriod"`
	Tolerance  uint32        `yaml:"tolerance"`
	PinThread  bool          `yaml:"pinThread"`
}

// QueueConfig configures the bounded channel.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// ConsumerConfig configures the consumer.
type ConsumerConfig struct {
	Wait      time.Duration `yaml:"wait"`
	PinThread bool          `yaml:"pinThread"`
}

// DeliveryConfig describes the exposed characteristic.
type DeliveryConfig struct {
	ServiceUUID        uint16        `yaml:"serviceUUID"`
	CharacteristicUUID uint16        `yaml:"characteristicUUID"`
	Tag                byte          `yaml:"tag"`
	Heartbeat          time.Duration `yaml:"heartbeat"`
}

// GatewayConfig configures the TCP gateway.
type GatewayConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Address        string `yaml:"address"`
	MaxConnections int    `yaml:"maxConnections"`

	// WriteTimeout bounds each push to a peer. Zero selects the transport default.
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// DiscoveryConfig configures mDNS advertising of the gateway.
type DiscoveryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Name      string `yaml:"name"`
	Interface string `yaml:"interface"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File is an optional event capture file (.dlog).
	File string `yaml:"file"`
}

// Default returns the firmware defaults.
func Default() Config {
	return Config{
		Sensor: sampler.DefaultConfig(),
		Producer: ProducerConfig{
			PollPeriod: producer.DefaultPollPeriod,
			Tolerance:  producer.DefaultTolerance,
		},
		Queue: QueueConfig{Capacity: DefaultQueueCapacity},
		Consumer: ConsumerConfig{
			Wait: consumer.DefaultWait,
		},
		Delivery: DeliveryConfig{
			ServiceUUID:        delivery.DefaultServiceUUID,
			CharacteristicUUID: delivery.DefaultCapabilityUUID,
			Tag:                wire.DefaultTag,
		},
		Gateway: GatewayConfig{
			Enabled:        true,
			Address:        transport.DefaultAddress,
			MaxConnections: transport.DefaultMaxConnections,
			WriteTimeout:   transport.DefaultWriteTimeout,
		},
		Discovery: DiscoveryConfig{
			Name: "dialsense",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Parse overlays YAML data on Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML file. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that the components would otherwise reject at startup.
func (c Config) Validate() error {
	if err := c.Sensor.Validate(); err != nil {
		return fmt.Errorf("%w: sensor: %w", ErrInvalidConfig, err)
	}
	if c.Producer.PollPeriod <= 0 {
		return fmt.Errorf("%w: producer.pollPeriod must be positive", ErrInvalidConfig)
	}
	if c.Queue.Capacity < 1 {
		return fmt.Errorf("%w: queue.capacity must be at least 1", ErrInvalidConfig)
	}
	if c.Consumer.Wait <= 0 {
		return fmt.Errorf("%w: consumer.wait must be positive", ErrInvalidConfig)
	}
	if c.Delivery.Heartbeat < 0 {
		return fmt.Errorf("%w: delivery.heartbeat must not be negative", ErrInvalidConfig)
	}
	if c.Delivery.CharacteristicUUID == 0 {
		return fmt.Errorf("%w: delivery.characteristicUUID is required", ErrInvalidConfig)
	}
	if c.Gateway.Enabled && c.Gateway.MaxConnections < 1 {
		return fmt.Errorf("%w: gateway.maxConnections must be at least 1", ErrInvalidConfig)
	}
	if c.Gateway.WriteTimeout < 0 {
		return fmt.Errorf("%w: gateway.writeTimeout must not be negative", ErrInvalidConfig)
	}
	if c.Discovery.Enabled {
		if !c.Gateway.Enabled {
			return fmt.Errorf("%w: discovery requires the gateway", ErrInvalidConfig)
		}
		if err := discovery.ValidateInstanceName(c.Discovery.Name); err != nil {
			return fmt.Errorf("%w: discovery.name: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
}
