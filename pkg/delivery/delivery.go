package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/subscription"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

// Delivery errors.
var (
	// ErrUnknownCapability indicates a request for a capability that is not exposed.
	ErrUnknownCapability = subscription.ErrUnknownCapability

	// ErrPushFailed wraps stack errors for pushes that could not be delivered.
	ErrPushFailed = errors.New("push failed")
)

// Defaults for the dial characteristic (Volume Control service 0x1844).
const (
	DefaultServiceUUID    uint16 = 0x1844
	DefaultCapabilityUUID uint16 = 0x2B7D
)

// Stack is the outbound half of the radio stack.
type Stack interface {
	// Push sends data to conn as a notification or indication.
	Push(conn subscription.ConnID, capability subscription.Capability, data []byte, mode subscription.Mode) error
}

// ValueSource provides the current value.
type ValueSource interface {
	Load() uint16
}

// Config configures a Delivery.
type Config struct {
	// Capability is the attribute carrying the dial value.
	Capability subscription.Capability

	// Tag is placed in byte 1 of every value.
	Tag byte

	// HeartbeatInterval re-pushes the current value to a subscribed peer
	// this often. Zero disables it.
	HeartbeatInterval time.Duration

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger receives delivery events. Nil disables capture.
	EventLogger log.Logger

	// RunID is stamped on captured events.
	RunID string

	// OnChange, if set, is called after each subscription transition.
	OnChange func(subscription.Change)
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		Capability: subscription.Capability(DefaultCapabilityUUID),
		Tag:        wire.DefaultTag,
	}
}

// Stats is a snapshot of delivery counters.
type Stats struct {
	Pushes       uint64
	PushFailures uint64
	Pulls        uint64
	Heartbeats   uint64
}

// Delivery gates pushes on subscription state and answers pulls.
type Delivery struct {
	gate    *subscription.Gate
	stack   Stack
	current ValueSource
	config  Config
	logger  *slog.Logger
	events  log.Logger

	pushes     atomic.Uint64
	failures   atomic.Uint64
	pulls      atomic.Uint64
	heartbeats atomic.Uint64
}

// New creates a Delivery. The gate must contain config.Capability.
func New(gate *subscription.Gate, stack Stack, current ValueSource, config Config) (*Delivery, error) {
	if !gate.Has(config.Capability) {
		return nil, fmt.Errorf("%w: %s not registered with gate", ErrUnknownCapability, config.Capability)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Delivery{
		gate:    gate,
		stack:   stack,
		current: current,
		config:  config,
		logger:  logger.With("component", "delivery"),
		events:  log.OrNoop(config.EventLogger),
	}
	gate.OnStateChange(d.handleStateChange)
	return d, nil
}

// Gate returns the subscription gate.
func (d *Delivery) Gate() *subscription.Gate {
	return d.gate
}

// ReadCurrent returns the current value.
func (d *Delivery) ReadCurrent() uint16 {
	return d.current.Load()
}

// OnNewValue pushes v to the subscribed peer, if any.
func (d *Delivery) OnNewValue(v uint16) {
	conn, mode, ok := d.gate.State(d.config.Capability).Target()
	if !ok {
		return
	}
	if err := d.push(conn, mode, v); err == nil {
		d.pushes.Add(1)
	}
}

// OnSubscribe handles a peer enabling pushes.
func (d *Delivery) OnSubscribe(conn subscription.ConnID, capability subscription.Capability, mode subscription.Mode) error {
	return d.gate.Subscribe(conn, capability, mode)
}

// OnUnsubscribe handles a peer disabling pushes.
func (d *Delivery) OnUnsubscribe(conn subscription.ConnID, capability subscription.Capability) error {
	return d.gate.Unsubscribe(conn, capability)
}

// OnDisconnect handles a dropped connection.
func (d *Delivery) OnDisconnect(conn subscription.ConnID) {
	d.gate.Disconnect(conn)
}

// OnPullRequest answers a peer read with the encoded current value.
func (d *Delivery) OnPullRequest(conn subscription.ConnID, capability subscription.Capability) ([]byte, error) {
	if capability != d.config.Capability {
		d.logger.Warn("read of unknown capability", "conn", conn, "capability", capability)
		return nil, ErrUnknownCapability
	}

	v := d.current.Load()
	d.pulls.Add(1)
	d.logger.Debug("characteristic read", "conn", conn, "capability", capability, "value", v)
	d.events.Log(log.Event{
		Timestamp:  time.Now(),
		RunID:      d.config.RunID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerDelivery,
		Category:   log.CategoryValue,
		ConnID:     log.ConnRef(uint16(conn)),
		Capability: uint16(capability),
		Value:      &log.ValueEvent{Action: log.ValuePulled, Value: v},
	})
	return wire.EncodeValue(v, d.config.Tag), nil
}

// RunHeartbeat re-pushes the current value every HeartbeatInterval while a
// peer is subscribed. It returns immediately if the interval is zero, and
// otherwise when ctx is cancelled.
func (d *Delivery) RunHeartbeat(ctx context.Context) error {
	if d.config.HeartbeatInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(d.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.heartbeat()
		}
	}
}

// Stats returns a snapshot of the delivery counters.
func (d *Delivery) Stats() Stats {
	return Stats{
		Pushes:       d.pushes.Load(),
		PushFailures: d.failures.Load(),
		Pulls:        d.pulls.Load(),
		Heartbeats:   d.heartbeats.Load(),
	}
}

func (d *Delivery) heartbeat() {
	conn, mode, ok := d.gate.State(d.config.Capability).Target()
	if !ok {
		return
	}
	if err := d.push(conn, mode, d.current.Load()); err == nil {
		d.heartbeats.Add(1)
	}
}

func (d *Delivery) push(conn subscription.ConnID, mode subscription.Mode, v uint16) error {
	data := wire.EncodeValue(v, d.config.Tag)
	if err := d.stack.Push(conn, d.config.Capability, data, mode); err != nil {
		d.failures.Add(1)
		err = fmt.Errorf("%w: %w", ErrPushFailed, err)
		d.logger.Warn("failed to push value", "conn", conn, "value", v, "mode", mode, "error", err)
		d.events.Log(log.Event{
			Timestamp:  time.Now(),
			RunID:      d.config.RunID,
			Direction:  log.DirectionOut,
			Layer:      log.LayerDelivery,
			Category:   log.CategoryError,
			ConnID:     log.ConnRef(uint16(conn)),
			Capability: uint16(d.config.Capability),
			Error: &log.ErrorEventData{
				Layer:   log.LayerDelivery,
				Message: err.Error(),
				Context: "push",
			},
		})
		return err
	}

	d.logger.Debug("value pushed", "conn", conn, "value", v, "mode", mode)
	d.events.Log(log.Event{
		Timestamp:  time.Now(),
		RunID:      d.config.RunID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerDelivery,
		Category:   log.CategoryValue,
		ConnID:     log.ConnRef(uint16(conn)),
		Capability: uint16(d.config.Capability),
		Value: &log.ValueEvent{
			Action:   log.ValuePushed,
			Value:    v,
			Indicate: mode == subscription.ModeIndicate,
		},
	})
	return nil
}

func (d *Delivery) handleStateChange(c subscription.Change) {
	d.logger.Info("subscription changed",
		"capability", c.Capability, "old", c.Old, "new", c.New, "reason", c.Reason)

	ev := log.Event{
		Timestamp:  time.Now(),
		RunID:      d.config.RunID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerDelivery,
		Category:   log.CategoryState,
		Capability: uint16(c.Capability),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySubscription,
			OldState: c.Old.String(),
			NewState: c.New.String(),
			Reason:   string(c.Reason),
		},
	}
	if conn, _, ok := c.New.Target(); ok {
		ev.ConnID = log.ConnRef(uint16(conn))
	} else if conn, _, ok := c.Old.Target(); ok {
		ev.ConnID = log.ConnRef(uint16(conn))
	}
	d.events.Log(ev)

	if d.config.OnChange != nil {
		d.config.OnChange(c)
	}
}
