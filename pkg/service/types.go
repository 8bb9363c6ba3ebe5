package service

import (
	"errors"

	"github.com/dialsense/dialsense-go/pkg/consumer"
	"github.com/dialsense/dialsense-go/pkg/delivery"
	"github.com/dialsense/dialsense-go/pkg/producer"
	"github.com/dialsense/dialsense-go/pkg/subscription"
)

// Service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrAlreadyStarted = errors.New("service already started")
	ErrNoDriver       = errors.New("driver is required")
)

// ServiceState represents the service lifecycle.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - driver and loops are being brought up.
	StateStarting

	// StateRunning - all loops are running.
	StateRunning

	// StateStopping - loops are being cancelled.
	StateStopping

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a service event.
type EventType uint8

const (
	// EventValueChanged - the consumer published a new current value.
	EventValueChanged EventType = iota

	// EventSubscriptionChanged - a peer subscribed, unsubscribed or left.
	EventSubscriptionChanged
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventValueChanged:
		return "VALUE_CHANGED"
	case EventSubscriptionChanged:
		return "SUBSCRIPTION_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Event is delivered to handlers registered with OnEvent.
type Event struct {
	Type EventType

	// Value is set for EventValueChanged.
	Value uint16

	// Change is set for EventSubscriptionChanged.
	Change subscription.Change
}

// EventHandler receives service events in emission order on a goroutine
// owned by the handler. A handler that falls behind by more than
// eventBuffer events misses the overflow.
type EventHandler func(Event)

// Stats aggregates the pipeline counters.
type Stats struct {
	Producer    producer.Stats
	Consumer    consumer.Stats
	Delivery    delivery.Stats
	QueueLen    int
	Connections int
}
