package log

import (
	"strings"
	"time"
)

// Event represents a pipeline event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the process run (UUID) so several captures can share a file.
	RunID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates flow relative to the device (frames and deliveries).
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// ConnID is the peer connection handle, when a peer is involved.
	ConnID *uint16 `cbor:"6,keyasint,omitempty"`

	// Capability is the attribute the event concerns (0 when none).
	Capability uint16 `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Value       *ValueEvent       `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Frame       *FrameEvent       `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of flow.
type Direction uint8

const (
	// DirectionIn indicates data arriving at the device.
	DirectionIn Direction = 0
	// DirectionOut indicates data leaving the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection parses a direction name, ignoring case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(s) {
	case "IN":
		return DirectionIn, true
	case "OUT":
		return DirectionOut, true
	}
	return 0, false
}

// Layer indicates which pipeline stage captured the event.
type Layer uint8

const (
	// LayerSampler is the coprocessor/sensor driver.
	LayerSampler Layer = 0
	// LayerPipeline is the producer, queue and consumer.
	LayerPipeline Layer = 1
	// LayerDelivery is the subscription gate and push/pull handling.
	LayerDelivery Layer = 2
	// LayerTransport is the peer gateway (framing and connections).
	LayerTransport Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerSampler:
		return "SAMPLER"
	case LayerPipeline:
		return "PIPELINE"
	case LayerDelivery:
		return "DELIVERY"
	case LayerTransport:
		return "TRANSPORT"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer parses a layer name.
func ParseLayer(s string) (Layer, bool) {
	for l := LayerSampler; l <= LayerTransport; l++ {
		if strings.EqualFold(l.String(), s) {
			return l, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryValue indicates a reading moving through the pipeline.
	CategoryValue Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryFrame indicates a raw transport frame.
	CategoryFrame Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryValue:
		return "VALUE"
	case CategoryState:
		return "STATE"
	case CategoryFrame:
		return "FRAME"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryValue; c <= CategoryError; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return 0, false
}

// ValueAction says what happened to a reading.
type ValueAction uint8

const (
	// ValueForwarded: the producer queued a significant change.
	ValueForwarded ValueAction = 0
	// ValueDropped: the queue was full; the producer will retry next period.
	ValueDropped ValueAction = 1
	// ValueReceived: the consumer published a new current value.
	ValueReceived ValueAction = 2
	// ValuePushed: delivery pushed the value to a subscribed peer.
	ValuePushed ValueAction = 3
	// ValuePulled: a peer read the current value.
	ValuePulled ValueAction = 4
)

// String returns the action name.
func (a ValueAction) String() string {
	switch a {
	case ValueForwarded:
		return "FORWARDED"
	case ValueDropped:
		return "DROPPED"
	case ValueReceived:
		return "RECEIVED"
	case ValuePushed:
		return "PUSHED"
	case ValuePulled:
		return "PULLED"
	default:
		return "UNKNOWN"
	}
}

// ValueEvent captures a reading at some point in the pipeline.
type ValueEvent struct {
	// Action taken on the reading.
	Action ValueAction `cbor:"1,keyasint"`

	// Value is the meaningful 16 bits of the reading.
	Value uint16 `cbor:"2,keyasint"`

	// Baseline is the producer's last forwarded reading (producer events only).
	Baseline *uint16 `cbor:"3,keyasint,omitempty"`

	// Delta is |value - baseline| (producer events only).
	Delta *uint32 `cbor:"4,keyasint,omitempty"`

	// Indicate is set when a push was sent as an indication rather than a notification.
	Indicate bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures subscription, connection and driver lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySubscription indicates a capability subscription change.
	StateEntitySubscription StateEntity = 0
	// StateEntityConnection indicates a peer connection change.
	StateEntityConnection StateEntity = 1
	// StateEntityDriver indicates a sensor driver change.
	StateEntityDriver StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySubscription:
		return "SUBSCRIPTION"
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityDriver:
		return "DRIVER"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// ConnRef returns a pointer to a copy of id, for Event.ConnID.
func ConnRef(id uint16) *uint16 {
	return &id
}
