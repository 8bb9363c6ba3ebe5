package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Deterministic output: canonical key order, no indefinite lengths.
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor encoder mode: %v", err))
	}

	// Lenient decoding so newer peers can add keys.
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeRequest encodes a request message.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes and validates a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// notificationWire is the on-wire form with the explicit zero message ID.
type notificationWire struct {
	MessageID  uint32 `cbor:"1,keyasint"`
	Capability uint16 `cbor:"2,keyasint"`
	Value      []byte `cbor:"3,keyasint"`
	Indicate   bool   `cbor:"4,keyasint,omitempty"`
}

// EncodeNotification encodes a notification (message ID 0).
func EncodeNotification(n *Notification) ([]byte, error) {
	return Marshal(notificationWire{
		MessageID:  NotificationMessageID,
		Capability: n.Capability,
		Value:      n.Value,
		Indicate:   n.Indicate,
	})
}

// DecodeNotification decodes a notification message.
func DecodeNotification(data []byte) (*Notification, error) {
	var w notificationWire
	if err := Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if w.MessageID != NotificationMessageID {
		return nil, fmt.Errorf("not a notification message: messageId=%d", w.MessageID)
	}
	return &Notification{Capability: w.Capability, Value: w.Value, Indicate: w.Indicate}, nil
}

// PeekMessageID returns the message ID of an encoded message without fully
// decoding it, to tell responses from notifications.
func PeekMessageID(data []byte) (uint32, error) {
	var head struct {
		MessageID uint32 `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("failed to decode message header: %w", err)
	}
	return head.MessageID, nil
}
