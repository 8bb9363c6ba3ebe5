package wire

import "fmt"

// NotificationMessageID is reserved to mark notifications.
const NotificationMessageID uint32 = 0

// Subscription modes on the wire.
const (
	ModeNotify   uint8 = 1
	ModeIndicate uint8 = 2
)

// Request is a peer request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,   // uint32, non-zero
//	  2: operation,   // uint8: 1=Read, 2=Subscribe, 3=Unsubscribe
//	  3: capability,  // uint16 attribute UUID
//	  4: mode         // uint8 (Subscribe only): 1=notify, 2=indicate
//	}
type Request struct {
	MessageID  uint32    `cbor:"1,keyasint"`
	Operation  Operation `cbor:"2,keyasint"`
	Capability uint16    `cbor:"3,keyasint"`
	Mode       uint8     `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the request is well-formed.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return fmt.Errorf("messageId 0 is reserved for notifications")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	if r.Operation == OpSubscribe && r.Mode != ModeNotify && r.Mode != ModeIndicate {
		return fmt.Errorf("invalid subscribe mode: %d", r.Mode)
	}
	return nil
}

// Response answers a Request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32: matches request
//	  2: status,     // uint8
//	  3: value       // bytes (Read only)
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Value     []byte `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Notification is an unsolicited push of a capability value.
//
// CBOR encoding:
//
//	{
//	  1: 0,           // messageId 0 = notification
//	  2: capability,  // uint16
//	  3: value,       // bytes
//	  4: indicate     // bool, omitted for notifications
//	}
type Notification struct {
	Capability uint16 `cbor:"2,keyasint"`
	Value      []byte `cbor:"3,keyasint"`
	Indicate   bool   `cbor:"4,keyasint,omitempty"`
}
