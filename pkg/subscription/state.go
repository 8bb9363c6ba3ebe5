package subscription

import "fmt"

// ConnID is a peer connection handle.
type ConnID uint16

// Capability is the 16-bit UUID of an exposed attribute.
type Capability uint16

// String formats the capability as a 16-bit UUID.
func (c Capability) String() string {
	return fmt.Sprintf("0x%04X", uint16(c))
}

// Mode selects how pushes are delivered.
type Mode uint8

const (
	// ModeNotify delivers unacknowledged notifications.
	ModeNotify Mode = iota + 1

	// ModeIndicate delivers acknowledged indications.
	ModeIndicate
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNotify:
		return "NOTIFY"
	case ModeIndicate:
		return "INDICATE"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeNotify || m == ModeIndicate
}

// State is the subscription state of one capability. The zero value is
// Unsubscribed.
type State struct {
	subscribed bool
	conn       ConnID
	mode       Mode
}

// Unsubscribed returns the Unsubscribed state.
func Unsubscribed() State {
	return State{}
}

// Subscribed returns the Subscribed(conn, mode) state.
func Subscribed(conn ConnID, mode Mode) State {
	return State{subscribed: true, conn: conn, mode: mode}
}

// IsSubscribed reports whether the state is Subscribed.
func (s State) IsSubscribed() bool {
	return s.subscribed
}

// Target returns the connection and mode of a Subscribed state.
// ok is false for Unsubscribed.
func (s State) Target() (conn ConnID, mode Mode, ok bool) {
	if !s.subscribed {
		return 0, 0, false
	}
	return s.conn, s.mode, true
}

// String renders the state, e.g. "SUBSCRIBED(3,INDICATE)".
func (s State) String() string {
	if !s.subscribed {
		return "UNSUBSCRIBED"
	}
	return fmt.Sprintf("SUBSCRIBED(%d,%s)", s.conn, s.mode)
}
