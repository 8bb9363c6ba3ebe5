package wire

// Operation is a peer request type.
type Operation uint8

const (
	// OpRead pulls the current value of a capability.
	OpRead Operation = 1

	// OpSubscribe enables pushes for a capability.
	OpSubscribe Operation = 2

	// OpUnsubscribe disables pushes for a capability.
	OpUnsubscribe Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "Read"
	case OpSubscribe:
		return "Subscribe"
	case OpUnsubscribe:
		return "Unsubscribe"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is known.
func (o Operation) IsValid() bool {
	return o >= OpRead && o <= OpUnsubscribe
}
