package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusUnknownCapability indicates the capability is not exposed.
	StatusUnknownCapability Status = 1

	// StatusInvalidParameter indicates a malformed request field.
	StatusInvalidParameter Status = 2

	// StatusUnsupported indicates the operation is not supported on the capability.
	StatusUnsupported Status = 3

	// StatusBusy indicates the device could not serve the request right now.
	StatusBusy Status = 4
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownCapability:
		return "UNKNOWN_CAPABILITY"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
