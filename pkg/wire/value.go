package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Characteristic value layout.
const (
	// ValueSize is the encoded size of a characteristic value.
	ValueSize = 4

	// DefaultTag is the auxiliary tag the firmware places in byte 1.
	DefaultTag byte = 16
)

// ErrInvalidValue indicates a malformed characteristic value.
var ErrInvalidValue = errors.New("invalid characteristic value")

// EncodeValue builds the characteristic bytes for a reading.
func EncodeValue(v uint16, tag byte) []byte {
	buf := make([]byte, ValueSize)
	buf[0] = 0x00
	buf[1] = tag
	binary.LittleEndian.PutUint16(buf[2:], v)
	return buf
}

// DecodeValue parses characteristic bytes into the reading and tag.
func DecodeValue(data []byte) (v uint16, tag byte, err error) {
	if len(data) != ValueSize {
		return 0, 0, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidValue, len(data), ValueSize)
	}
	if data[0] != 0x00 {
		return 0, 0, fmt.Errorf("%w: reserved byte is 0x%02X", ErrInvalidValue, data[0])
	}
	return binary.LittleEndian.Uint16(data[2:]), data[1], nil
}
