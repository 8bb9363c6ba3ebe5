// Package wire defines the byte formats exchanged with peers.
//
// # Characteristic value
//
// The dial characteristic carries a 4-byte value:
//
//	byte 0: reserved, always 0x00
//	byte 1: auxiliary tag (16 by default)
//	byte 2-3: reading, little-endian uint16
//
// Pull responses and pushes carry the same bytes verbatim. Some descriptions
// of the characteristic list only the 2-byte header (reserved, tag) as its
// size. Peers must size buffers for ValueSize bytes and read the reading from
// bytes 2-3; a 2-byte read truncates the value.
//
// # Gateway messages
//
// The host gateway frames CBOR messages with integer keys. Requests come from
// the peer, responses and notifications from the device. Message ID 0 marks
// a notification.
package wire
