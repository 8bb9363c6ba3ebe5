// Package transport is the host gateway that stands in for the wireless
// stack when the device runs on a development machine.
//
// Peers connect over TCP and exchange CBOR messages (package wire) inside
// length-prefixed frames:
//
//	┌────────────────────────────────┐
//	│   Request / Response /         │
//	│   Notification (CBOR)          │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Each accepted peer is given a 16-bit connection handle, mirroring the
// handles a radio stack assigns. Handles are reused after a peer leaves, so
// every connection also carries a session UUID for log correlation.
//
// The Server dispatches Read, Subscribe and Unsubscribe requests to a
// Handler and reports closed connections through Handler.OnDisconnect. It
// also implements the outbound Push used by package delivery.
package transport
