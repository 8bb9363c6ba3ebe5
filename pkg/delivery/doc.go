// Package delivery connects the current value to the radio stack.
//
// Two paths share the consumer's current value:
//
//   - Push: on every new value the delivery layer consults the subscription
//     gate. If the value capability is Subscribed(conn, mode), the value is
//     pushed once to conn. Pushes are fire-and-forget: a failure is logged
//     and counted, never retried, and never changes subscription state (the
//     peer's own disconnect event does that). Nothing is queued.
//   - Pull: a peer read is answered from the current value in any state.
//
// Peer events (subscribe, unsubscribe, disconnect, read) arrive from the
// stack's own goroutines and must not block; they only touch the gate's
// mutex and the atomic current value.
package delivery
