// Package subscription tracks whether a peer has opted in to unsolicited
// updates for each exposed capability.
//
// Each capability is in exactly one of two states:
//
//   - Unsubscribed: initial state, and the state after an unsubscribe or
//     after the subscribed connection drops.
//   - Subscribed(conn, mode): updates go to connection conn, either as
//     notifications or as indications.
//
// The connection handle is part of the Subscribed state rather than a
// separate flag, so a stale handle can never be paired with an enabled flag.
//
// # Events
//
//   - Subscribe(conn, cap, mode): enter Subscribed(conn, mode). A later
//     subscriber replaces an earlier one; only one peer is targeted.
//     Re-subscribing with the same connection and mode changes nothing.
//   - Unsubscribe(conn, cap): if conn is the target, enter Unsubscribed.
//   - Disconnect(conn): every capability targeting conn enters Unsubscribed.
//
// Reads are not events: they are answered in any state and never change it.
//
// # Concurrency
//
// Peer events arrive on the radio stack's context while the consumer asks
// for the push target on its own. All state is guarded by one mutex, so a
// reader always sees a consistent (state, connection) pair. State-change
// callbacks run after the lock is released.
package subscription
