package subscription

import (
	"errors"
	"slices"
	"sync"
)

// Gate errors.
var (
	// ErrUnknownCapability indicates the capability was never registered.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrInvalidMode indicates a subscribe event without a valid mode.
	ErrInvalidMode = errors.New("invalid subscription mode")
)

// Reason says why a state changed.
type Reason string

// Transition reasons.
const (
	ReasonSubscribe   Reason = "subscribe"
	ReasonUnsubscribe Reason = "unsubscribe"
	ReasonDisconnect  Reason = "disconnect"
)

// Change describes one state transition.
type Change struct {
	Capability Capability
	Old        State
	New        State
	Reason     Reason
}

// entry is the per-capability record.
type entry struct {
	state State

	// everSubscribed is set on the first subscribe and never cleared.
	everSubscribed bool
}

// Gate holds the subscription state for a fixed set of capabilities.
type Gate struct {
	mu      sync.Mutex
	entries map[Capability]*entry

	onChange func(Change)
}

// NewGate creates a gate for the given capabilities, all Unsubscribed.
func NewGate(caps ...Capability) *Gate {
	g := &Gate{entries: make(map[Capability]*entry, len(caps))}
	for _, c := range caps {
		g.entries[c] = &entry{}
	}
	return g
}

// OnStateChange sets a callback invoked after each transition, outside the lock.
func (g *Gate) OnStateChange(fn func(Change)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// Has reports whether the capability is registered.
func (g *Gate) Has(c Capability) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[c]
	return ok
}

// Subscribe handles a peer enabling updates on the capability.
func (g *Gate) Subscribe(conn ConnID, c Capability, mode Mode) error {
	if !mode.IsValid() {
		return ErrInvalidMode
	}

	g.mu.Lock()
	e, ok := g.entries[c]
	if !ok {
		g.mu.Unlock()
		return ErrUnknownCapability
	}
	old := e.state
	e.state = Subscribed(conn, mode)
	e.everSubscribed = true
	changes := changed(c, old, e.state, ReasonSubscribe)
	fn := g.onChange
	g.mu.Unlock()

	notify(fn, changes)
	return nil
}

// Unsubscribe handles a peer disabling updates on the capability. It is ignored unless
// conn is the current target.
func (g *Gate) Unsubscribe(conn ConnID, c Capability) error {
	g.mu.Lock()
	e, ok := g.entries[c]
	if !ok {
		g.mu.Unlock()
		return ErrUnknownCapability
	}
	var changes []Change
	if target, _, sub := e.state.Target(); sub && target == conn {
		old := e.state
		e.state = Unsubscribed()
		changes = changed(c, old, e.state, ReasonUnsubscribe)
	}
	fn := g.onChange
	g.mu.Unlock()

	notify(fn, changes)
	return nil
}

// Disconnect moves every capability targeting conn to Unsubscribed.
func (g *Gate) Disconnect(conn ConnID) {
	g.mu.Lock()
	var changes []Change
	for c, e := range g.entries {
		if target, _, sub := e.state.Target(); sub && target == conn {
			old := e.state
			e.state = Unsubscribed()
			changes = append(changes, changed(c, old, e.state, ReasonDisconnect)...)
		}
	}
	fn := g.onChange
	g.mu.Unlock()

	notify(fn, changes)
}

// State returns the state of a capability. Unknown capabilities read as Unsubscribed.
func (g *Gate) State(c Capability) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[c]; ok {
		return e.state
	}
	return Unsubscribed()
}

// EverSubscribed reports whether any peer has ever subscribed to the capability.
func (g *Gate) EverSubscribed(c Capability) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[c]; ok {
		return e.everSubscribed
	}
	return false
}

// Capabilities returns every registered capability in ascending order.
func (g *Gate) Capabilities() []Capability {
	g.mu.Lock()
	defer g.mu.Unlock()
	caps := make([]Capability, 0, len(g.entries))
	for c := range g.entries {
		caps = append(caps, c)
	}
	slices.Sort(caps)
	return caps
}

// Subscriptions returns the Subscribed capabilities and their states.
func (g *Gate) Subscriptions() map[Capability]State {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Capability]State)
	for c, e := range g.entries {
		if e.state.IsSubscribed() {
			out[c] = e.state
		}
	}
	return out
}

// changed returns a one-element slice if the state actually moved.
func changed(c Capability, from, to State, reason Reason) []Change {
	if from == to {
		return nil
	}
	return []Change{{Capability: c, Old: from, New: to, Reason: reason}}
}

func notify(fn func(Change), changes []Change) {
	if fn == nil {
		return
	}
	for _, c := range changes {
		fn(c)
	}
}
