package log

import (
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{Timestamp: time.Now(), RunID: "x"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("events: a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
	if a.events[0].RunID != "x" {
		t.Errorf("RunID = %q, want x", a.events[0].RunID)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != r {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestParseNames(t *testing.T) {
	if l, ok := ParseLayer("delivery"); !ok || l != LayerDelivery {
		t.Errorf("ParseLayer(delivery) = %v, %v", l, ok)
	}
	if c, ok := ParseCategory("ERROR"); !ok || c != CategoryError {
		t.Errorf("ParseCategory(ERROR) = %v, %v", c, ok)
	}
	if d, ok := ParseDirection("out"); !ok || d != DirectionOut {
		t.Errorf("ParseDirection(out) = %v, %v", d, ok)
	}
	if _, ok := ParseLayer("bogus"); ok {
		t.Error("ParseLayer(bogus) should fail")
	}
}
