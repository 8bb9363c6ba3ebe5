package producer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/queue"
	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/sampler/mocks"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingSink collects sent values and can be switched to reject sends.
type recordingSink struct {
	mu   sync.Mutex
	sent []sampler.Reading
	full bool
}

func (s *recordingSink) TrySend(v sampler.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return queue.ErrFull
	}
	s.sent = append(s.sent, v)
	return nil
}

func (s *recordingSink) setFull(full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.full = full
}

func (s *recordingSink) values() []sampler.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sampler.Reading(nil), s.sent...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *eventRecorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestDeltaNeverWraps(t *testing.T) {
	assert.Equal(t, uint32(5), Delta(100, 95))
	assert.Equal(t, uint32(5), Delta(95, 100))
	assert.Equal(t, uint32(0xFFFFFFFF), Delta(0, 0xFFFFFFFF))
	assert.Equal(t, uint32(0), Delta(7, 7))
}

func TestExceeds(t *testing.T) {
	assert.False(t, Exceeds(103, 100, 3), "equal to tolerance is not a change")
	assert.True(t, Exceeds(104, 100, 3))
	assert.True(t, Exceeds(96, 100, 3))
	assert.False(t, Exceeds(97, 100, 3))
}

func TestFilterComparesAgainstLastForwarded(t *testing.T) {
	var slot sampler.Slot
	slot.Store(100)
	sink := &recordingSink{}
	p := New(&slot, sink, Config{Tolerance: 3, Logger: quiet})

	want := []Outcome{OutcomeUnchanged, OutcomeUnchanged, OutcomeForwarded, OutcomeForwarded}
	for i, r := range []sampler.Reading{101, 103, 104, 99} {
		slot.Store(r)
		assert.Equal(t, want[i], p.Poll(), "reading %d", r)
	}

	assert.Equal(t, []sampler.Reading{104, 99}, sink.values())
	assert.Equal(t, sampler.Reading(99), p.Baseline())
	assert.Equal(t, Stats{Polls: 4, Forwarded: 2}, p.Stats())
}

func TestFilterWithMockSource(t *testing.T) {
	src := mocks.NewMockSource(t)
	src.EXPECT().LatestRaw().Return(sampler.Reading(2000)).Once()
	src.EXPECT().LatestRaw().Return(sampler.Reading(2010)).Once()
	src.EXPECT().LatestRaw().Return(sampler.Reading(1989)).Once()

	sink := &recordingSink{}
	p := New(src, sink, Config{Tolerance: DefaultTolerance, Logger: quiet})

	assert.Equal(t, OutcomeUnchanged, p.Poll(), "delta 10 equals tolerance")
	assert.Equal(t, OutcomeForwarded, p.Poll(), "delta 11 exceeds tolerance")
	assert.Equal(t, []sampler.Reading{1989}, sink.values())
}

func TestDroppedValueDoesNotAdvanceBaseline(t *testing.T) {
	var slot sampler.Slot
	slot.Store(100)
	sink := &recordingSink{full: true}
	events := &eventRecorder{}
	p := New(&slot, sink, Config{Tolerance: 3, Logger: quiet, EventLogger: events})

	slot.Store(200)
	assert.Equal(t, OutcomeDropped, p.Poll())
	assert.Equal(t, sampler.Reading(100), p.Baseline())

	// Still full: the same change is retried and dropped again.
	assert.Equal(t, OutcomeDropped, p.Poll())

	sink.setFull(false)
	assert.Equal(t, OutcomeForwarded, p.Poll())
	assert.Equal(t, sampler.Reading(200), p.Baseline())
	assert.Equal(t, []sampler.Reading{200}, sink.values())
	assert.Equal(t, Stats{Polls: 3, Forwarded: 1, Dropped: 2}, p.Stats())

	require.Len(t, events.events, 3)
	assert.Equal(t, log.ValueDropped, events.events[0].Value.Action)
	assert.Equal(t, uint16(100), *events.events[0].Value.Baseline)
	assert.Equal(t, uint32(100), *events.events[0].Value.Delta)
	assert.Equal(t, log.ValueForwarded, events.events[2].Value.Action)
}

func TestBackpressureWithRealQueue(t *testing.T) {
	const k = 2
	q, err := queue.New[sampler.Reading](k)
	require.NoError(t, err)

	var slot sampler.Slot
	p := New(&slot, q, Config{Tolerance: 0, Logger: quiet})

	for i := 1; i <= k; i++ {
		slot.Store(sampler.Reading(i * 100))
		require.Equal(t, OutcomeForwarded, p.Poll())
	}

	slot.Store(900)
	assert.Equal(t, OutcomeDropped, p.Poll(), "the (K+1)th send is rejected")
	assert.Equal(t, k, q.Len())
}

func TestRunPollsUntilCancelled(t *testing.T) {
	var slot sampler.Slot
	sink := &recordingSink{}
	p := New(&slot, sink, Config{PollPeriod: time.Millisecond, Tolerance: 3, PinThread: true, Logger: quiet})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	slot.Store(500)
	assert.Eventually(t, func() bool {
		return len(sink.values()) == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Greater(t, p.Stats().Polls, uint64(0))
}

func TestNewAppliesDefaultPeriod(t *testing.T) {
	var slot sampler.Slot
	p := New(&slot, &recordingSink{}, Config{})
	assert.Equal(t, DefaultPollPeriod, p.config.PollPeriod)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "FORWARDED", OutcomeForwarded.String())
	assert.Equal(t, "DROPPED", OutcomeDropped.String())
	assert.Equal(t, "UNCHANGED", OutcomeUnchanged.String())
	assert.Equal(t, "UNKNOWN", Outcome(9).String())
}
