package consumer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialsense/dialsense-go/pkg/queue"
	"github.com/dialsense/dialsense-go/pkg/sampler"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type collector struct {
	mu     sync.Mutex
	values []uint16
}

func (c *collector) OnNewValue(v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *collector) snapshot() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint16(nil), c.values...)
}

func newQueue(t *testing.T, capacity int) *queue.Queue[sampler.Reading] {
	t.Helper()
	q, err := queue.New[sampler.Reading](capacity)
	require.NoError(t, err)
	return q
}

func TestCurrentDefaultsToZero(t *testing.T) {
	c := New(newQueue(t, 1), nil, Config{Logger: quiet})
	assert.Equal(t, uint16(0), c.Current().Load())
}

func TestStepPublishesThenNotifies(t *testing.T) {
	q := newQueue(t, 1)
	var c *Consumer
	var seenInListener uint16
	c = New(q, ListenerFunc(func(v uint16) {
		seenInListener = c.Current().Load()
	}), Config{Wait: 10 * time.Millisecond, Logger: quiet})

	require.NoError(t, q.TrySend(0x00010FFF))

	ok, err := c.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0FFF), c.Current().Load(), "only the low 16 bits are kept")
	assert.Equal(t, uint16(0x0FFF), seenInListener, "value is published before the listener runs")
}

func TestStepTimeoutLeavesStateAlone(t *testing.T) {
	q := newQueue(t, 1)
	l := &collector{}
	c := New(q, l, Config{Wait: 5 * time.Millisecond, Logger: quiet})

	require.NoError(t, q.TrySend(300))
	_, err := c.Step(context.Background())
	require.NoError(t, err)

	ok, err := c.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint16(300), c.Current().Load())
	assert.Equal(t, []uint16{300}, l.snapshot())
	assert.Equal(t, Stats{Received: 1, Timeouts: 1}, c.Stats())
}

func TestRunPreservesProductionOrder(t *testing.T) {
	values := []sampler.Reading{10, 400, 20, 3000, 1}
	q := newQueue(t, len(values))
	for _, v := range values {
		require.NoError(t, q.TrySend(v))
	}

	l := &collector{}
	c := New(q, l, Config{Wait: 5 * time.Millisecond, PinThread: true, Logger: quiet})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return len(l.snapshot()) == len(values)
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	assert.Equal(t, []uint16{10, 400, 20, 3000, 1}, l.snapshot())
	assert.Equal(t, uint16(1), c.Current().Load())
}

func TestConcurrentReadersSeeCompleteValues(t *testing.T) {
	q := newQueue(t, 64)
	c := New(q, nil, Config{Wait: time.Millisecond, Logger: quiet})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	allowed := map[uint16]bool{0: true, 0x00FF: true, 0xFF00: true}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				v := c.Current().Load()
				assert.True(t, allowed[v], "torn value %#x", v)
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			_ = q.TrySend(0x00FF)
		} else {
			_ = q.TrySend(0xFF00)
		}
	}
	wg.Wait()
}

func TestNewAppliesDefaultWait(t *testing.T) {
	c := New(newQueue(t, 1), nil, Config{})
	assert.Equal(t, DefaultWait, c.config.Wait)
}
