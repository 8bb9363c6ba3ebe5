package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New[uint32](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[uint32](-1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestFIFOOrder(t *testing.T) {
	values := []uint32{5, 900, 3, 3, 4095, 0, 17}
	q, err := New[uint32](len(values))
	require.NoError(t, err)

	for _, v := range values {
		require.NoError(t, q.TrySend(v))
	}
	assert.Equal(t, len(values), q.Len())

	for i, want := range values {
		got, ok, err := q.Receive(context.Background(), time.Second)
		require.NoError(t, err)
		require.True(t, ok, "item %d", i)
		assert.Equal(t, want, got, "item %d", i)
	}
	assert.Equal(t, 0, q.Len())
}

func TestTrySendFullDropsValue(t *testing.T) {
	const k = 3
	q, err := New[uint32](k)
	require.NoError(t, err)

	for i := 0; i < k; i++ {
		require.NoError(t, q.TrySend(uint32(i)))
	}

	start := time.Now()
	assert.ErrorIs(t, q.TrySend(99), ErrFull)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "TrySend must not block")
	assert.Equal(t, k, q.Len())

	// The rejected value never shows up.
	for i := 0; i < k; i++ {
		v, ok, err := q.Receive(context.Background(), 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(i), v)
	}
	_, ok, err := q.Receive(context.Background(), 0)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReceiveTimeoutIsNotAnError(t *testing.T) {
	q, err := New[uint32](1)
	require.NoError(t, err)

	start := time.Now()
	_, ok, err := q.Receive(context.Background(), 20*time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestReceiveWakesOnSend(t *testing.T) {
	q, err := New[uint32](1)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.TrySend(42)
	}()

	v, ok, err := q.Receive(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(42), v)
}

func TestReceiveCancelled(t *testing.T) {
	q, err := New[uint32](1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ok, err := q.Receive(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestCap(t *testing.T) {
	q, err := New[string](10)
	require.NoError(t, err)
	assert.Equal(t, 10, q.Cap())
}
