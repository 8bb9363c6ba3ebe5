// Package queue implements the bounded FIFO between the producer and the
// consumer.
//
// Sending never blocks: when the queue is full TrySend fails with ErrFull and
// the caller decides what to do with the value. Receiving blocks up to a
// timeout; a timeout is a normal "nothing new" outcome, not an error.
package queue

import (
	"context"
	"errors"
	"time"
)

// Queue errors.
var (
	// ErrFull indicates the queue is at capacity.
	ErrFull = errors.New("queue full")

	// ErrInvalidCapacity indicates a capacity below 1.
	ErrInvalidCapacity = errors.New("queue capacity must be at least 1")
)

// Queue is a fixed-capacity FIFO safe for one sender and one receiver
// (or more of either).
type Queue[T any] struct {
	items chan T
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{items: make(chan T, capacity)}, nil
}

// TrySend enqueues v without blocking. It returns ErrFull if the queue is at
// capacity; v is not enqueued in that case.
func (q *Queue[T]) TrySend(v T) error {
	select {
	case q.items <- v:
		return nil
	default:
		return ErrFull
	}
}

// Receive dequeues the oldest item, waiting at most timeout. It returns
// ok=false with a nil error on timeout, and ctx.Err() if ctx ends first.
// A non-positive timeout polls without waiting.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (v T, ok bool, err error) {
	if timeout <= 0 {
		select {
		case v = <-q.items:
			return v, true, nil
		default:
			return v, false, ctx.Err()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v = <-q.items:
		return v, true, nil
	case <-timer.C:
		return v, false, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}
