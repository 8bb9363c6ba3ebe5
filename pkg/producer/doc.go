// Package producer implements the change filter between the sampler and the
// bounded queue.
//
// Once per poll period the producer reads the sampler's latest reading and
// compares it against the last reading it forwarded (not the last one it
// saw). Only changes larger than the tolerance are queued. If the queue is
// full the value is dropped and the baseline stays where it was, so the same
// change is retried on the next period until it goes through or the input
// moves again.
//
// The producer never blocks on the queue: its cadence is independent of how
// fast the consumer drains.
package producer
