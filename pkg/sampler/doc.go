// Package sampler exposes the coprocessor's latest analog reading.
//
// The coprocessor program wakes at a fixed period, converts one ADC channel
// and overwrites a single word in shared memory. There is no queue and no
// history: a reader always sees the freshest conversion at the time of the
// call. Slot models that word as an atomic single-writer/many-reader cell.
//
// Drivers bring the sensor up. Initialisation problems (bad channel, bad
// attenuation, program load failure) are reported as ErrDriverFault and are
// fatal to startup.
//
// SimDriver emulates the coprocessor on a development host by sampling an
// Input function on its own goroutine.
package sampler
