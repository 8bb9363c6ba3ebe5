// Package log provides structured event capture for the dialsense pipeline.
//
// This package defines the Logger interface and Event types for recording
// what happens at each stage of the pipeline (sampler, producer/consumer,
// delivery, gateway transport). It is separate from operational logging
// (slog): event capture gives a machine-readable trace of forwarded values,
// dropped values, subscription transitions and delivery failures.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field capture: write to a binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/dialsense/device.dlog")
//
//	// Both
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Value events: a reading was forwarded, dropped, received, pushed or pulled
//   - State events: a capability changed subscription state
//   - Frame events: raw gateway frames
//   - Error events: delivery failures and driver faults
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .dlog extension.
// The dialsense-log tool views and summarises them.
package log
