// Package log provides structured scan tracing for pcicap.
//
// This package defines the Logger interface and Event types for capturing
// every step of a capability scan: the header of each device, each decoded
// capability, each error and a per-device summary. It is separate from
// operational logging (slog) - the trace is a complete machine-readable
// record of what was decoded and where decoding failed.
//
// # Basic Usage
//
// The scanner is configured with a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Trace = log.NewSlogAdapter(slog.Default())
//
//	// For later analysis: write to binary file
//	cfg.Trace, _ = log.NewFileLogger("/var/tmp/scan.ptrace")
//
//	// Both: use MultiLogger
//	cfg.Trace = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Each event carries one payload selected by its Category:
//   - HEADER: the configuration header facts (HeaderEvent)
//   - CAPABILITY: a decoded record (CapabilityEvent)
//   - ERROR: a device, chain or record error (ErrorEventData)
//   - SUMMARY: per-device counts and duration (SummaryEvent)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys,
// conventionally named *.ptrace. The pcicap-log tool provides viewing,
// filtering, export and statistics.
package log
