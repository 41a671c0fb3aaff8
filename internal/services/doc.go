// Package services defines shared utilities consumed by the pipeline phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file IDs, phase names, and run correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that distinguish per-file
//     failures from run-fatal ones (persistence, configuration).
//   - Thin abstractions that make command execution against external tools
//     testable.
//
// Use these helpers when wiring new phase logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
