// Package services defines shared utilities consumed by the engines and
// external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs transport vs storage) uniform across the
//     snapshot, preset, and export components.
//   - Context helpers that stamp task and snapshot identifiers for logging.
//
// Use these helpers when wiring new engine logic so operational behaviour
// (error handling, observability) stays consistent.
package services
