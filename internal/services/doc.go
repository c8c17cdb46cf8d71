// Package services defines shared utilities consumed by the scan pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, scope labels, and provider
//     source identifiers for logging.
//   - Structured error markers plus the Wrap helper, and FailureLevel, which
//     maps any pipeline error to how far it propagates (record, scope, run).
//
// Use these helpers when wiring new pipeline steps so error propagation and
// observability stay uniform across commands.
package services
