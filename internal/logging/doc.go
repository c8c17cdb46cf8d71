// Package logging builds the slog loggers every finder command uses.
//
// Two formats exist: a console line format tuned for tailing scans (scope and
// source id lead the field list) and JSON for log shippers. Loggers write to
// stderr plus finder.log in the data directory. WithContext tags lines with
// the run, scope, and record identifiers carried on a context, and
// WarnWithContext/ErrorWithContext guarantee the event_type and error_hint
// fields operators filter on.
package logging
