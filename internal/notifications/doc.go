// Package notifications delivers batch run reports to ntfy.
//
// NewService returns a no-op Service when no topic is configured, so callers
// notify unconditionally. Delivery failures are returned to the caller, which
// logs them; a failed notification never fails a run.
package notifications
