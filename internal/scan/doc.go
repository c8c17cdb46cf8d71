// Package scan drives batch runs against the places source.
//
// A run walks a list of scopes (a city or neighborhood paired with a search
// phrase), paginates each through the source, and hands every record to the
// normalizer, resolver, and taxonomy matcher in turn. Failures are sorted by
// services.FailureLevel: record failures are counted and skipped, source
// failures abandon the scope, and quota exhaustion or cancellation stops the
// run. Everything written before a stop stays written.
//
// Loop mode repeats the run on a fixed interval, rescanning neighborhoods that
// still hold fewer providers than the configured target.
package scan
