// Package runlock keeps batch entry points from overlapping.
//
// Scans, classification passes, and slug repair all mutate the provider
// tables; a file lock beside the database makes a second invocation fail
// fast with ErrLocked instead of interleaving writes.
package runlock
