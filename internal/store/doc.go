// Package store persists the provider directory in SQLite.
//
// It owns the schema (cities, neighborhoods, categories, providers, and the
// provider/category link table), applies embedded migrations on open, and
// exposes the narrow write operations the resolver builds on: natural-key
// upserts for reference data, a typed insert that reports which uniqueness
// constraint rejected a provider, and per-row updates. Read helpers back the
// CLI listings and the loop-mode scope selection.
//
// The database enforces the directory invariants itself: slugs and source
// identifiers are unique, confidences stay within [0,1], and a provider can
// only reference a neighborhood of its own city.
package store
