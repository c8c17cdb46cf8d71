// Package passes holds the maintenance passes that run over every stored
// provider without touching the places source: reclassification,
// neighborhood assignment, and slug repair.
package passes
