// Package metrics counts batch-run outcomes and writes them in the Prometheus
// text format for a node-exporter textfile collector.
//
// A nil *Batch is valid and records nothing, so callers never branch on
// whether metrics are enabled.
package metrics
