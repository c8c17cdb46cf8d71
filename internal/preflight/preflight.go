package preflight

import (
	"context"

	"therapyfinder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects optional checks.
type Options struct {
	// RequireKey fails the run when no places API key is configured.
	RequireKey bool
	// Probe issues one live search request to confirm the key works. It
	// spends quota.
	Probe bool
	// Health checks an open database.
	Health HealthChecker
}

// RunAll executes the applicable checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}
	if cfg.Paths.MetricsFile != "" {
		results = append(results, CheckParentAccess("Metrics textfile", cfg.Paths.MetricsFile))
	}
	if opts.RequireKey || opts.Probe {
		results = append(results, CheckPlacesKey(cfg))
	}
	if opts.Probe && cfg.Places.APIKey != "" {
		results = append(results, CheckPlaces(ctx, cfg))
	}
	if opts.Health != nil {
		results = append(results, CheckDatabase(ctx, opts.Health))
	}
	return results
}

// Failed returns the failing results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
