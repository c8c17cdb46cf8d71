// Package main hosts the finder CLI entrypoint and command graph.
//
// Every batch entry point (seed, scan, classify, assign-neighborhoods,
// fix-slugs) and every read-only view (providers, categories, neighborhoods,
// stats) is a cobra subcommand. The command context resolves configuration
// once, builds the structured logger, stamps each invocation with a run id,
// and opens the store, so subcommands only translate flags into calls on the
// internal packages.
package main
