// Package seed loads the directory's reference data (therapy categories,
// states, cities, and neighborhoods) from YAML and upserts it into the store.
//
// The default data set is embedded; a file path replaces it wholesale.
// Seeding is append-only and safe to repeat.
package seed
