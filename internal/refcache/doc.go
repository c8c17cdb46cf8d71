// Package refcache keeps reference rows (categories, cities, neighborhoods)
// in memory for the length of a batch run so the hot path does not re-read
// them for every record.
package refcache
