// Package normalize maps raw places payloads onto the canonical record the
// resolver consumes.
//
// Two payload layouts are understood: the current Places API ("places.v1",
// camelCase keys, displayName object) and the older web service
// ("places.legacy", snake_case keys, geometry object). "auto" picks the
// layout from the identifier key present. Optional fields that are missing
// or malformed are left absent rather than failing the record; only a missing
// identifier or name rejects it.
package normalize
