// Package config holds the finder's TOML configuration.
//
// Load applies defaults, decodes the file strictly (unknown keys are errors),
// normalizes values, and validates them. Places API keys fall back to
// GOOGLE_MAPS_API_KEY or PLACES_API_KEY. Accessors such as PageDelay and
// DatabasePath turn raw settings into the values commands consume.
package config
