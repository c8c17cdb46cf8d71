package testsupport

import (
	"path/filepath"
	"testing"

	"therapyfinder/internal/config"
)

// ConfigOption adjusts a test configuration after defaults are applied.
type ConfigOption func(*config.Config)

// NewConfig returns defaults rooted in t.TempDir with a dummy places key, an
// unroutable base URL, and no pacing delays.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Places.APIKey = "test"
	cfg.Places.BaseURL = "http://127.0.0.1:0"
	cfg.Scan.PageDelayMS, cfg.Scan.ScopeDelayMS = 0, 0
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

func WithPlacesKey(key string) ConfigOption {
	return func(c *config.Config) { c.Places.APIKey = key }
}

// WithPlacesBaseURL points the places client at a test server.
func WithPlacesBaseURL(url string) ConfigOption {
	return func(c *config.Config) { c.Places.BaseURL = url }
}
