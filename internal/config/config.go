package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	MetricsFile string `toml:"metrics_file"`
}

// Places contains configuration for the Google Places text search API.
type Places struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PageSize       int    `toml:"page_size"`
	PhotoMaxPx     int    `toml:"photo_max_px"`
	SchemaVersion  string `toml:"schema_version"`
}

// Scan contains pacing and scoping settings for batch scans.
type Scan struct {
	Queries             []string `toml:"queries"`
	NeighborhoodQuery   string   `toml:"neighborhood_query"`
	PageDelayMS         int      `toml:"page_delay_ms"`
	ScopeDelayMS        int      `toml:"scope_delay_ms"`
	MaxResultsPerScope  int      `toml:"max_results_per_scope"`
	LoopIntervalSeconds int      `toml:"loop_interval_seconds"`
	LoopTarget          int      `toml:"loop_target"`
	ExcludeNames        []string `toml:"exclude_names"`
}

// Taxonomy contains the keyword tables used by the category matcher.
type Taxonomy struct {
	GeneralistKeywords []string            `toml:"generalist_keywords"`
	CoreCategories     []string            `toml:"core_categories"`
	SpecificKeywords   map[string][]string `toml:"specific_keywords"`
}

// Notifications configures ntfy run reports.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for therapyfinder.
//
// Configuration sections by subsystem:
//   - Paths: database directory and optional metrics textfile
//   - Places: credentials and limits for the external places source
//   - Scan: query templates, pacing, and loop-mode thresholds
//   - Taxonomy: generalist keywords, core categories, keyword overrides
//   - Notifications: optional ntfy endpoint for run reports
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Places        Places        `toml:"places"`
	Scan          Scan          `toml:"scan"`
	Taxonomy      Taxonomy      `toml:"taxonomy"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or the first existing file among the
// per-user path and ./therapyfinder.toml when path is empty. A missing file
// yields defaults. The returned string is the file that was (or would be)
// read and the bool reports whether it existed.
func Load(path string) (*Config, string, bool, error) {
	source, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(source, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, source, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func locate(explicit string) (string, bool, error) {
	var candidates []string
	if explicit != "" {
		candidates = []string{explicit}
	} else {
		candidates = []string{defaultConfigPath, "therapyfinder.toml"}
	}
	var first string
	for _, candidate := range candidates {
		abs, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return abs, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the data directory and the metrics file parent.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	if c.Paths.MetricsFile != "" {
		dir := filepath.Dir(c.Paths.MetricsFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the provider database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "finder.db")
}

// LogPath returns the location of the persistent log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.DataDir, "finder.log")
}

func seconds(n int) time.Duration      { return time.Duration(n) * time.Second }
func milliseconds(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c *Config) PlacesTimeout() time.Duration { return seconds(c.Places.TimeoutSeconds) }

// PageDelay is the pause between result pages of one scope.
func (c *Config) PageDelay() time.Duration { return milliseconds(c.Scan.PageDelayMS) }

// ScopeDelay is the pause between scopes.
func (c *Config) ScopeDelay() time.Duration { return milliseconds(c.Scan.ScopeDelayMS) }

// LoopInterval is the sleep between loop-mode sweeps.
func (c *Config) LoopInterval() time.Duration { return seconds(c.Scan.LoopIntervalSeconds) }

func (c *Config) NotifyTimeout() time.Duration { return seconds(c.Notifications.RequestTimeoutSeconds) }

// RequirePlacesKey reports a descriptive error when no API key is configured.
// Commands that never reach the places source skip this check.
func (c *Config) RequirePlacesKey() error {
	if strings.TrimSpace(c.Places.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("places.api_key is required. Set GOOGLE_MAPS_API_KEY env var or edit %s (create with 'finder config init')", defaultPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
