package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlaces()
	c.normalizeScan()
	c.normalizeTaxonomy()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.MetricsFile, err = expandPath(strings.TrimSpace(c.Paths.MetricsFile)); err != nil {
		return fmt.Errorf("paths.metrics_file: %w", err)
	}
	return nil
}

func (c *Config) normalizePlaces() {
	c.Places.APIKey = strings.TrimSpace(c.Places.APIKey)
	if c.Places.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_MAPS_API_KEY"); ok {
			c.Places.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("PLACES_API_KEY"); ok {
			c.Places.APIKey = strings.TrimSpace(value)
		}
	}
	c.Places.BaseURL = strings.TrimRight(strings.TrimSpace(c.Places.BaseURL), "/")
	if c.Places.BaseURL == "" {
		c.Places.BaseURL = defaultPlacesBaseURL
	}
	if c.Places.TimeoutSeconds <= 0 {
		c.Places.TimeoutSeconds = defaultPlacesTimeout
	}
	if c.Places.PageSize <= 0 {
		c.Places.PageSize = defaultPlacesPageSize
	}
	if c.Places.PhotoMaxPx <= 0 {
		c.Places.PhotoMaxPx = defaultPhotoMaxPx
	}
	c.Places.SchemaVersion = strings.ToLower(strings.TrimSpace(c.Places.SchemaVersion))
	if c.Places.SchemaVersion == "" {
		c.Places.SchemaVersion = defaultSchemaVersion
	}
}

func (c *Config) normalizeScan() {
	c.Scan.Queries = cleanList(c.Scan.Queries, false)
	if len(c.Scan.Queries) == 0 {
		c.Scan.Queries = append([]string(nil), defaultQueries...)
	}
	c.Scan.NeighborhoodQuery = strings.TrimSpace(c.Scan.NeighborhoodQuery)
	if c.Scan.NeighborhoodQuery == "" {
		c.Scan.NeighborhoodQuery = defaultNeighborhoodQuery
	}
	if c.Scan.PageDelayMS < 0 {
		c.Scan.PageDelayMS = 0
	}
	if c.Scan.ScopeDelayMS < 0 {
		c.Scan.ScopeDelayMS = 0
	}
	if c.Scan.MaxResultsPerScope < 0 {
		c.Scan.MaxResultsPerScope = 0
	}
	if c.Scan.LoopIntervalSeconds <= 0 {
		c.Scan.LoopIntervalSeconds = defaultLoopIntervalSeconds
	}
	if c.Scan.LoopTarget <= 0 {
		c.Scan.LoopTarget = defaultLoopTarget
	}
	c.Scan.ExcludeNames = cleanList(c.Scan.ExcludeNames, false)
}

func (c *Config) normalizeTaxonomy() {
	c.Taxonomy.GeneralistKeywords = cleanList(c.Taxonomy.GeneralistKeywords, true)
	c.Taxonomy.CoreCategories = cleanList(c.Taxonomy.CoreCategories, false)
	if len(c.Taxonomy.SpecificKeywords) == 0 {
		return
	}
	cleaned := make(map[string][]string, len(c.Taxonomy.SpecificKeywords))
	for name, keywords := range c.Taxonomy.SpecificKeywords {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if list := cleanList(keywords, true); len(list) > 0 {
			cleaned[name] = list
		}
	}
	c.Taxonomy.SpecificKeywords = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// cleanList trims entries, drops blanks, and removes case-insensitive duplicates.
func cleanList(values []string, lower bool) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		if lower {
			value = key
		}
		out = append(out, value)
	}
	return out
}
