package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePlaces(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateTaxonomy(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be a full URL (e.g. https://ntfy.sh/finder), got %q", topic)
		}
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validatePlaces() error {
	parsed, err := url.Parse(c.Places.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("places.base_url must be an absolute URL, got %q", c.Places.BaseURL)
	}
	if c.Places.PageSize > 20 {
		return errors.New("places.page_size must be between 1 and 20")
	}
	if c.Places.PhotoMaxPx > 4800 {
		return errors.New("places.photo_max_px must be between 1 and 4800")
	}
	switch c.Places.SchemaVersion {
	case "auto", "places.v1", "places.legacy":
	default:
		return fmt.Errorf("places.schema_version must be one of auto, places.v1, places.legacy; got %q", c.Places.SchemaVersion)
	}
	return nil
}

func (c *Config) validateScan() error {
	if err := ensurePositiveMap(map[string]int{
		"places.timeout_seconds":     c.Places.TimeoutSeconds,
		"scan.loop_interval_seconds": c.Scan.LoopIntervalSeconds,
		"scan.loop_target":           c.Scan.LoopTarget,
	}); err != nil {
		return err
	}
	for _, query := range c.Scan.Queries {
		if strings.ContainsAny(query, "\n\r") {
			return fmt.Errorf("scan.queries entry %q must be a single line", query)
		}
	}
	return nil
}

func (c *Config) validateTaxonomy() error {
	if len(c.Taxonomy.GeneralistKeywords) == 0 {
		return errors.New("taxonomy.generalist_keywords must include at least one keyword")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
