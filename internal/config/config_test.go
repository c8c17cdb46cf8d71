package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"therapyfinder/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "therapyfinder")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "finder.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Places.APIKey != "env-key" {
		t.Fatalf("expected places key from env, got %q", cfg.Places.APIKey)
	}
	if cfg.Places.BaseURL != config.Default().Places.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Places.BaseURL)
	}
	if cfg.PageDelay() != 2*time.Second {
		t.Fatalf("unexpected page delay: %s", cfg.PageDelay())
	}
	if cfg.Scan.LoopTarget != 50 {
		t.Fatalf("unexpected loop target: %d", cfg.Scan.LoopTarget)
	}
	if len(cfg.Scan.Queries) != 6 {
		t.Fatalf("expected six default queries, got %v", cfg.Scan.Queries)
	}
	if err := cfg.RequirePlacesKey(); err != nil {
		t.Fatalf("RequirePlacesKey: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.DataDir); err != nil || !info.IsDir() {
		t.Fatalf("expected data dir to exist: %v", err)
	}
}

func TestLoadFallsBackToSecondaryEnvKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	os.Unsetenv("GOOGLE_MAPS_API_KEY")
	t.Setenv("PLACES_API_KEY", " places-key ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Places.APIKey != "places-key" {
		t.Fatalf("expected trimmed PLACES_API_KEY, got %q", cfg.Places.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "finder.toml")
	body := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[places]
api_key = "abc123"
base_url = "https://example.test/v1/"
page_size = 10

[scan]
queries = ["therapist", " Therapist ", "", "counselor"]
page_delay_ms = -5
exclude_names = ["Starbucks"]

[taxonomy]
generalist_keywords = ["Therapist", "LCSW"]

[taxonomy.specific_keywords]
"Eating Disorder Therapy" = ["Anorexia", " bulimia "]

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Places.BaseURL != "https://example.test/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Places.BaseURL)
	}
	if cfg.Places.PageSize != 10 {
		t.Fatalf("unexpected page size: %d", cfg.Places.PageSize)
	}
	if got := strings.Join(cfg.Scan.Queries, ","); got != "therapist,counselor" {
		t.Fatalf("unexpected queries: %q", got)
	}
	if cfg.Scan.PageDelayMS != 0 {
		t.Fatalf("expected negative delay clamped, got %d", cfg.Scan.PageDelayMS)
	}
	if got := strings.Join(cfg.Taxonomy.GeneralistKeywords, ","); got != "therapist,lcsw" {
		t.Fatalf("expected lowercased generalist keywords, got %q", got)
	}
	if got := strings.Join(cfg.Taxonomy.SpecificKeywords["Eating Disorder Therapy"], ","); got != "anorexia,bulimia" {
		t.Fatalf("unexpected specific keywords: %q", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "finder.toml")
	if err := os.WriteFile(path, []byte("[places]\napi_kee = \"typo\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "relative base url",
			mutate: func(c *config.Config) { c.Places.BaseURL = "places.local" },
			want:   "places.base_url",
		},
		{
			name:   "oversized page",
			mutate: func(c *config.Config) { c.Places.PageSize = 50 },
			want:   "places.page_size",
		},
		{
			name:   "unknown schema",
			mutate: func(c *config.Config) { c.Places.SchemaVersion = "yelp" },
			want:   "places.schema_version",
		},
		{
			name:   "zero loop target",
			mutate: func(c *config.Config) { c.Scan.LoopTarget = 0 },
			want:   "scan.loop_target",
		},
		{
			name:   "no generalist keywords",
			mutate: func(c *config.Config) { c.Taxonomy.GeneralistKeywords = nil },
			want:   "taxonomy.generalist_keywords",
		},
		{
			name:   "bad level",
			mutate: func(c *config.Config) { c.Logging.Level = "loud" },
			want:   "logging.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRequirePlacesKeyExplainsFix(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequirePlacesKey()
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !strings.Contains(err.Error(), "GOOGLE_MAPS_API_KEY") {
		t.Fatalf("expected env hint, got %v", err)
	}
}

func TestCreateSampleLoadsCleanly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if len(cfg.Taxonomy.CoreCategories) != 5 {
		t.Fatalf("unexpected core categories: %v", cfg.Taxonomy.CoreCategories)
	}
}

func TestLoadFallsBackToProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("therapyfinder.toml", []byte("[scan]\nloop_target = 12\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "therapyfinder.toml" {
		t.Fatalf("expected project file, got %q (exists=%t)", resolved, exists)
	}
	if cfg.Scan.LoopTarget != 12 {
		t.Fatalf("expected loop target from project file, got %d", cfg.Scan.LoopTarget)
	}
}
