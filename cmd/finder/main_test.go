package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"therapyfinder/internal/services"
	"therapyfinder/internal/testsupport"
)

const testSeed = `
categories:
  - name: Family Therapy
    synonyms: [family counseling]
    keywords: [family]
  - name: Couples Therapy
    keywords: [marriage, couple]
  - name: Anxiety Therapy
states:
  - code: TX
    name: Texas
    cities:
      - name: Austin
        neighborhoods: [Hyde Park, Zilker]
      - Dallas
`

type cliTestEnv struct {
	baseDir    string
	dataDir    string
	configPath string
	seedPath   string
	searches   *atomic.Int32
}

func setupCLITestEnv(t *testing.T, apiKey string) *cliTestEnv {
	t.Helper()
	t.Setenv("GOOGLE_MAPS_API_KEY", "")

	searches := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/places:searchText", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		body := testsupport.SearchResponse(t, "",
			testsupport.Place{
				ID:      "ChIJjane0001",
				Name:    "Jane Doe Family Therapy",
				Address: "4500 Duval St, Hyde Park, Austin, TX 78751",
				Rating:  4.9,
				Reviews: 31,
				Types:   []string{"psychologist", "health"},
				Photo:   "places/ChIJjane0001/photos/ref1",
			},
			testsupport.Place{
				ID:      "ChIJmind0002",
				Name:    "Mindful Path Counseling",
				Address: "100 Congress Ave, Austin, TX 78701",
				Rating:  4.5,
				Reviews: 12,
			},
			testsupport.Place{ID: "ChIJcafe0003", Name: "Starbucks", Address: "1 Main St, Austin, TX"},
		)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/places/ChIJjane0001/photos/ref1/media", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG fake"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		dataDir:    filepath.Join(base, "data"),
		configPath: filepath.Join(base, "config.toml"),
		seedPath:   filepath.Join(base, "seed.yaml"),
		searches:   searches,
	}
	writeTestConfig(t, env.configPath, env.dataDir, apiKey, srv.URL)
	if err := os.WriteFile(env.seedPath, []byte(testSeed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return env
}

func writeTestConfig(t *testing.T, path, dataDir, apiKey, baseURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
metrics_file = %q

[places]
api_key = %q
base_url = %q

[scan]
page_delay_ms = 0
scope_delay_ms = 0

[logging]
level = "error"
`, dataDir, filepath.Join(dataDir, "metrics", "finder.prom"), apiKey, baseURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestCLISeedScanAndQuery(t *testing.T) {
	env := setupCLITestEnv(t, "test-key")

	out := mustRun(t, env, "seed", "--file", env.seedPath)
	requireContains(t, out, "Seeded 3 categories, 2 cities, 2 neighborhoods")

	out = mustRun(t, env, "scan", "--state", "TX", "--city", "Austin", "--query", "therapist")
	requireContains(t, out, "created=2")
	requireContains(t, out, "skipped=1")
	if got := env.searches.Load(); got != 1 {
		t.Fatalf("expected one search request, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "metrics", "finder.prom")); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}

	out = mustRun(t, env, "--json", "providers", "--state", "TX", "--city", "austin")
	var providers []providerView
	if err := json.Unmarshal([]byte(out), &providers); err != nil {
		t.Fatalf("decode providers: %v\n%s", err, out)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %+v", providers)
	}
	if providers[0].Slug != "jane-doe-family-therapy" {
		t.Fatalf("expected best rated first, got %+v", providers)
	}

	out = mustRun(t, env, "providers", "--state", "TX", "--city", "Austin", "--category", "family-therapy")
	requireContains(t, out, "Jane Doe Family Therapy")
	if strings.Contains(out, "Mindful Path") {
		t.Fatalf("category filter leaked unrelated provider:\n%s", out)
	}

	out = mustRun(t, env, "categories", "--state", "TX", "--city", "Austin")
	requireContains(t, out, "family-therapy")
	requireContains(t, out, "anxiety-therapy")

	out = mustRun(t, env, "assign-neighborhoods")
	requireContains(t, out, "changed=1")

	out = mustRun(t, env, "neighborhoods", "--state", "TX", "--city", "Austin")
	requireContains(t, out, "hyde-park")

	out = mustRun(t, env, "stats")
	requireContains(t, out, "Providers: 2")
	requireContains(t, out, "With photo: 1")

	out = mustRun(t, env, "classify")
	requireContains(t, out, "processed=2")

	out = mustRun(t, env, "fix-slugs")
	requireContains(t, out, "All slugs are already clean")

	target := filepath.Join(env.baseDir, "photos", "jane.png")
	out = mustRun(t, env, "photo", "jane-doe-family-therapy", "--output", target)
	requireContains(t, out, "Saved")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read photo: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("unexpected photo bytes %q", data)
	}
}

func TestCLIScanIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t, "test-key")
	mustRun(t, env, "seed", "--file", env.seedPath)

	mustRun(t, env, "scan", "--state", "TX", "--city", "Austin", "--query", "therapist")
	out := mustRun(t, env, "scan", "--state", "TX", "--city", "Austin", "--query", "therapist")
	requireContains(t, out, "created=0")
	requireContains(t, out, "updated=2")

	out = mustRun(t, env, "stats")
	requireContains(t, out, "Providers: 2")
}

func TestCLIScanRequiresKey(t *testing.T) {
	env := setupCLITestEnv(t, "")
	mustRun(t, env, "seed", "--file", env.seedPath)

	_, stderr, err := runCLI(t, []string{"scan", "--state", "TX"}, env.configPath)
	if err == nil {
		t.Fatal("expected scan without a key to fail")
	}
	requireContains(t, stderr, "Places API key")
	if got := env.searches.Load(); got != 0 {
		t.Fatalf("expected no source requests, got %d", got)
	}
}

func TestCLIUnknownCity(t *testing.T) {
	env := setupCLITestEnv(t, "test-key")
	mustRun(t, env, "seed", "--file", env.seedPath)

	if _, _, err := runCLI(t, []string{"providers", "--state", "TX", "--city", "Houston"}, env.configPath); err == nil {
		t.Fatal("expected unknown city to fail")
	}
	if _, _, err := runCLI(t, []string{"providers"}, env.configPath); err == nil {
		t.Fatal("expected missing city flags to fail")
	}
}

func TestCLIHealthAndPreflight(t *testing.T) {
	env := setupCLITestEnv(t, "test-key")

	out := mustRun(t, env, "health")
	requireContains(t, out, "Integrity check: yes")
	requireContains(t, out, "Missing tables: none")

	out = mustRun(t, env, "preflight")
	requireContains(t, out, "Data directory")
	requireContains(t, out, "Places API key")
	if strings.Contains(out, "FAIL") {
		t.Fatalf("unexpected preflight failure:\n%s", out)
	}

	out = mustRun(t, env, "preflight", "--probe")
	requireContains(t, out, "API reachable")
}

func TestCLIScanQuotaStopIsDistinct(t *testing.T) {
	env := setupCLITestEnv(t, "test-key")
	mustRun(t, env, "seed", "--file", env.seedPath)

	exhausted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(exhausted.Close)
	writeTestConfig(t, env.configPath, env.dataDir, "test-key", exhausted.URL)

	_, _, err := runCLI(t, []string{"scan", "--state", "TX", "--city", "Austin", "--query", "therapist"}, env.configPath)
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	requireContains(t, err.Error(), "scan stopped early")
}
