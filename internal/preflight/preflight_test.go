package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"therapyfinder/internal/store"
	"therapyfinder/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPlaces_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") != "good-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"places": []}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPlacesKey("good-key"), testsupport.WithPlacesBaseURL(srv.URL))
	result := CheckPlaces(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckPlaces_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPlacesKey("bad"), testsupport.WithPlacesBaseURL(srv.URL))
	result := CheckPlaces(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if !strings.Contains(result.Detail, "quota") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckPlacesKey_Missing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPlacesKey(""))
	if result := CheckPlacesKey(cfg); result.Passed {
		t.Fatal("expected failure without key")
	}
}

type fakeHealth struct {
	health store.DatabaseHealth
}

func (f fakeHealth) CheckHealth(context.Context) (store.DatabaseHealth, error) {
	return f.health, nil
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPlacesKey(""))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)

	results := RunAll(context.Background(), cfg, Options{RequireKey: true, Health: st})
	if len(results) != 3 {
		t.Fatalf("expected data dir, key, and database checks, got %+v", results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Places API key" {
		t.Fatalf("expected only the key check to fail, got %+v", failed)
	}

	broken := RunAll(context.Background(), cfg, Options{Health: fakeHealth{health: store.DatabaseHealth{Error: "disk I/O error"}}})
	if got := Failed(broken); len(got) != 1 || got[0].Detail != "disk I/O error" {
		t.Fatalf("expected database failure, got %+v", got)
	}
}
