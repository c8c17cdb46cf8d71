package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"therapyfinder/internal/config"
	"therapyfinder/internal/places"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
)

// HealthChecker reports database health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (store.DatabaseHealth, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParentAccess verifies that a file could be created at path.
func CheckParentAccess(name, path string) Result {
	res := CheckDirectoryAccess(name, filepath.Dir(path))
	if res.Passed {
		res.Detail = fmt.Sprintf("%s (writable)", path)
	}
	return res
}

// CheckPlacesKey verifies that an API key is configured.
func CheckPlacesKey(cfg *config.Config) Result {
	const name = "Places API key"
	if err := cfg.RequirePlacesKey(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckPlaces sends a one-result search to confirm the key is accepted.
func CheckPlaces(ctx context.Context, cfg *config.Config) Result {
	const name = "Places API"

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := places.New(cfg.Places.APIKey, cfg.Places.BaseURL, places.WithTimeout(15*time.Second))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	_, err = client.SearchText(checkCtx, places.SearchRequest{Query: "therapist", PageSize: 1})
	if err != nil {
		return Result{Name: name, Detail: summarizePlacesError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDatabase reports schema and integrity problems.
func CheckDatabase(ctx context.Context, checker HealthChecker) Result {
	const name = "Database"
	health, err := checker.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.Healthy() {
		detail := health.Error
		if detail == "" {
			detail = fmt.Sprintf("schema %d (want %d), missing tables %v, integrity ok=%t",
				health.SchemaVersion, health.ExpectedVersion, health.MissingTables, health.IntegrityCheck)
		}
		return Result{Name: name, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema %d, %d providers)", health.DBPath, health.SchemaVersion, health.TotalProviders)}
}

func summarizePlacesError(err error) string {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		return "quota exhausted or key lacks Places API permission"
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (Places API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Places API unreachable)"
	}
	return err.Error()
}
