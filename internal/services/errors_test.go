package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"therapyfinder/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSourceAPI, "places", "search", "status 500", base)
	if !errors.Is(err, services.ErrSourceAPI) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"places", "search", "status 500"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrSlugCollision, "", "", "", nil)
	if !errors.Is(err, services.ErrSlugCollision) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureLevelMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Level
	}{
		{"quota", services.Wrap(services.ErrQuotaExceeded, "places", "search", "429", nil), services.LevelRun},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), services.LevelRun},
		{"source api", services.Wrap(services.ErrSourceAPI, "places", "search", "500", nil), services.LevelScope},
		{"source timeout", services.Wrap(services.ErrSourceAPI, "places", "search", "timeout", context.DeadlineExceeded), services.LevelScope},
		{"missing field", fmt.Errorf("normalize: %w", services.ErrMissingRequiredField), services.LevelRecord},
		{"resolution", services.Wrap(services.ErrEntityResolution, "resolver", "upsert", "", errors.New("disk")), services.LevelRecord},
		{"unknown", errors.New("odd"), services.LevelRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureLevel(tt.err); got != tt.want {
				t.Fatalf("FailureLevel(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
