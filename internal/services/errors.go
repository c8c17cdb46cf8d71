package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded marks quota or permission failures from the places
	// source. Continuing would only burn further quota, so the run stops.
	ErrQuotaExceeded = errors.New("source quota exceeded")
	// ErrSourceAPI marks any other failure talking to the places source.
	ErrSourceAPI = errors.New("source api error")
	// ErrMissingRequiredField marks a source record lacking an identifier or name.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrNormalization marks a source record that could not be decoded.
	ErrNormalization = errors.New("normalization error")
	// ErrSlugCollision marks a slug that stayed taken after disambiguation.
	ErrSlugCollision = errors.New("slug collision")
	// ErrEntityResolution marks a store failure while upserting or linking.
	ErrEntityResolution = errors.New("entity resolution error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
)

// Level describes how far a failure propagates through a batch run.
type Level int

const (
	// LevelRecord failures are logged and counted; the run moves to the next record.
	LevelRecord Level = iota
	// LevelScope failures abort the current scope; the run moves to the next scope.
	LevelScope
	// LevelRun failures stop the whole run.
	LevelRun
)

func (l Level) String() string {
	switch l {
	case LevelScope:
		return "scope"
	case LevelRun:
		return "run"
	default:
		return "record"
	}
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrEntityResolution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureLevel maps a pipeline error to its propagation level.
func FailureLevel(err error) Level {
	switch {
	case err == nil:
		return LevelRecord
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrConfiguration):
		return LevelRun
	case errors.Is(err, context.Canceled):
		return LevelRun
	case errors.Is(err, ErrSourceAPI):
		return LevelScope
	case errors.Is(err, context.DeadlineExceeded):
		return LevelRun
	default:
		return LevelRecord
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
