package normalize

import (
	"errors"
	"fmt"

	"therapyfinder/internal/services"
)

// Schema versions accepted by Normalize.
const (
	SchemaAuto   = "auto"
	SchemaV1     = "places.v1"
	SchemaLegacy = "places.legacy"
)

// Record is a provider as described by one source payload. Empty strings and
// nil pointers mean the payload did not carry the field.
type Record struct {
	SourceID    string
	Name        string
	Address     string
	Lat         *float64
	Lng         *float64
	Rating      *float64
	ReviewCount *int64
	Website     string
	Phone       string
	PhotoRef    string
	Types       []string
	PrimaryType string
	RawJSON     string
}

// Hints returns the category hints carried by the payload, primary type first.
func (r Record) Hints() []string {
	hints := make([]string, 0, len(r.Types)+1)
	seen := make(map[string]struct{}, len(r.Types)+1)
	for _, h := range append([]string{r.PrimaryType}, r.Types...) {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hints = append(hints, h)
	}
	return hints
}

// Error reports why a payload could not be normalized.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("normalize: %s", e.Reason)
	}
	return fmt.Sprintf("normalize %s: %s", e.Field, e.Reason)
}

// Unwrap exposes both the normalization marker and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{services.ErrNormalization}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsMissingField reports whether err rejected a record for a missing
// identifier or name.
func IsMissingField(err error) bool {
	return errors.Is(err, services.ErrMissingRequiredField)
}
