package places

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"therapyfinder/internal/services"
)

const maxErrorBody = 2048

// APIError is a non-200 response from the Places API.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
	Latency    time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("places %s returned %d (latency=%v)", e.Operation, e.StatusCode, e.Latency)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap classifies the response for services.FailureLevel.
func (e *APIError) Unwrap() error {
	if e.QuotaExceeded() {
		return services.ErrQuotaExceeded
	}
	return services.ErrSourceAPI
}

// QuotaExceeded reports whether the response signals an exhausted or revoked
// quota.
func (e *APIError) QuotaExceeded() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

func newAPIError(resp *http.Response, operation string, latency time.Duration) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
		Latency:    latency,
	}
}
