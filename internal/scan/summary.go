package scan

import (
	"fmt"
	"time"
)

// Summary counts what a run did.
type Summary struct {
	Scopes        int
	ScopesAborted int
	Pages         int
	Fetched       int
	Created       int
	Updated       int
	Duplicates    int
	Skipped       int
	Failed        int
	Incomplete    int
	Links         int
	Assigned      int
	QuotaExceeded bool
	Duration      time.Duration
}

// Add folds another summary into s.
func (s *Summary) Add(other Summary) {
	s.Scopes += other.Scopes
	s.ScopesAborted += other.ScopesAborted
	s.Pages += other.Pages
	s.Fetched += other.Fetched
	s.Created += other.Created
	s.Updated += other.Updated
	s.Duplicates += other.Duplicates
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Incomplete += other.Incomplete
	s.Links += other.Links
	s.Assigned += other.Assigned
	s.QuotaExceeded = s.QuotaExceeded || other.QuotaExceeded
	s.Duration += other.Duration
}

// String renders the summary for log lines and CLI output.
func (s Summary) String() string {
	return fmt.Sprintf("scopes=%d aborted=%d pages=%d fetched=%d created=%d updated=%d duplicates=%d skipped=%d failed=%d incomplete=%d links=%d assigned=%d quota_exceeded=%t",
		s.Scopes, s.ScopesAborted, s.Pages, s.Fetched, s.Created, s.Updated, s.Duplicates,
		s.Skipped, s.Failed, s.Incomplete, s.Links, s.Assigned, s.QuotaExceeded)
}
