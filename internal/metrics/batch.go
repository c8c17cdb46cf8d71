package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"

	// OutcomeIncomplete is a stored record whose link or assignment failed.
	OutcomeIncomplete = "incomplete"
)

// Batch holds the collectors for one process.
type Batch struct {
	registry *prometheus.Registry

	pages         *prometheus.CounterVec
	records       *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	links         prometheus.Counter
	assignments   prometheus.Counter
	scopesAborted prometheus.Counter
	quotaExceeded prometheus.Gauge
	lastRun       prometheus.Gauge
	runDuration   prometheus.Gauge
}

// NewBatch creates and registers the batch collectors on a private registry.
func NewBatch() (*Batch, error) {
	m := &Batch{registry: prometheus.NewRegistry()}
	m.pages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_pages_total",
		Help: "Source result pages fetched",
	}, []string{"command"})
	m.records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_records_total",
		Help: "Source records processed by outcome",
	}, []string{"command", "outcome"})
	m.sourceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_source_errors_total",
		Help: "Source failures by propagation level",
	}, []string{"level"})
	m.links = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finder_category_links_total",
		Help: "Provider category links written",
	})
	m.assignments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finder_neighborhood_assignments_total",
		Help: "Providers assigned to a neighborhood",
	})
	m.scopesAborted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finder_scopes_aborted_total",
		Help: "Scopes abandoned after a source error",
	})
	m.quotaExceeded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finder_quota_exceeded",
		Help: "1 when the last run stopped on a source quota error",
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finder_last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})
	m.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finder_last_run_duration_seconds",
		Help: "Wall time of the last run",
	})

	for _, c := range []prometheus.Collector{
		m.pages, m.records, m.sourceErrors, m.links, m.assignments,
		m.scopesAborted, m.quotaExceeded, m.lastRun, m.runDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry for tests and exporters.
func (m *Batch) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Page counts one fetched page.
func (m *Batch) Page(command string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(command).Inc()
}

// Record counts one record outcome.
func (m *Batch) Record(command, outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(command, outcome).Inc()
}

// SourceError counts a source failure at the given level.
func (m *Batch) SourceError(level string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(level).Inc()
}

// Links counts written category links.
func (m *Batch) Links(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.links.Add(float64(n))
}

// Assigned counts one neighborhood assignment.
func (m *Batch) Assigned() {
	if m == nil {
		return
	}
	m.assignments.Inc()
}

// ScopeAborted counts an abandoned scope.
func (m *Batch) ScopeAborted() {
	if m == nil {
		return
	}
	m.scopesAborted.Inc()
}

// Finish stamps the end of a run.
func (m *Batch) Finish(started time.Time, quotaExceeded bool) {
	if m == nil {
		return
	}
	now := time.Now()
	m.lastRun.Set(float64(now.Unix()))
	m.runDuration.Set(now.Sub(started).Seconds())
	if quotaExceeded {
		m.quotaExceeded.Set(1)
	} else {
		m.quotaExceeded.Set(0)
	}
}

// WriteTextfile atomically writes the current values to path. An empty path
// is a no-op.
func (m *Batch) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
