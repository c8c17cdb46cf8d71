package scan

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"therapyfinder/internal/config"
	"therapyfinder/internal/logging"
	"therapyfinder/internal/metrics"
	"therapyfinder/internal/normalize"
	"therapyfinder/internal/places"
	"therapyfinder/internal/refcache"
	"therapyfinder/internal/resolver"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
)

const metricsCommand = "scan"

// Options tunes pacing and filtering.
type Options struct {
	PageDelay          time.Duration
	ScopeDelay         time.Duration
	MaxResultsPerScope int
	PageSize           int
	ExcludeNames       []string
	SchemaVersion      string
}

// OptionsFromConfig reads scan options from the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageDelay:          cfg.PageDelay(),
		ScopeDelay:         cfg.ScopeDelay(),
		MaxResultsPerScope: cfg.Scan.MaxResultsPerScope,
		PageSize:           cfg.Places.PageSize,
		ExcludeNames:       cfg.Scan.ExcludeNames,
		SchemaVersion:      cfg.Places.SchemaVersion,
	}
}

// Matcher classifies providers and places them in neighborhoods.
type Matcher interface {
	taxonomy.Classifier
	taxonomy.AreaMatcher
}

// Store is everything a run reads or writes.
type Store interface {
	resolver.Store
	refcache.Source
}

// Orchestrator runs scopes against the source.
type Orchestrator struct {
	source   places.Searcher
	resolver *resolver.Resolver
	refs     *refcache.Cache
	matcher  Matcher
	opts     Options
	limiter  *rate.Limiter
	metrics  *metrics.Batch
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	excludes []string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records run counters.
func WithMetrics(m *metrics.Batch) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithSleep replaces the pause used between scopes and loop iterations.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithRefCache shares a reference cache with other components.
func WithRefCache(refs *refcache.Cache) Option {
	return func(o *Orchestrator) {
		if refs != nil {
			o.refs = refs
		}
	}
}

// New builds an orchestrator.
func New(source places.Searcher, st Store, matcher Matcher, opts Options, logger *slog.Logger, options ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	limit := rate.Inf
	if opts.PageDelay > 0 {
		limit = rate.Every(opts.PageDelay)
	}
	o := &Orchestrator{
		source:   source,
		resolver: resolver.New(st, matcher, logger),
		refs:     refcache.New(st, refcache.DefaultTTL),
		matcher:  matcher,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logging.NewComponentLogger(logger, "scan"),
		sleep:    sleepContext,
	}
	for _, name := range opts.ExcludeNames {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			o.excludes = append(o.excludes, name)
		}
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run processes scopes in order and returns what it did. The returned error
// is non-nil only when the run stopped early; it wraps
// services.ErrQuotaExceeded when the source refused further requests.
func (o *Orchestrator) Run(ctx context.Context, scopes []Scope) (Summary, error) {
	started := time.Now()
	var sum Summary
	logger := logging.WithContext(ctx, o.logger)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	categories, err := o.refs.Categories(ctx)
	if err != nil {
		o.finish(started, &sum)
		return sum, err
	}
	if len(categories) == 0 {
		logging.WarnWithContext(logger, "no categories seeded; providers will not be classified", "categories_missing",
			logging.String(logging.FieldErrorHint, "run finder seed before scanning"),
			logging.String(logging.FieldImpact, "category links are skipped"),
		)
	}

	seen := make(map[string]*store.Provider)
	for i, scope := range scopes {
		if err := ctx.Err(); err != nil {
			o.finish(started, &sum)
			return sum, err
		}
		if i > 0 && o.opts.ScopeDelay > 0 {
			if err := o.sleep(ctx, o.opts.ScopeDelay); err != nil {
				o.finish(started, &sum)
				return sum, err
			}
		}

		sum.Scopes++
		scopeCtx := services.WithScope(ctx, scope.Label())
		err := o.runScope(scopeCtx, scope, categories, seen, &sum)
		if err == nil {
			continue
		}
		level := services.FailureLevel(err)
		o.metrics.SourceError(level.String())
		scopeLogger := logging.WithContext(scopeCtx, o.logger)
		if level == services.LevelRun {
			if errors.Is(err, services.ErrQuotaExceeded) {
				sum.QuotaExceeded = true
				logging.ErrorWithContext(scopeLogger, "source quota exceeded; stopping run", "quota_exceeded",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "wait for the quota to reset, then rerun the scan"),
					logging.String(logging.FieldImpact, "remaining scopes were not scanned"),
				)
			}
			o.finish(started, &sum)
			return sum, err
		}
		sum.ScopesAborted++
		o.metrics.ScopeAborted()
		logging.WarnWithContext(scopeLogger, "scope aborted after source error", "scope_aborted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check places api status; the scope is retried on the next run"),
			logging.String(logging.FieldImpact, "scope results incomplete"),
		)
	}
	o.finish(started, &sum)
	logger.Info("scan complete",
		logging.Int("scopes", sum.Scopes),
		logging.Int("pages", sum.Pages),
		logging.Int("fetched", sum.Fetched),
		logging.Int("created", sum.Created),
		logging.Int("updated", sum.Updated),
		logging.Int("skipped", sum.Skipped),
		logging.Int("failed", sum.Failed),
		logging.Int("links", sum.Links),
		logging.Int("assigned", sum.Assigned),
		logging.Duration("elapsed", time.Since(started)),
	)
	return sum, nil
}

func (o *Orchestrator) finish(started time.Time, sum *Summary) {
	sum.Duration = time.Since(started)
	o.metrics.Finish(started, sum.QuotaExceeded)
}

// runScope paginates one scope. Only source and run-level errors are returned.
func (o *Orchestrator) runScope(ctx context.Context, scope Scope, categories []taxonomy.Category, seen map[string]*store.Provider, sum *Summary) error {
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("scanning scope", logging.String("query", scope.TextQuery()))

	token := ""
	fetched := 0
	for {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := o.source.SearchText(ctx, places.SearchRequest{
			Query:     scope.TextQuery(),
			PageToken: token,
			PageSize:  o.opts.PageSize,
		})
		if err != nil {
			return err
		}
		sum.Pages++
		o.metrics.Page(metricsCommand)
		if len(page.Places) == 0 {
			logger.Debug("empty page; scope exhausted")
			return nil
		}

		for _, raw := range page.Places {
			if o.capReached(fetched) {
				break
			}
			fetched++
			sum.Fetched++
			if err := o.processRecord(ctx, raw, scope, categories, seen, sum); err != nil {
				return err
			}
		}

		if o.capReached(fetched) {
			logger.Debug("scope result cap reached", logging.Int("fetched", fetched))
			return nil
		}
		if page.NextPageToken == "" {
			return nil
		}
		token = page.NextPageToken
	}
}

func (o *Orchestrator) capReached(fetched int) bool {
	return o.opts.MaxResultsPerScope > 0 && fetched >= o.opts.MaxResultsPerScope
}

// processRecord resolves one payload. Record-level failures are counted and
// swallowed; anything that should stop the run is returned.
func (o *Orchestrator) processRecord(ctx context.Context, raw []byte, scope Scope, categories []taxonomy.Category, seen map[string]*store.Provider, sum *Summary) error {
	logger := logging.WithContext(ctx, o.logger)

	rec, err := normalize.Normalize(raw, o.opts.SchemaVersion)
	if err != nil {
		if services.FailureLevel(err) == services.LevelRun {
			return err
		}
		sum.Skipped++
		o.metrics.Record(metricsCommand, metrics.OutcomeSkipped)
		logging.WarnWithContext(logger, "skipping unusable source record", "record_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the source payload"),
		)
		return nil
	}
	ctx = services.WithSourceID(ctx, rec.SourceID)
	logger = logging.WithContext(ctx, o.logger)

	if known, dup := seen[rec.SourceID]; dup {
		sum.Duplicates++
		o.metrics.Record(metricsCommand, metrics.OutcomeDuplicate)
		// A place found first in another neighborhood scope may belong to this one.
		if known != nil && scope.Neighborhood != nil {
			return o.assignNeighborhood(ctx, logger, known, *scope.Neighborhood, sum)
		}
		return nil
	}

	if o.excluded(rec.Name) {
		seen[rec.SourceID] = nil
		sum.Skipped++
		o.metrics.Record(metricsCommand, metrics.OutcomeSkipped)
		logger.Debug("excluded by name", logging.String("name", rec.Name))
		return nil
	}

	provider, created, err := o.resolver.UpsertEntity(ctx, rec, scope.City)
	if err != nil {
		return o.recordFailure(logger, err, sum)
	}
	seen[rec.SourceID] = provider
	if created {
		sum.Created++
		o.metrics.Record(metricsCommand, metrics.OutcomeCreated)
	} else {
		sum.Updated++
		o.metrics.Record(metricsCommand, metrics.OutcomeUpdated)
	}

	text := taxonomy.EntityText(rec.Name, rec.Hints()...)
	for _, match := range o.matcher.Classify(text, categories) {
		if err := o.resolver.LinkCategory(ctx, provider.ID, match.Category.ID, match.Score); err != nil {
			if services.FailureLevel(err) == services.LevelRun {
				return err
			}
			o.incomplete(logger, "category link failed", err, sum,
				logging.String("category", match.Category.Slug))
			continue
		}
		sum.Links++
		o.metrics.Links(1)
	}

	if scope.Neighborhood != nil {
		if err := o.assignNeighborhood(ctx, logger, provider, *scope.Neighborhood, sum); err != nil {
			return err
		}
	}

	logger.Debug("provider resolved",
		logging.String("slug", provider.Slug),
		logging.Bool("created", created),
	)
	return nil
}

// assignNeighborhood offers provider to hood. Only run-level errors are
// returned; anything else marks the record incomplete.
func (o *Orchestrator) assignNeighborhood(ctx context.Context, logger *slog.Logger, provider *store.Provider, hood store.Neighborhood, sum *Summary) error {
	assigned, err := o.resolver.AssignLoaded(ctx, provider, hood, false)
	if err != nil {
		if services.FailureLevel(err) == services.LevelRun {
			return err
		}
		o.incomplete(logger, "neighborhood assignment failed", err, sum,
			logging.String("neighborhood", hood.Slug))
		return nil
	}
	if assigned {
		sum.Assigned++
		o.metrics.Assigned()
	}
	return nil
}

// incomplete counts a follow-up write that failed after the provider row was
// stored. The record itself still counts as created or updated.
func (o *Orchestrator) incomplete(logger *slog.Logger, msg string, err error, sum *Summary, attrs ...logging.Attr) {
	sum.Incomplete++
	o.metrics.Record(metricsCommand, metrics.OutcomeIncomplete)
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run classify or assign-neighborhoods to repair"),
		logging.String(logging.FieldImpact, "provider stored without every link"),
	)
	logging.WarnWithContext(logger, msg, "record_incomplete", attrs...)
}

func (o *Orchestrator) recordFailure(logger *slog.Logger, err error, sum *Summary) error {
	if services.FailureLevel(err) == services.LevelRun {
		return err
	}
	sum.Failed++
	o.metrics.Record(metricsCommand, metrics.OutcomeFailed)
	logging.WarnWithContext(logger, "record failed; continuing", "record_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun the scan; writes are idempotent"),
	)
	return nil
}

func (o *Orchestrator) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, ex := range o.excludes {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
