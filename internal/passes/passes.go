package passes

import (
	"context"
	"fmt"
	"log/slog"

	"therapyfinder/internal/logging"
	"therapyfinder/internal/normalize"
	"therapyfinder/internal/refcache"
	"therapyfinder/internal/resolver"
	"therapyfinder/internal/services"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
)

const batchSize = 500

// Store is the persistence surface of the passes.
type Store interface {
	resolver.Store
	refcache.Source
	ListProviders(ctx context.Context, afterID int64, limit int) ([]*store.Provider, error)
	ProvidersInCity(ctx context.Context, cityID int64) ([]*store.Provider, error)
	Neighborhoods(ctx context.Context) ([]store.Neighborhood, error)
	UpdateProviderSlug(ctx context.Context, providerID int64, slug string) (store.InsertResult, error)
}

// Matcher classifies providers and places them in neighborhoods.
type Matcher interface {
	taxonomy.Classifier
	taxonomy.AreaMatcher
}

// Result counts what a pass did.
type Result struct {
	Processed int
	Changed   int
	Skipped   int
	Failed    int
}

func (r Result) String() string {
	return fmt.Sprintf("processed=%d changed=%d skipped=%d failed=%d", r.Processed, r.Changed, r.Skipped, r.Failed)
}

// Runner executes passes against one store.
type Runner struct {
	store    Store
	matcher  Matcher
	resolver *resolver.Resolver
	refs     *refcache.Cache
	slugs    *slug.Generator
	logger   *slog.Logger
}

// New builds a Runner.
func New(st Store, matcher Matcher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    st,
		matcher:  matcher,
		resolver: resolver.New(st, matcher, logger),
		refs:     refcache.New(st, refcache.DefaultTTL),
		slugs:    slug.NewGenerator(st),
		logger:   logging.NewComponentLogger(logger, "passes"),
	}
}

// Classify rescores every provider against every category. Changed counts
// links written.
func (r *Runner) Classify(ctx context.Context) (Result, error) {
	var res Result
	categories, err := r.refs.Categories(ctx)
	if err != nil {
		return res, err
	}
	if len(categories) == 0 {
		return res, services.Wrap(services.ErrConfiguration, "passes", "classify", "no categories seeded", nil)
	}

	err = r.eachProvider(ctx, func(p *store.Provider) error {
		res.Processed++
		text := taxonomy.EntityText(p.Name, hints(p)...)
		for _, match := range r.matcher.Classify(text, categories) {
			if err := r.resolver.LinkCategory(ctx, p.ID, match.Category.ID, match.Score); err != nil {
				if services.FailureLevel(err) == services.LevelRun {
					return err
				}
				res.Failed++
				logging.WarnWithContext(r.logger, "link failed", "link_failed",
					logging.Int64("provider_id", p.ID),
					logging.String("category", match.Category.Slug),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "rerun classify; links are idempotent"),
				)
				continue
			}
			res.Changed++
		}
		return nil
	})
	r.logger.Info("classify pass complete", logging.String("result", res.String()))
	return res, err
}

// AssignNeighborhoods offers every provider of each neighborhood's city to
// that neighborhood. Without force, providers keep an existing assignment.
func (r *Runner) AssignNeighborhoods(ctx context.Context, force bool) (Result, error) {
	var res Result
	hoods, err := r.store.Neighborhoods(ctx)
	if err != nil {
		return res, fmt.Errorf("list neighborhoods: %w", err)
	}

	byCity := make(map[int64][]*store.Provider)
	for _, hood := range hoods {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		providers, ok := byCity[hood.CityID]
		if !ok {
			providers, err = r.store.ProvidersInCity(ctx, hood.CityID)
			if err != nil {
				return res, fmt.Errorf("list providers in city %d: %w", hood.CityID, err)
			}
			byCity[hood.CityID] = providers
		}
		assigned := 0
		for _, p := range providers {
			res.Processed++
			ok, err := r.resolver.AssignLoaded(ctx, p, hood, force)
			if err != nil {
				if services.FailureLevel(err) == services.LevelRun {
					return res, err
				}
				res.Failed++
				logging.WarnWithContext(r.logger, "neighborhood assignment failed", "assignment_failed",
					logging.Int64("provider_id", p.ID),
					logging.String("neighborhood", hood.Slug),
					logging.Error(err),
				)
				continue
			}
			if ok {
				assigned++
				res.Changed++
			}
		}
		r.logger.Debug("neighborhood processed",
			logging.String("neighborhood", hood.Slug),
			logging.Int("assigned", assigned),
		)
	}
	r.logger.Info("neighborhood pass complete", logging.String("result", res.String()), logging.Bool("force", force))
	return res, nil
}

// SlugChange is one proposed or applied rename.
type SlugChange struct {
	ProviderID int64
	From       string
	To         string
	Applied    bool
}

// RepairSlugs recomputes every provider's slug and renames those whose
// preferred slug differs and is free. With apply unset nothing is written.
func (r *Runner) RepairSlugs(ctx context.Context, apply bool) (Result, []SlugChange, error) {
	var res Result
	var changes []SlugChange
	err := r.eachProvider(ctx, func(p *store.Provider) error {
		res.Processed++
		city, err := r.refs.City(ctx, p.CityID)
		if err != nil {
			return err
		}
		scope := ""
		if city != nil {
			scope = city.Slug
		}
		want, err := r.slugs.Generate(ctx, p.Name, scope, p.SourceID)
		if err != nil {
			return err
		}
		if want == p.Slug {
			return nil
		}
		change := SlugChange{ProviderID: p.ID, From: p.Slug, To: want}
		if !apply {
			changes = append(changes, change)
			return nil
		}
		result, err := r.store.UpdateProviderSlug(ctx, p.ID, want)
		if err != nil {
			res.Failed++
			logging.WarnWithContext(r.logger, "slug rename failed", "slug_rename_failed",
				logging.Int64("provider_id", p.ID),
				logging.Error(err),
			)
			return nil
		}
		if result == store.InsertSlugConflict {
			res.Skipped++
			r.logger.Info("slug taken; keeping current slug",
				logging.String("slug", p.Slug),
				logging.String("wanted", want),
			)
			return nil
		}
		res.Changed++
		change.Applied = true
		changes = append(changes, change)
		return nil
	})
	r.logger.Info("slug repair complete", logging.String("result", res.String()), logging.Bool("apply", apply))
	return res, changes, err
}

func (r *Runner) eachProvider(ctx context.Context, fn func(*store.Provider) error) error {
	var after int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := r.store.ListProviders(ctx, after, batchSize)
		if err != nil {
			return fmt.Errorf("list providers: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		for _, p := range batch {
			if err := fn(p); err != nil {
				return err
			}
			after = p.ID
		}
	}
}

// hints recovers category hints from the stored source payload.
func hints(p *store.Provider) []string {
	if p.RawJSON == "" {
		return nil
	}
	rec, err := normalize.Normalize([]byte(p.RawJSON), normalize.SchemaAuto)
	if err != nil {
		return nil
	}
	return rec.Hints()
}
