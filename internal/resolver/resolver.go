package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"therapyfinder/internal/logging"
	"therapyfinder/internal/normalize"
	"therapyfinder/internal/services"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
)

// maxInsertAttempts bounds the slug retry loop: the generated slug, then one
// disambiguated retry.
const maxInsertAttempts = 2

// Store is the persistence surface the resolver needs.
type Store interface {
	slug.Index
	ProviderBySourceID(ctx context.Context, sourceID string) (*store.Provider, error)
	ProviderByID(ctx context.Context, id int64) (*store.Provider, error)
	TryInsertProvider(ctx context.Context, p *store.Provider) (store.InsertResult, error)
	UpdateProviderDetails(ctx context.Context, p *store.Provider) error
	UpsertProviderCategory(ctx context.Context, providerID, categoryID int64, confidence float64) error
	NeighborhoodByID(ctx context.Context, id int64) (*store.Neighborhood, error)
	SetProviderNeighborhood(ctx context.Context, providerID, neighborhoodID int64) error
}

// Resolver upserts providers and their links.
type Resolver struct {
	store  Store
	slugs  *slug.Generator
	areas  taxonomy.AreaMatcher
	logger *slog.Logger
}

// New builds a resolver. areas decides neighborhood membership.
func New(st Store, areas taxonomy.AreaMatcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		store:  st,
		slugs:  slug.NewGenerator(st),
		areas:  areas,
		logger: logging.NewComponentLogger(logger, "resolver"),
	}
}

// UpsertEntity inserts or updates the provider for rec within city. created
// reports whether a new row was inserted.
func (r *Resolver) UpsertEntity(ctx context.Context, rec normalize.Record, city store.City) (*store.Provider, bool, error) {
	if rec.SourceID == "" || rec.Name == "" {
		return nil, false, services.Wrap(services.ErrMissingRequiredField, "resolver", "upsert", "source id and name are required", nil)
	}
	if city.ID == 0 {
		return nil, false, services.Wrap(services.ErrEntityResolution, "resolver", "upsert", "city is required", nil)
	}

	existing, err := r.store.ProviderBySourceID(ctx, rec.SourceID)
	if err != nil {
		return nil, false, services.Wrap(services.ErrEntityResolution, "resolver", "lookup", rec.SourceID, err)
	}
	if existing != nil {
		if err := r.update(ctx, existing, rec); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	candidate, err := r.slugs.Generate(ctx, rec.Name, city.Slug, rec.SourceID)
	if err != nil {
		return nil, false, services.Wrap(services.ErrEntityResolution, "resolver", "generate slug", rec.SourceID, err)
	}
	provider := providerFromRecord(rec)
	provider.CityID = city.ID

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		provider.Slug = candidate
		result, err := r.store.TryInsertProvider(ctx, provider)
		if err != nil {
			return nil, false, services.Wrap(services.ErrEntityResolution, "resolver", "insert", rec.SourceID, err)
		}
		switch result {
		case store.InsertOK:
			return provider, true, nil
		case store.InsertSourceConflict:
			// Another writer created this source id since the lookup.
			current, err := r.store.ProviderBySourceID(ctx, rec.SourceID)
			if err != nil || current == nil {
				return nil, false, services.Wrap(services.ErrEntityResolution, "resolver", "reload after conflict", rec.SourceID, err)
			}
			if err := r.update(ctx, current, rec); err != nil {
				return nil, false, err
			}
			return current, false, nil
		case store.InsertSlugConflict:
			next := r.slugs.Disambiguate(candidate)
			r.logger.Debug("slug taken, retrying",
				logging.String(logging.FieldSourceID, rec.SourceID),
				logging.String("slug", candidate),
				logging.String("retry_slug", next),
				logging.Int("attempt", attempt),
			)
			candidate = next
		}
	}
	return nil, false, services.Wrap(services.ErrSlugCollision, "resolver", "insert",
		fmt.Sprintf("%s: slug still taken after %d attempts", rec.SourceID, maxInsertAttempts), nil)
}

func (r *Resolver) update(ctx context.Context, existing *store.Provider, rec normalize.Record) error {
	fresh := providerFromRecord(rec)
	existing.Name = fresh.Name
	existing.Address = fresh.Address
	existing.Lat = fresh.Lat
	existing.Lng = fresh.Lng
	existing.Rating = fresh.Rating
	existing.ReviewCount = fresh.ReviewCount
	existing.Website = fresh.Website
	existing.Phone = fresh.Phone
	existing.PhotoRef = fresh.PhotoRef
	existing.RawJSON = fresh.RawJSON
	if err := r.store.UpdateProviderDetails(ctx, existing); err != nil {
		return services.Wrap(services.ErrEntityResolution, "resolver", "update", rec.SourceID, err)
	}
	return nil
}

// LinkCategory creates or rescores the provider's link to a category.
func (r *Resolver) LinkCategory(ctx context.Context, providerID, categoryID int64, score float64) error {
	if score < 0 || score > 1 {
		return services.Wrap(services.ErrEntityResolution, "resolver", "link category",
			fmt.Sprintf("score %v outside [0,1]", score), nil)
	}
	if err := r.store.UpsertProviderCategory(ctx, providerID, categoryID, score); err != nil {
		return services.Wrap(services.ErrEntityResolution, "resolver", "link category",
			fmt.Sprintf("provider %d category %d", providerID, categoryID), err)
	}
	return nil
}

// AssignNeighborhood links a provider to a neighborhood when the address
// mentions it and both share a city. A provider already in a different
// neighborhood is only moved when force is set. assigned reports whether the
// row changed.
func (r *Resolver) AssignNeighborhood(ctx context.Context, providerID, neighborhoodID int64, force bool) (bool, error) {
	provider, err := r.store.ProviderByID(ctx, providerID)
	if err != nil {
		return false, services.Wrap(services.ErrEntityResolution, "resolver", "assign neighborhood", "load provider", err)
	}
	if provider == nil {
		return false, services.Wrap(services.ErrNotFound, "resolver", "assign neighborhood", fmt.Sprintf("provider %d", providerID), nil)
	}
	hood, err := r.store.NeighborhoodByID(ctx, neighborhoodID)
	if err != nil {
		return false, services.Wrap(services.ErrEntityResolution, "resolver", "assign neighborhood", "load neighborhood", err)
	}
	if hood == nil {
		return false, services.Wrap(services.ErrNotFound, "resolver", "assign neighborhood", fmt.Sprintf("neighborhood %d", neighborhoodID), nil)
	}
	return r.assign(ctx, provider, *hood, force)
}

// AssignLoaded is AssignNeighborhood for callers that already hold both rows.
func (r *Resolver) AssignLoaded(ctx context.Context, provider *store.Provider, hood store.Neighborhood, force bool) (bool, error) {
	if provider == nil {
		return false, nil
	}
	return r.assign(ctx, provider, hood, force)
}

func (r *Resolver) assign(ctx context.Context, provider *store.Provider, hood store.Neighborhood, force bool) (bool, error) {
	if hood.CityID != provider.CityID {
		return false, nil
	}
	if !r.areas.InArea(provider.Address, hood.Name) {
		return false, nil
	}
	if current := provider.NeighborhoodID; current != nil {
		if *current == hood.ID || !force {
			return false, nil
		}
	}
	if err := r.store.SetProviderNeighborhood(ctx, provider.ID, hood.ID); err != nil {
		return false, services.Wrap(services.ErrEntityResolution, "resolver", "assign neighborhood",
			fmt.Sprintf("provider %d neighborhood %d", provider.ID, hood.ID), err)
	}
	id := hood.ID
	provider.NeighborhoodID = &id
	return true, nil
}

func providerFromRecord(rec normalize.Record) *store.Provider {
	return &store.Provider{
		SourceID:    rec.SourceID,
		Name:        rec.Name,
		Address:     rec.Address,
		Lat:         rec.Lat,
		Lng:         rec.Lng,
		Rating:      rec.Rating,
		ReviewCount: rec.ReviewCount,
		Website:     rec.Website,
		Phone:       rec.Phone,
		PhotoRef:    rec.PhotoRef,
		RawJSON:     rec.RawJSON,
	}
}
