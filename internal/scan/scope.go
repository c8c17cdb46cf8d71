package scan

import (
	"context"
	"fmt"
	"strings"

	"therapyfinder/internal/services"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
)

// Scope is one pagination sequence: a place and a search phrase.
type Scope struct {
	City         store.City
	Neighborhood *store.Neighborhood
	Query        string
}

// TextQuery renders the phrase sent to the source.
func (s Scope) TextQuery() string {
	if s.Neighborhood != nil {
		return fmt.Sprintf("%s in %s, %s, %s", s.Query, s.Neighborhood.Name, s.City.Name, s.City.State)
	}
	return fmt.Sprintf("%s in %s, %s", s.Query, s.City.Name, s.City.State)
}

// Label identifies the scope in logs.
func (s Scope) Label() string {
	place := strings.ToLower(s.City.Slug + "-" + s.City.State)
	if s.Neighborhood != nil {
		place += "/" + s.Neighborhood.Slug
	}
	return place + ": " + s.Query
}

// ScopeStore is the reference data needed to plan scopes.
type ScopeStore interface {
	Cities(ctx context.Context) ([]store.City, error)
	CityBySlug(ctx context.Context, state, slug string) (*store.City, error)
	NeighborhoodsByCity(ctx context.Context, cityID int64) ([]store.Neighborhood, error)
	NeighborhoodsBelow(ctx context.Context, target int) ([]store.NeighborhoodCount, error)
}

// Plan selects the scopes of a run.
type Plan struct {
	// State limits the run to one state code. Empty means every state.
	State string
	// City limits the run to one city, by name or slug. Requires State.
	City string
	// Neighborhoods scans each neighborhood of the selected cities instead
	// of the cities themselves.
	Neighborhoods bool
	// Queries are the search phrases for city scopes.
	Queries []string
	// NeighborhoodQuery is the search phrase for neighborhood scopes.
	NeighborhoodQuery string
}

// BuildScopes expands a plan against the seeded cities.
func BuildScopes(ctx context.Context, st ScopeStore, plan Plan) ([]Scope, error) {
	cities, err := selectCities(ctx, st, plan)
	if err != nil {
		return nil, err
	}

	var scopes []Scope
	for _, city := range cities {
		if !plan.Neighborhoods {
			for _, q := range plan.Queries {
				if q = strings.TrimSpace(q); q != "" {
					scopes = append(scopes, Scope{City: city, Query: q})
				}
			}
			continue
		}
		hoods, err := st.NeighborhoodsByCity(ctx, city.ID)
		if err != nil {
			return nil, fmt.Errorf("list neighborhoods for %s: %w", city.Name, err)
		}
		for i := range hoods {
			hood := hoods[i]
			scopes = append(scopes, Scope{City: city, Neighborhood: &hood, Query: plan.NeighborhoodQuery})
		}
	}
	return scopes, nil
}

// BelowTarget returns neighborhood scopes whose provider count is under
// target, restricted to the plan's state and city when set.
func BelowTarget(ctx context.Context, st ScopeStore, plan Plan, target int) ([]Scope, error) {
	rows, err := st.NeighborhoodsBelow(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("neighborhoods below target: %w", err)
	}
	state := strings.ToUpper(strings.TrimSpace(plan.State))
	citySlug := slug.Slugify(plan.City)

	scopes := make([]Scope, 0, len(rows))
	for _, row := range rows {
		if state != "" && row.City.State != state {
			continue
		}
		if citySlug != "" && row.City.Slug != citySlug {
			continue
		}
		hood := row.Neighborhood
		scopes = append(scopes, Scope{City: row.City, Neighborhood: &hood, Query: plan.NeighborhoodQuery})
	}
	return scopes, nil
}

func selectCities(ctx context.Context, st ScopeStore, plan Plan) ([]store.City, error) {
	state := strings.ToUpper(strings.TrimSpace(plan.State))
	if strings.TrimSpace(plan.City) != "" {
		if state == "" {
			return nil, services.Wrap(services.ErrConfiguration, "scan", "plan", "a city needs its state", nil)
		}
		city, err := st.CityBySlug(ctx, state, slug.Slugify(plan.City))
		if err != nil {
			return nil, fmt.Errorf("lookup city: %w", err)
		}
		if city == nil {
			return nil, services.Wrap(services.ErrNotFound, "scan", "plan",
				fmt.Sprintf("city %q in %s is not seeded", plan.City, state), nil)
		}
		return []store.City{*city}, nil
	}

	all, err := st.Cities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	if state == "" {
		return all, nil
	}
	var out []store.City
	for _, city := range all {
		if city.State == state {
			out = append(out, city)
		}
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "scan", "plan", fmt.Sprintf("no seeded cities in %s", state), nil)
	}
	return out, nil
}
