package store

import (
	"context"
	"fmt"
	"strings"
)

// FindProviders serves the directory read paths: providers of a city,
// optionally narrowed to a category or neighborhood, best rated first.
func (s *Store) FindProviders(ctx context.Context, q ProviderQuery) ([]*Provider, error) {
	if q.CityID == 0 {
		return nil, fmt.Errorf("find providers: city is required")
	}
	columns := make([]string, 0, 17)
	for _, col := range strings.Split(providerColumns, ", ") {
		columns = append(columns, "p."+col)
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM providers p")
	if q.CategoryID != 0 {
		sb.WriteString(" JOIN provider_categories pc ON pc.provider_id = p.id AND pc.category_id = ? AND pc.confidence >= ?")
		args = append(args, q.CategoryID, q.MinConfidence)
	}
	sb.WriteString(" WHERE p.city_id = ?")
	args = append(args, q.CityID)
	if q.NeighborhoodID != 0 {
		sb.WriteString(" AND p.neighborhood_id = ?")
		args = append(args, q.NeighborhoodID)
	}
	sb.WriteString(" ORDER BY p.rating IS NULL, p.rating DESC, p.review_count IS NULL, p.review_count DESC, p.name")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find providers: %w", err)
	}
	return scanProviders(rows)
}

// CategoryCountsInCity lists categories that have at least one linked
// provider in the city, with provider counts, for navigation.
func (s *Store) CategoryCountsInCity(ctx context.Context, cityID int64) ([]GroupCount, error) {
	return s.groupCounts(ctx,
		`SELECT c.id, c.slug, c.name, COUNT(DISTINCT p.id)
         FROM categories c
         JOIN provider_categories pc ON pc.category_id = c.id
         JOIN providers p ON p.id = pc.provider_id
         WHERE p.city_id = ?
         GROUP BY c.id
         ORDER BY COUNT(DISTINCT p.id) DESC, c.slug`, cityID)
}

// NeighborhoodCountsInCity lists every neighborhood of a city with its
// provider count, including empty ones.
func (s *Store) NeighborhoodCountsInCity(ctx context.Context, cityID int64) ([]GroupCount, error) {
	return s.groupCounts(ctx,
		`SELECT n.id, n.slug, n.name, COUNT(p.id)
         FROM neighborhoods n
         LEFT JOIN providers p ON p.neighborhood_id = n.id
         WHERE n.city_id = ?
         GROUP BY n.id
         ORDER BY n.name`, cityID)
}

// CityCounts lists every city with its provider count.
func (s *Store) CityCounts(ctx context.Context) ([]GroupCount, error) {
	return s.groupCounts(ctx,
		`SELECT c.id, c.slug, c.name || ', ' || c.state, COUNT(p.id)
         FROM cities c
         LEFT JOIN providers p ON p.city_id = c.id
         GROUP BY c.id
         ORDER BY COUNT(p.id) DESC, c.state, c.slug`)
}

func (s *Store) groupCounts(ctx context.Context, query string, args ...any) ([]GroupCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count providers: %w", err)
	}
	defer rows.Close()
	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.ID, &g.Slug, &g.Name, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// NeighborhoodsBelow lists neighborhoods holding fewer than target providers,
// emptiest first. Loop-mode scans use it to pick their next scopes.
func (s *Store) NeighborhoodsBelow(ctx context.Context, target int) ([]NeighborhoodCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.city_id, n.slug, n.name,
                c.id, c.state, c.state_name, c.slug, c.name,
                COUNT(p.id) AS providers
         FROM neighborhoods n
         JOIN cities c ON c.id = n.city_id
         LEFT JOIN providers p ON p.neighborhood_id = n.id
         GROUP BY n.id
         HAVING COUNT(p.id) < ?
         ORDER BY providers, c.state, c.slug, n.slug`, target)
	if err != nil {
		return nil, fmt.Errorf("neighborhoods below target: %w", err)
	}
	defer rows.Close()
	var out []NeighborhoodCount
	for rows.Next() {
		var nc NeighborhoodCount
		if err := rows.Scan(
			&nc.Neighborhood.ID, &nc.Neighborhood.CityID, &nc.Neighborhood.Slug, &nc.Neighborhood.Name,
			&nc.City.ID, &nc.City.State, &nc.City.StateName, &nc.City.Slug, &nc.City.Name,
			&nc.Providers,
		); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

// Summary aggregates directory-wide totals.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT
            (SELECT COUNT(1) FROM cities),
            (SELECT COUNT(1) FROM neighborhoods),
            (SELECT COUNT(1) FROM categories),
            (SELECT COUNT(1) FROM providers),
            (SELECT COUNT(1) FROM provider_categories),
            (SELECT COUNT(1) FROM providers WHERE photo_ref IS NOT NULL),
            (SELECT COUNT(1) FROM providers WHERE neighborhood_id IS NOT NULL)`,
	).Scan(&sum.Cities, &sum.Neighborhoods, &sum.Categories, &sum.Providers, &sum.Links, &sum.WithPhotos, &sum.WithNeighborhood)
	if err != nil {
		return Summary{}, fmt.Errorf("directory summary: %w", err)
	}
	return sum, nil
}
