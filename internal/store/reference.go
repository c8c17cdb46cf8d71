package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertCity inserts a city or refreshes the display names of an existing one.
func (s *Store) UpsertCity(ctx context.Context, city City) (*City, error) {
	state := strings.ToUpper(strings.TrimSpace(city.State))
	if state == "" || city.Slug == "" || strings.TrimSpace(city.Name) == "" {
		return nil, errors.New("upsert city: state, slug, and name are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO cities (state, state_name, slug, name, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(state, slug) DO UPDATE SET
            name = excluded.name,
            state_name = CASE WHEN excluded.state_name = '' THEN cities.state_name ELSE excluded.state_name END`,
		state, strings.TrimSpace(city.StateName), city.Slug, strings.TrimSpace(city.Name), formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert city %s/%s: %w", state, city.Slug, err)
	}
	stored, err := s.CityBySlug(ctx, state, city.Slug)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert city %s/%s: row missing after write", state, city.Slug)
	}
	return stored, nil
}

// CityBySlug returns the city or nil when absent.
func (s *Store) CityBySlug(ctx context.Context, state, slug string) (*City, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, state, state_name, slug, name FROM cities WHERE state = ? AND slug = ?`,
		strings.ToUpper(strings.TrimSpace(state)), slug,
	)
	return scanCityRow(row)
}

// CityByID returns the city or nil when absent.
func (s *Store) CityByID(ctx context.Context, id int64) (*City, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, state, state_name, slug, name FROM cities WHERE id = ?`, id)
	return scanCityRow(row)
}

// Cities lists every city ordered by state and name.
func (s *Store) Cities(ctx context.Context) ([]City, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, state, state_name, slug, name FROM cities ORDER BY state, name`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()
	var out []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.State, &c.StateName, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCityRow(row *sql.Row) (*City, error) {
	var c City
	if err := row.Scan(&c.ID, &c.State, &c.StateName, &c.Slug, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// UpsertNeighborhood inserts a neighborhood or refreshes its display name.
func (s *Store) UpsertNeighborhood(ctx context.Context, n Neighborhood) (*Neighborhood, error) {
	if n.CityID == 0 || n.Slug == "" || strings.TrimSpace(n.Name) == "" {
		return nil, errors.New("upsert neighborhood: city, slug, and name are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO neighborhoods (city_id, slug, name, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(city_id, slug) DO UPDATE SET name = excluded.name`,
		n.CityID, n.Slug, strings.TrimSpace(n.Name), formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert neighborhood %s: %w", n.Slug, err)
	}
	stored, err := s.NeighborhoodBySlug(ctx, n.CityID, n.Slug)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert neighborhood %s: row missing after write", n.Slug)
	}
	return stored, nil
}

// NeighborhoodBySlug returns the neighborhood or nil when absent.
func (s *Store) NeighborhoodBySlug(ctx context.Context, cityID int64, slug string) (*Neighborhood, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city_id, slug, name FROM neighborhoods WHERE city_id = ? AND slug = ?`, cityID, slug)
	return scanNeighborhoodRow(row)
}

// NeighborhoodByID returns the neighborhood or nil when absent.
func (s *Store) NeighborhoodByID(ctx context.Context, id int64) (*Neighborhood, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, city_id, slug, name FROM neighborhoods WHERE id = ?`, id)
	return scanNeighborhoodRow(row)
}

// NeighborhoodsByCity lists one city's neighborhoods ordered by name.
func (s *Store) NeighborhoodsByCity(ctx context.Context, cityID int64) ([]Neighborhood, error) {
	return s.queryNeighborhoods(ctx,
		`SELECT id, city_id, slug, name FROM neighborhoods WHERE city_id = ? ORDER BY name`, cityID)
}

// Neighborhoods lists every neighborhood grouped by city.
func (s *Store) Neighborhoods(ctx context.Context) ([]Neighborhood, error) {
	return s.queryNeighborhoods(ctx, `SELECT id, city_id, slug, name FROM neighborhoods ORDER BY city_id, name`)
}

func (s *Store) queryNeighborhoods(ctx context.Context, query string, args ...any) ([]Neighborhood, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list neighborhoods: %w", err)
	}
	defer rows.Close()
	var out []Neighborhood
	for rows.Next() {
		var n Neighborhood
		if err := rows.Scan(&n.ID, &n.CityID, &n.Slug, &n.Name); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNeighborhoodRow(row *sql.Row) (*Neighborhood, error) {
	var n Neighborhood
	if err := row.Scan(&n.ID, &n.CityID, &n.Slug, &n.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// UpsertCategory inserts a category or merges new synonyms and keywords into
// an existing one. Nothing already stored is removed.
func (s *Store) UpsertCategory(ctx context.Context, category Category) (*Category, error) {
	if category.Slug == "" || strings.TrimSpace(category.Name) == "" {
		return nil, errors.New("upsert category: slug and name are required")
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var synonymsRaw, keywordsRaw string
		err = tx.QueryRowContext(ctx,
			`SELECT synonyms_json, keywords_json FROM categories WHERE slug = ?`, category.Slug,
		).Scan(&synonymsRaw, &keywordsRaw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO categories (slug, name, synonyms_json, keywords_json, created_at) VALUES (?, ?, ?, ?, ?)`,
				category.Slug, strings.TrimSpace(category.Name),
				encodeList(mergeList(nil, category.Synonyms)),
				encodeList(mergeList(nil, category.Keywords)),
				formatTime(time.Now()),
			)
		case err == nil:
			_, err = tx.ExecContext(ctx,
				`UPDATE categories SET name = ?, synonyms_json = ?, keywords_json = ? WHERE slug = ?`,
				strings.TrimSpace(category.Name),
				encodeList(mergeList(decodeList(synonymsRaw), category.Synonyms)),
				encodeList(mergeList(decodeList(keywordsRaw), category.Keywords)),
				category.Slug,
			)
		}
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("upsert category %s: %w", category.Slug, err)
	}
	stored, err := s.CategoryBySlug(ctx, category.Slug)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert category %s: row missing after write", category.Slug)
	}
	return stored, nil
}

// CategoryBySlug returns the category or nil when absent.
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name, synonyms_json, keywords_json FROM categories WHERE slug = ?`, slug)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Categories lists every category ordered by slug.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name, synonyms_json, keywords_json FROM categories ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCategory(scanner rowScanner) (*Category, error) {
	var (
		c           Category
		synonymsRaw string
		keywordsRaw string
	)
	if err := scanner.Scan(&c.ID, &c.Slug, &c.Name, &synonymsRaw, &keywordsRaw); err != nil {
		return nil, err
	}
	c.Synonyms = decodeList(synonymsRaw)
	c.Keywords = decodeList(keywordsRaw)
	return &c, nil
}
