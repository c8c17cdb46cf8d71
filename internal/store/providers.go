package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TryInsertProvider inserts a new provider row. Uniqueness failures on slug or
// source identifier are reported through the result rather than as errors so
// callers can branch on them. On success p.ID and the timestamps are set.
func (s *Store) TryInsertProvider(ctx context.Context, p *Provider) (InsertResult, error) {
	if p == nil {
		return InsertFailed, errors.New("insert provider: nil provider")
	}
	if strings.TrimSpace(p.SourceID) == "" || p.Slug == "" || strings.TrimSpace(p.Name) == "" {
		return InsertFailed, errors.New("insert provider: source id, slug, and name are required")
	}
	if p.CityID == 0 {
		return InsertFailed, errors.New("insert provider: city is required")
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO providers (
            source_id, slug, name, address, lat, lng, rating, review_count,
            website, phone, photo_ref, raw_json, city_id, neighborhood_id,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SourceID,
		p.Slug,
		p.Name,
		nullableString(p.Address),
		nullableFloat(p.Lat),
		nullableFloat(p.Lng),
		nullableFloat(p.Rating),
		nullableInt(p.ReviewCount),
		nullableString(p.Website),
		nullableString(p.Phone),
		nullableString(p.PhotoRef),
		nullableString(p.RawJSON),
		p.CityID,
		nullableInt(p.NeighborhoodID),
		timestamp,
		timestamp,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "slug":
				return InsertSlugConflict, nil
			case "source_id":
				return InsertSourceConflict, nil
			}
		}
		return InsertFailed, fmt.Errorf("insert provider %s: %w", p.SourceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return InsertFailed, fmt.Errorf("insert provider %s: last insert id: %w", p.SourceID, err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return InsertOK, nil
}

// UpdateProviderDetails rewrites the mutable source fields of an existing
// provider. Slug, source identifier, city, and neighborhood are left alone.
func (s *Store) UpdateProviderDetails(ctx context.Context, p *Provider) error {
	if p == nil || p.ID == 0 {
		return errors.New("update provider: missing id")
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE providers SET
            name = ?, address = ?, lat = ?, lng = ?, rating = ?, review_count = ?,
            website = ?, phone = ?, photo_ref = ?, raw_json = ?, updated_at = ?
        WHERE id = ?`,
		p.Name,
		nullableString(p.Address),
		nullableFloat(p.Lat),
		nullableFloat(p.Lng),
		nullableFloat(p.Rating),
		nullableInt(p.ReviewCount),
		nullableString(p.Website),
		nullableString(p.Phone),
		nullableString(p.PhotoRef),
		nullableString(p.RawJSON),
		formatTime(now),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update provider %d: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update provider %d: not found", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

// UpdateProviderSlug renames a provider, reporting InsertSlugConflict when the
// new slug is already held by another row.
func (s *Store) UpdateProviderSlug(ctx context.Context, providerID int64, slug string) (InsertResult, error) {
	if slug == "" {
		return InsertFailed, errors.New("update provider slug: empty slug")
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE providers SET slug = ?, updated_at = ? WHERE id = ?`,
		slug, formatTime(time.Now()), providerID,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok && column == "slug" {
			return InsertSlugConflict, nil
		}
		return InsertFailed, fmt.Errorf("update provider %d slug: %w", providerID, err)
	}
	return InsertOK, nil
}

// SetProviderNeighborhood points a provider at a neighborhood. The schema
// rejects neighborhoods from a different city.
func (s *Store) SetProviderNeighborhood(ctx context.Context, providerID, neighborhoodID int64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE providers SET neighborhood_id = ?, updated_at = ? WHERE id = ?`,
		neighborhoodID, formatTime(time.Now()), providerID,
	)
	if err != nil {
		return fmt.Errorf("set provider %d neighborhood: %w", providerID, err)
	}
	return nil
}

// ProviderByID returns the provider or nil when absent.
func (s *Store) ProviderByID(ctx context.Context, id int64) (*Provider, error) {
	return s.providerWhere(ctx, "id = ?", id)
}

// ProviderBySourceID returns the provider or nil when absent.
func (s *Store) ProviderBySourceID(ctx context.Context, sourceID string) (*Provider, error) {
	return s.providerWhere(ctx, "source_id = ?", sourceID)
}

// ProviderBySlug returns the provider or nil when absent.
func (s *Store) ProviderBySlug(ctx context.Context, slug string) (*Provider, error) {
	return s.providerWhere(ctx, "slug = ?", slug)
}

func (s *Store) providerWhere(ctx context.Context, clause string, arg any) (*Provider, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+providerColumns+" FROM providers WHERE "+clause, arg)
	p, err := scanProvider(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}
	return p, nil
}

// SourceIDForSlug reports which source identifier holds slug, if any.
func (s *Store) SourceIDForSlug(ctx context.Context, slug string) (string, bool, error) {
	var sourceID string
	err := s.db.QueryRowContext(ctx, `SELECT source_id FROM providers WHERE slug = ?`, slug).Scan(&sourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup slug %q: %w", slug, err)
	}
	return sourceID, true, nil
}

// ListProviders pages through providers in id order, starting after afterID.
func (s *Store) ListProviders(ctx context.Context, afterID int64, limit int) ([]*Provider, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+providerColumns+" FROM providers WHERE id > ? ORDER BY id LIMIT ?", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return scanProviders(rows)
}

// ProvidersInCity lists every provider of one city in id order.
func (s *Store) ProvidersInCity(ctx context.Context, cityID int64) ([]*Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+providerColumns+" FROM providers WHERE city_id = ? ORDER BY id", cityID)
	if err != nil {
		return nil, fmt.Errorf("list city providers: %w", err)
	}
	return scanProviders(rows)
}
