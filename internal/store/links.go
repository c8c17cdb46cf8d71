package store

import (
	"context"
	"fmt"
	"time"
)

// UpsertProviderCategory creates or rescores the link between a provider and
// a category. Repeating the call with the same score is a no-op in effect.
func (s *Store) UpsertProviderCategory(ctx context.Context, providerID, categoryID int64, confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("link provider %d to category %d: confidence %v outside [0,1]", providerID, categoryID, confidence)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO provider_categories (provider_id, category_id, confidence, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(provider_id, category_id) DO UPDATE SET
            confidence = excluded.confidence,
            updated_at = excluded.updated_at`,
		providerID, categoryID, confidence, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("link provider %d to category %d: %w", providerID, categoryID, err)
	}
	return nil
}

// ProviderCategories lists a provider's links ordered by category slug.
func (s *Store) ProviderCategories(ctx context.Context, providerID int64) ([]ProviderCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pc.provider_id, pc.category_id, c.slug, c.name, pc.confidence
         FROM provider_categories pc
         JOIN categories c ON c.id = pc.category_id
         WHERE pc.provider_id = ?
         ORDER BY c.slug`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list provider categories: %w", err)
	}
	defer rows.Close()
	var out []ProviderCategory
	for rows.Next() {
		var link ProviderCategory
		if err := rows.Scan(&link.ProviderID, &link.CategoryID, &link.CategorySlug, &link.CategoryName, &link.Confidence); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}
