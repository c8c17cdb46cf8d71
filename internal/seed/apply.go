package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"therapyfinder/internal/logging"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
)

// Store is the persistence surface of seeding.
type Store interface {
	UpsertCategory(ctx context.Context, category store.Category) (*store.Category, error)
	UpsertCity(ctx context.Context, city store.City) (*store.City, error)
	UpsertNeighborhood(ctx context.Context, n store.Neighborhood) (*store.Neighborhood, error)
}

// Result counts upserted rows.
type Result struct {
	Categories    int
	Cities        int
	Neighborhoods int
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Apply upserts data. extraKeywords, keyed by category name or slug, is
// merged into each category's stored keywords.
func Apply(ctx context.Context, st Store, data *Data, extraKeywords map[string][]string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "seed")
	extras := make(map[string][]string, len(extraKeywords))
	for k, v := range extraKeywords {
		key := strings.ToLower(strings.TrimSpace(k))
		extras[key] = append(extras[key], v...)
	}

	var res Result
	for _, c := range data.Categories {
		name := displayName(c.Name)
		categorySlug := c.Slug
		if categorySlug == "" {
			categorySlug = slug.Slugify(name)
		}
		keywords := append([]string(nil), c.Keywords...)
		keywords = append(keywords, extras[strings.ToLower(name)]...)
		if categorySlug != strings.ToLower(name) {
			keywords = append(keywords, extras[categorySlug]...)
		}
		if _, err := st.UpsertCategory(ctx, store.Category{
			Slug:     categorySlug,
			Name:     name,
			Synonyms: c.Synonyms,
			Keywords: lowerAll(keywords),
		}); err != nil {
			return res, fmt.Errorf("seed category %s: %w", name, err)
		}
		res.Categories++
	}

	for _, s := range data.States {
		code := strings.ToUpper(strings.TrimSpace(s.Code))
		for _, c := range s.Cities {
			name := displayName(c.Name)
			citySlug := c.Slug
			if citySlug == "" {
				citySlug = slug.Slugify(name)
			}
			city, err := st.UpsertCity(ctx, store.City{State: code, StateName: displayName(s.Name), Slug: citySlug, Name: name})
			if err != nil {
				return res, fmt.Errorf("seed city %s, %s: %w", name, code, err)
			}
			res.Cities++
			for _, hood := range c.Neighborhoods {
				hoodName := displayName(hood)
				if hoodName == "" {
					continue
				}
				if _, err := st.UpsertNeighborhood(ctx, store.Neighborhood{
					CityID: city.ID,
					Slug:   slug.Slugify(hoodName),
					Name:   hoodName,
				}); err != nil {
					return res, fmt.Errorf("seed neighborhood %s in %s: %w", hoodName, name, err)
				}
				res.Neighborhoods++
			}
		}
	}

	logger.Info("seed applied",
		logging.Int("categories", res.Categories),
		logging.Int("cities", res.Cities),
		logging.Int("neighborhoods", res.Neighborhoods),
	)
	return res, nil
}

// displayName title-cases names typed in all lowercase and leaves any other
// casing ("SoHo", "EMDR Therapy") alone.
func displayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name != "" && name == strings.ToLower(name) {
		return titleCaser.String(name)
	}
	return name
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
