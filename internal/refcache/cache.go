package refcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
)

// DefaultTTL bounds how long a loop-mode run trusts cached reference data.
const DefaultTTL = 10 * time.Minute

const categoriesKey = "categories"

// Source is the store surface the cache reads through.
type Source interface {
	Categories(ctx context.Context) ([]store.Category, error)
	CityByID(ctx context.Context, id int64) (*store.City, error)
	NeighborhoodByID(ctx context.Context, id int64) (*store.Neighborhood, error)
}

// Cache is a read-through cache over Source.
type Cache struct {
	source Source
	items  *cache.Cache
}

// New builds a cache whose entries expire after ttl.
func New(source Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{source: source, items: cache.New(ttl, ttl*2)}
}

// Categories returns every category in matcher form.
func (c *Cache) Categories(ctx context.Context) ([]taxonomy.Category, error) {
	if cached, ok := c.items.Get(categoriesKey); ok {
		return cached.([]taxonomy.Category), nil
	}
	rows, err := c.source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categories := make([]taxonomy.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, ToTaxonomy(row))
	}
	c.items.Set(categoriesKey, categories, cache.DefaultExpiration)
	return categories, nil
}

// City returns the city or nil when absent. Misses are not cached.
func (c *Cache) City(ctx context.Context, id int64) (*store.City, error) {
	key := "city:" + strconv.FormatInt(id, 10)
	if cached, ok := c.items.Get(key); ok {
		city := cached.(store.City)
		return &city, nil
	}
	city, err := c.source.CityByID(ctx, id)
	if err != nil || city == nil {
		return city, err
	}
	c.items.Set(key, *city, cache.DefaultExpiration)
	return city, nil
}

// Neighborhood returns the neighborhood or nil when absent.
func (c *Cache) Neighborhood(ctx context.Context, id int64) (*store.Neighborhood, error) {
	key := "neighborhood:" + strconv.FormatInt(id, 10)
	if cached, ok := c.items.Get(key); ok {
		hood := cached.(store.Neighborhood)
		return &hood, nil
	}
	hood, err := c.source.NeighborhoodByID(ctx, id)
	if err != nil || hood == nil {
		return hood, err
	}
	c.items.Set(key, *hood, cache.DefaultExpiration)
	return hood, nil
}

// Flush drops every cached entry, e.g. after a seed.
func (c *Cache) Flush() {
	c.items.Flush()
}

// ToTaxonomy converts a stored category into the matcher's view.
func ToTaxonomy(row store.Category) taxonomy.Category {
	return taxonomy.Category{
		ID:       row.ID,
		Slug:     row.Slug,
		Name:     strings.TrimSpace(row.Name),
		Synonyms: append([]string(nil), row.Synonyms...),
		Keywords: append([]string(nil), row.Keywords...),
	}
}
