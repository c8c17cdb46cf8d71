package store

import "time"

// City is a directory city, unique per (state, slug).
type City struct {
	ID        int64
	State     string
	StateName string
	Slug      string
	Name      string
}

// Neighborhood is a named area inside one city, unique per (city, slug).
type Neighborhood struct {
	ID     int64
	CityID int64
	Slug   string
	Name   string
}

// Category is a therapy type. Synonyms and keywords only ever grow.
type Category struct {
	ID       int64
	Slug     string
	Name     string
	Synonyms []string
	Keywords []string
}

// Provider is a deduplicated practitioner or practice. Empty strings and nil
// pointers mean the source did not supply the field.
type Provider struct {
	ID             int64
	SourceID       string
	Slug           string
	Name           string
	Address        string
	Lat            *float64
	Lng            *float64
	Rating         *float64
	ReviewCount    *int64
	Website        string
	Phone          string
	PhotoRef       string
	RawJSON        string
	CityID         int64
	NeighborhoodID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderCategory is one scored link between a provider and a category.
type ProviderCategory struct {
	ProviderID   int64
	CategoryID   int64
	CategorySlug string
	CategoryName string
	Confidence   float64
}

// InsertResult is the outcome of TryInsertProvider.
type InsertResult int

const (
	// InsertFailed accompanies a non-nil error.
	InsertFailed InsertResult = iota
	InsertOK
	// InsertSlugConflict means another provider already holds the slug.
	InsertSlugConflict
	// InsertSourceConflict means a provider with the same source identifier exists.
	InsertSourceConflict
)

func (r InsertResult) String() string {
	switch r {
	case InsertOK:
		return "ok"
	case InsertSlugConflict:
		return "slug_conflict"
	case InsertSourceConflict:
		return "source_conflict"
	default:
		return "failed"
	}
}

// ProviderQuery filters FindProviders. Zero values disable a filter.
type ProviderQuery struct {
	CityID         int64
	CategoryID     int64
	NeighborhoodID int64
	MinConfidence  float64
	Limit          int
}

// GroupCount is a provider count for one city, category, or neighborhood.
type GroupCount struct {
	ID    int64
	Slug  string
	Name  string
	Count int
}

// NeighborhoodCount pairs a neighborhood with its city and provider count.
type NeighborhoodCount struct {
	Neighborhood Neighborhood
	City         City
	Providers    int
}

// Summary aggregates directory totals.
type Summary struct {
	Cities           int
	Neighborhoods    int
	Categories       int
	Providers        int
	Links            int
	WithPhotos       int
	WithNeighborhood int
}

// DatabaseHealth captures diagnostic information about the directory database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	ExpectedVersion  int
	MissingTables    []string
	IntegrityCheck   bool
	TotalProviders   int
	Error            string
}
