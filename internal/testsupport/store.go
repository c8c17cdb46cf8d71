package testsupport

import (
	"context"
	"testing"

	"therapyfinder/internal/config"
	"therapyfinder/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCity upserts a city for tests.
func MustCity(t testing.TB, st *store.Store, state, slug, name string) *store.City {
	t.Helper()

	city, err := st.UpsertCity(context.Background(), store.City{State: state, Slug: slug, Name: name})
	if err != nil {
		t.Fatalf("UpsertCity: %v", err)
	}
	return city
}

// MustNeighborhood upserts a neighborhood for tests.
func MustNeighborhood(t testing.TB, st *store.Store, cityID int64, slug, name string) *store.Neighborhood {
	t.Helper()

	n, err := st.UpsertNeighborhood(context.Background(), store.Neighborhood{CityID: cityID, Slug: slug, Name: name})
	if err != nil {
		t.Fatalf("UpsertNeighborhood: %v", err)
	}
	return n
}

// MustCategory upserts a category for tests.
func MustCategory(t testing.TB, st *store.Store, slug, name string, keywords ...string) *store.Category {
	t.Helper()

	c, err := st.UpsertCategory(context.Background(), store.Category{Slug: slug, Name: name, Keywords: keywords})
	if err != nil {
		t.Fatalf("UpsertCategory: %v", err)
	}
	return c
}

// MustInsertProvider inserts a provider and fails the test unless it succeeds.
func MustInsertProvider(t testing.TB, st *store.Store, p *store.Provider) *store.Provider {
	t.Helper()

	result, err := st.TryInsertProvider(context.Background(), p)
	if err != nil {
		t.Fatalf("TryInsertProvider: %v", err)
	}
	if result != store.InsertOK {
		t.Fatalf("TryInsertProvider: unexpected result %s", result)
	}
	return p
}
