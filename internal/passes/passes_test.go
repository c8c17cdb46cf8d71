package passes_test

import (
	"context"
	"errors"
	"testing"

	"therapyfinder/internal/passes"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
	"therapyfinder/internal/testsupport"
)

func newRunner(t *testing.T) (*passes.Runner, *store.Store, *store.City) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	city := testsupport.MustCity(t, st, "TX", "austin", "Austin")
	matcher := taxonomy.NewKeywordMatcher(taxonomy.Tables{
		GeneralistKeywords: []string{"psychologist", "lcsw"},
		CoreCategories:     []string{"anxiety-therapy"},
	})
	return passes.New(st, matcher, nil), st, city
}

func TestClassifyUsesNameAndStoredHints(t *testing.T) {
	r, st, city := newRunner(t)
	ctx := context.Background()
	family := testsupport.MustCategory(t, st, "family-therapy", "Family Therapy", "family", "child")
	testsupport.MustCategory(t, st, "couples-therapy", "Couples Therapy", "marriage", "couple")
	anxiety := testsupport.MustCategory(t, st, "anxiety-therapy", "Anxiety Therapy")

	jane := testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "jane", Slug: "jane-doe", Name: "Jane Doe, LCSW — family and child counseling", CityID: city.ID,
	})
	raw := testsupport.Place{ID: "dr", Name: "Dr. Lee", Types: []string{"psychologist"}}.JSON(t)
	lee := testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "dr", Slug: "dr-lee", Name: "Dr. Lee", CityID: city.ID, RawJSON: string(raw),
	})

	for range 2 {
		res, err := r.Classify(ctx)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if res.Processed != 2 || res.Changed != 3 {
			t.Fatalf("unexpected result %s", res)
		}
	}

	assertLinks(t, st, jane.ID, map[int64]float64{family.ID: taxonomy.DirectMatchScore, anxiety.ID: taxonomy.InferredScore})
	assertLinks(t, st, lee.ID, map[int64]float64{anxiety.ID: taxonomy.InferredScore})
}

func assertLinks(t *testing.T, st *store.Store, providerID int64, want map[int64]float64) {
	t.Helper()
	links, err := st.ProviderCategories(context.Background(), providerID)
	if err != nil {
		t.Fatalf("ProviderCategories: %v", err)
	}
	if len(links) != len(want) {
		t.Fatalf("provider %d: expected %d links, got %+v", providerID, len(want), links)
	}
	for _, l := range links {
		if score, ok := want[l.CategoryID]; !ok || score != l.Confidence {
			t.Fatalf("provider %d: unexpected link %+v", providerID, l)
		}
	}
}

func TestClassifyRequiresCategories(t *testing.T) {
	r, _, _ := newRunner(t)
	if _, err := r.Classify(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAssignNeighborhoods(t *testing.T) {
	r, st, austin := newRunner(t)
	ctx := context.Background()
	dallas := testsupport.MustCity(t, st, "TX", "dallas", "Dallas")
	hyde := testsupport.MustNeighborhood(t, st, austin.ID, "hyde-park", "Hyde Park")
	park := testsupport.MustNeighborhood(t, st, austin.ID, "park", "Park")
	testsupport.MustNeighborhood(t, st, dallas.ID, "hyde-park", "Hyde Park")

	p := testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "p", Slug: "p", Name: "P", CityID: austin.ID, Address: "1 Ave, Hyde Park, Austin",
	})
	testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "q", Slug: "q", Name: "Q", CityID: austin.ID, Address: "2 Congress Ave, Austin",
	})

	res, err := r.AssignNeighborhoods(ctx, false)
	if err != nil {
		t.Fatalf("AssignNeighborhoods: %v", err)
	}
	// "Park" also matches P's address, but P is already in Hyde Park.
	if res.Changed != 1 {
		t.Fatalf("unexpected result %s", res)
	}
	stored, _ := st.ProviderByID(ctx, p.ID)
	if stored.NeighborhoodID == nil || *stored.NeighborhoodID != hyde.ID {
		t.Fatalf("expected hyde park, got %v", stored.NeighborhoodID)
	}

	res, err = r.AssignNeighborhoods(ctx, true)
	if err != nil {
		t.Fatalf("AssignNeighborhoods(force): %v", err)
	}
	stored, _ = st.ProviderByID(ctx, p.ID)
	if stored.NeighborhoodID == nil || *stored.NeighborhoodID != park.ID {
		t.Fatalf("forced pass should move to the last matching neighborhood, got %v (%s)", stored.NeighborhoodID, res)
	}
}

func TestRepairSlugs(t *testing.T) {
	r, st, city := newRunner(t)
	ctx := context.Background()
	messy := testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "m1", Slug: "mindful-path-counseling-3f9a1c", Name: "Mindful Path Counseling", CityID: city.ID,
	})
	clean := testsupport.MustInsertProvider(t, st, &store.Provider{
		SourceID: "c1", Slug: "calm-minds", Name: "Calm Minds", CityID: city.ID,
	})

	res, changes, err := r.RepairSlugs(ctx, false)
	if err != nil {
		t.Fatalf("RepairSlugs(dry run): %v", err)
	}
	if res.Processed != 2 || len(changes) != 1 || changes[0].To != "mindful-path-counseling" || changes[0].Applied {
		t.Fatalf("unexpected dry run %s %+v", res, changes)
	}
	if got, _ := st.ProviderByID(ctx, messy.ID); got.Slug != "mindful-path-counseling-3f9a1c" {
		t.Fatal("dry run must not write")
	}

	res, changes, err = r.RepairSlugs(ctx, true)
	if err != nil {
		t.Fatalf("RepairSlugs(apply): %v", err)
	}
	if res.Changed != 1 || len(changes) != 1 || !changes[0].Applied {
		t.Fatalf("unexpected apply %s %+v", res, changes)
	}
	if got, _ := st.ProviderByID(ctx, messy.ID); got.Slug != "mindful-path-counseling" {
		t.Fatalf("expected rename, got %q", got.Slug)
	}
	if got, _ := st.ProviderByID(ctx, clean.ID); got.Slug != "calm-minds" {
		t.Fatalf("clean slug must be untouched, got %q", got.Slug)
	}
}
