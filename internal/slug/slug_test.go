package slug_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"therapyfinder/internal/slug"
)

type mapIndex map[string]string

func (m mapIndex) SourceIDForSlug(_ context.Context, s string) (string, bool, error) {
	holder, ok := m[s]
	return holder, ok, nil
}

type failingIndex struct{}

func (failingIndex) SourceIDForSlug(context.Context, string) (string, bool, error) {
	return "", false, errors.New("db down")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mindful Path Counseling", "mindful-path-counseling"},
		{"  Leading  and trailing  ", "leading-and-trailing"},
		{"Smith & Jones Therapy", "smith-and-jones-therapy"},
		{"Dr. O'Brien's Practice", "dr-obriens-practice"},
		{"Café Résumé Wellness", "cafe-resume-wellness"},
		{"Straße Praxis", "strasse-praxis"},
		{"Søren Ærø Counseling", "soren-aero-counseling"},
		{"Łódź Psychotherapy", "lodz-psychotherapy"},
		{"A/B_C--D", "a-b-c-d"},
		{"Therapy, LLC.", "therapy-llc"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := slug.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateTiers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		index mapIndex
		want  string
	}{
		{
			name:  "bare name free",
			index: mapIndex{},
			want:  "mindful-path-counseling",
		},
		{
			name:  "bare name held by same source",
			index: mapIndex{"mindful-path-counseling": "ChIJxyz9AbC"},
			want:  "mindful-path-counseling",
		},
		{
			name:  "bare name taken falls back to city",
			index: mapIndex{"mindful-path-counseling": "other"},
			want:  "mindful-path-counseling-austin",
		},
		{
			name: "both taken falls back to source suffix",
			index: mapIndex{
				"mindful-path-counseling":        "other",
				"mindful-path-counseling-austin": "another",
			},
			want: "mindful-path-counseling-austin-9abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := slug.NewGenerator(tt.index)
			got, err := gen.Generate(ctx, "Mindful Path Counseling", "Austin", "ChIJxyz9AbC")
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateIsStableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	index := mapIndex{"calm": "first"}
	gen := slug.NewGenerator(index)

	got, err := gen.Generate(ctx, "Calm", "Austin", "second")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	index[got] = "second"

	again, err := gen.Generate(ctx, "Calm", "Austin", "second")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if again != got {
		t.Fatalf("expected stable slug %q, got %q", got, again)
	}
}

func TestGenerateEmptyNameUsesFallback(t *testing.T) {
	gen := slug.NewGenerator(mapIndex{})
	got, err := gen.Generate(context.Background(), "***", "Austin", "id-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != slug.Fallback {
		t.Fatalf("expected fallback slug, got %q", got)
	}
}

func TestGenerateRequiresSourceID(t *testing.T) {
	gen := slug.NewGenerator(mapIndex{})
	if _, err := gen.Generate(context.Background(), "Calm", "Austin", " "); err == nil {
		t.Fatal("expected error without source id")
	}
}

func TestGeneratePropagatesIndexErrors(t *testing.T) {
	gen := slug.NewGenerator(failingIndex{})
	if _, err := gen.Generate(context.Background(), "Calm", "Austin", "id"); err == nil {
		t.Fatal("expected index error")
	}
}

func TestCandidatesSuffixIsSanitized(t *testing.T) {
	got := slug.Candidates("Calm", "San Antonio", "places/ChIJ_A-B")
	if got[2] != "calm-san-antonio-ijab" {
		t.Fatalf("unexpected suffix candidate %q", got[2])
	}
	if strings.ContainsAny(got[2], "_/") {
		t.Fatalf("suffix leaked punctuation: %q", got[2])
	}
}

func TestDisambiguateAppendsRandomSuffix(t *testing.T) {
	gen := slug.NewGenerator(mapIndex{})
	a := gen.Disambiguate("calm-austin-9abc")
	b := gen.Disambiguate("calm-austin-9abc")
	if !strings.HasPrefix(a, "calm-austin-9abc-") || len(a) != len("calm-austin-9abc-")+6 {
		t.Fatalf("unexpected disambiguated slug %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct suffixes, got %q twice", a)
	}
}
