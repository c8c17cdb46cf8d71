package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	sourceSuffixLen   = 4
	disambiguationLen = 6
)

// Index answers which source identifier, if any, currently holds a slug.
type Index interface {
	SourceIDForSlug(ctx context.Context, slug string) (string, bool, error)
}

// Generator chooses slugs against an Index.
type Generator struct {
	index Index
}

// NewGenerator builds a generator backed by index.
func NewGenerator(index Index) *Generator {
	return &Generator{index: index}
}

// Candidates returns the three slugs Generate considers, in order.
func Candidates(name, scope, sourceID string) []string {
	base := Slugify(name)
	if base == "" {
		base = Fallback
	}
	scoped := base
	if scopeSlug := Slugify(scope); scopeSlug != "" {
		scoped = base + "-" + scopeSlug
	}
	last := scoped
	if sfx := suffix(sourceID, sourceSuffixLen); sfx != "" {
		last = scoped + "-" + sfx
	}
	return []string{base, scoped, last}
}

// Generate returns the first candidate that is free or already held by
// sourceID. The final candidate is returned unconditionally; a residual
// collision there surfaces at insert time.
func (g *Generator) Generate(ctx context.Context, name, scope, sourceID string) (string, error) {
	if strings.TrimSpace(sourceID) == "" {
		return "", errors.New("generate slug: source id is required")
	}
	candidates := Candidates(name, scope, sourceID)
	for _, candidate := range candidates[:len(candidates)-1] {
		ok, err := g.available(ctx, candidate, sourceID)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return candidates[len(candidates)-1], nil
}

// Disambiguate appends a random suffix to a slug that lost an insert race.
func (g *Generator) Disambiguate(slug string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return slug + "-" + id[:disambiguationLen]
}

func (g *Generator) available(ctx context.Context, candidate, sourceID string) (bool, error) {
	holder, taken, err := g.index.SourceIDForSlug(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("check slug %q: %w", candidate, err)
	}
	return !taken || holder == sourceID, nil
}
