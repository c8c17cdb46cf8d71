package taxonomy

import (
	"sort"
	"strings"
)

const (
	// DirectMatchScore is assigned when the provider text contains one of the
	// category's own keywords.
	DirectMatchScore = 0.9
	// InferredScore is assigned to core categories of generalist providers.
	InferredScore = 0.6
)

// Category is the matcher's view of a therapy category.
type Category struct {
	ID       int64
	Slug     string
	Name     string
	Synonyms []string
	Keywords []string
}

// Match is one scored category for a provider.
type Match struct {
	Category Category
	Score    float64
}

// Tables holds the configured keyword tables.
type Tables struct {
	// GeneralistKeywords flag a provider as a general practitioner.
	GeneralistKeywords []string
	// CoreCategories lists category names or slugs inferred for generalists.
	CoreCategories []string
	// SpecificKeywords adds keywords per category name or slug.
	SpecificKeywords map[string][]string
}

// Classifier scores provider text against categories.
type Classifier interface {
	Classify(text string, categories []Category) []Match
}

// AreaMatcher decides whether an address lies inside a named area.
type AreaMatcher interface {
	InArea(address, area string) bool
}

// KeywordMatcher implements Classifier and AreaMatcher with substring rules.
type KeywordMatcher struct {
	generalist []string
	core       map[string]struct{}
	specific   map[string][]string
}

// NewKeywordMatcher normalizes tables for matching.
func NewKeywordMatcher(tables Tables) *KeywordMatcher {
	m := &KeywordMatcher{
		generalist: lowerAll(tables.GeneralistKeywords),
		core:       make(map[string]struct{}, len(tables.CoreCategories)),
		specific:   make(map[string][]string, len(tables.SpecificKeywords)),
	}
	for _, name := range tables.CoreCategories {
		if key := normalizeKey(name); key != "" {
			m.core[key] = struct{}{}
		}
	}
	for name, keywords := range tables.SpecificKeywords {
		if key := normalizeKey(name); key != "" {
			m.specific[key] = append(m.specific[key], lowerAll(keywords)...)
		}
	}
	return m
}

// Classify returns one match per category with evidence, sorted by slug.
// A category's keywords are its name, synonyms, stored keywords, and any
// configured extras; any of them appearing in text scores DirectMatchScore.
// Otherwise a generalist provider scores InferredScore on core categories.
func (m *KeywordMatcher) Classify(text string, categories []Category) []Match {
	text = strings.ToLower(text)
	generalist := containsAny(text, m.generalist)

	sorted := append([]Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	var matches []Match
	for _, category := range sorted {
		switch {
		case containsAny(text, m.keywords(category)):
			matches = append(matches, Match{Category: category, Score: DirectMatchScore})
		case generalist && m.isCore(category):
			matches = append(matches, Match{Category: category, Score: InferredScore})
		}
	}
	return matches
}

// IsGeneralist reports whether text carries a generalist keyword.
func (m *KeywordMatcher) IsGeneralist(text string) bool {
	return containsAny(strings.ToLower(text), m.generalist)
}

// InArea reports whether address mentions area, ignoring case. This is the
// loose rule the directory has always used; a street sharing a neighborhood's
// name will match.
func (m *KeywordMatcher) InArea(address, area string) bool {
	area = strings.ToLower(strings.TrimSpace(area))
	if area == "" {
		return false
	}
	return strings.Contains(strings.ToLower(address), area)
}

func (m *KeywordMatcher) keywords(c Category) []string {
	out := make([]string, 0, 1+len(c.Synonyms)+len(c.Keywords))
	out = append(out, strings.ToLower(c.Name))
	out = append(out, lowerAll(c.Synonyms)...)
	out = append(out, lowerAll(c.Keywords)...)
	out = append(out, m.specific[normalizeKey(c.Name)]...)
	if c.Slug != "" && normalizeKey(c.Slug) != normalizeKey(c.Name) {
		out = append(out, m.specific[normalizeKey(c.Slug)]...)
	}
	return out
}

func (m *KeywordMatcher) isCore(c Category) bool {
	if _, ok := m.core[normalizeKey(c.Name)]; ok {
		return true
	}
	_, ok := m.core[normalizeKey(c.Slug)]
	return ok
}

// EntityText builds the lowercased text a provider is classified on: its
// name followed by any type hints from the source payload.
func EntityText(name string, hints ...string) string {
	parts := make([]string, 0, 1+len(hints))
	if name = strings.TrimSpace(name); name != "" {
		parts = append(parts, name)
	}
	for _, hint := range hints {
		hint = strings.TrimSpace(strings.ReplaceAll(hint, "_", " "))
		if hint != "" {
			parts = append(parts, hint)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		// An empty keyword would match everything.
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
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

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
