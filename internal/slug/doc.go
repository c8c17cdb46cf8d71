// Package slug turns provider names into stable, globally unique URL slugs.
//
// Slugify folds a display name to lowercase ASCII joined by hyphens. Generator
// picks among three candidates in order: the bare name, the name qualified by
// its city, and finally the city-qualified name with a short suffix taken from
// the provider's source identifier. A candidate is accepted when it is free or
// already held by the same source identifier, so rescanning a provider always
// lands on the slug it was first given.
package slug
