package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"therapyfinder/internal/services"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatRating(rating *float64, reviews *int64) string {
	if rating == nil {
		return "-"
	}
	out := strconv.FormatFloat(*rating, 'f', 1, 64)
	if reviews != nil {
		out += fmt.Sprintf(" (%d)", *reviews)
	}
	return out
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// resolveCity looks a city up by state code and name or slug.
func resolveCity(ctx context.Context, st *store.Store, state, city string) (*store.City, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" || strings.TrimSpace(city) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "city", "--state and --city are required", nil)
	}
	found, err := st.CityBySlug(ctx, state, slug.Slugify(city))
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, services.Wrap(services.ErrNotFound, "cli", "city",
			fmt.Sprintf("city %q in %s is not seeded (run 'finder seed')", city, state), nil)
	}
	return found, nil
}
