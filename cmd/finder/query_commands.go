package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"therapyfinder/internal/services"
	"therapyfinder/internal/slug"
	"therapyfinder/internal/store"
)

type cityFlags struct {
	state string
	city  string
}

func (f *cityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.state, "state", "", "State code (e.g. TX)")
	cmd.Flags().StringVar(&f.city, "city", "", "City name or slug")
}

func (f cityFlags) set() bool {
	return strings.TrimSpace(f.city) != ""
}

type providerView struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int64   `json:"review_count,omitempty"`
	Neighborhood int64    `json:"neighborhood_id,omitempty"`
}

func viewProvider(p *store.Provider) providerView {
	v := providerView{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Address:     p.Address,
		Phone:       p.Phone,
		Website:     p.Website,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
	}
	if p.NeighborhoodID != nil {
		v.Neighborhood = *p.NeighborhoodID
	}
	return v
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	var (
		where         cityFlags
		category      string
		neighborhood  string
		minConfidence float64
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List a city's providers, best rated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			return ctx.withStore(func(st *store.Store) error {
				city, err := resolveCity(runCtx, st, where.state, where.city)
				if err != nil {
					return err
				}
				q := store.ProviderQuery{CityID: city.ID, MinConfidence: minConfidence, Limit: limit}
				if strings.TrimSpace(category) != "" {
					cat, err := st.CategoryBySlug(runCtx, slug.Slugify(category))
					if err != nil {
						return err
					}
					if cat == nil {
						return services.Wrap(services.ErrNotFound, "cli", "providers", fmt.Sprintf("unknown category %q", category), nil)
					}
					q.CategoryID = cat.ID
				}
				if strings.TrimSpace(neighborhood) != "" {
					hood, err := st.NeighborhoodBySlug(runCtx, city.ID, slug.Slugify(neighborhood))
					if err != nil {
						return err
					}
					if hood == nil {
						return services.Wrap(services.ErrNotFound, "cli", "providers",
							fmt.Sprintf("unknown neighborhood %q in %s", neighborhood, city.Name), nil)
					}
					q.NeighborhoodID = hood.ID
				}

				found, err := st.FindProviders(runCtx, q)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					views := make([]providerView, 0, len(found))
					for _, p := range found {
						views = append(views, viewProvider(p))
					}
					return emitJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(found) == 0 {
					fmt.Fprintln(out, "No providers found")
					return nil
				}
				rows := make([][]string, 0, len(found))
				for _, p := range found {
					rows = append(rows, []string{p.Slug, p.Name, formatRating(p.Rating, p.ReviewCount), dash(p.Phone), dash(p.Address)})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Slug", "Name", "Rating", "Phone", "Address"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	where.register(cmd)
	cmd.Flags().StringVar(&category, "category", "", "Category name or slug")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "Neighborhood name or slug")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Minimum category link confidence")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows (0 = all)")
	return cmd
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var where cityFlags
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List therapy types, or the ones present in a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			return ctx.withStore(func(st *store.Store) error {
				if where.set() {
					city, err := resolveCity(runCtx, st, where.state, where.city)
					if err != nil {
						return err
					}
					counts, err := st.CategoryCountsInCity(runCtx, city.ID)
					if err != nil {
						return err
					}
					return printGroupCounts(cmd, ctx, "Category", counts)
				}

				cats, err := st.Categories(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return emitJSON(cmd, cats)
				}
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(cats))
				for _, c := range cats {
					rows = append(rows, []string{c.Slug, c.Name, strings.Join(c.Synonyms, ", "), strconv.Itoa(len(c.Keywords))})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Slug", "Name", "Synonyms", "Keywords"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	where.register(cmd)
	return cmd
}

func newNeighborhoodsCommand(ctx *commandContext) *cobra.Command {
	var where cityFlags
	cmd := &cobra.Command{
		Use:   "neighborhoods",
		Short: "List a city's neighborhoods with provider counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			return ctx.withStore(func(st *store.Store) error {
				city, err := resolveCity(runCtx, st, where.state, where.city)
				if err != nil {
					return err
				}
				counts, err := st.NeighborhoodCountsInCity(runCtx, city.ID)
				if err != nil {
					return err
				}
				return printGroupCounts(cmd, ctx, "Neighborhood", counts)
			})
		},
	}
	where.register(cmd)
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report directory totals and per-city counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			return ctx.withStore(func(st *store.Store) error {
				sum, err := st.Summary(runCtx)
				if err != nil {
					return err
				}
				cities, err := st.CityCounts(runCtx)
				if err != nil {
					return err
				}
				if top > 0 && len(cities) > top {
					cities = cities[:top]
				}
				if ctx.JSONMode() {
					return encodeJSON(cmd, struct {
						Summary store.Summary      `json:"summary"`
						Cities  []store.GroupCount `json:"cities"`
					}{sum, cities})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Providers: %d\n", sum.Providers)
				fmt.Fprintf(out, "Category links: %d\n", sum.Links)
				fmt.Fprintf(out, "With photo: %d\n", sum.WithPhotos)
				fmt.Fprintf(out, "With neighborhood: %d\n", sum.WithNeighborhood)
				fmt.Fprintf(out, "Categories: %d  Cities: %d  Neighborhoods: %d\n", sum.Categories, sum.Cities, sum.Neighborhoods)
				if len(cities) > 0 {
					rows := make([][]string, 0, len(cities))
					for _, c := range cities {
						rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
					}
					fmt.Fprintln(out, renderTable(out, []string{"City", "Providers"}, rows, []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "Cities to list (0 = all)")
	return cmd
}

func printGroupCounts(cmd *cobra.Command, ctx *commandContext, label string, counts []store.GroupCount) error {
	if ctx.JSONMode() {
		return emitJSON(cmd, counts)
	}
	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintln(out, "Nothing to show")
		return nil
	}
	rows := make([][]string, 0, len(counts))
	for _, g := range counts {
		rows = append(rows, []string{g.Slug, g.Name, strconv.Itoa(g.Count)})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Slug", label, "Providers"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}
