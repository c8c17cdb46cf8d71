package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"therapyfinder/internal/seed"
	"therapyfinder/internal/store"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load therapy types, cities, and neighborhoods",
		Long: "Upserts reference data keyed by slug. Existing rows are never deleted; " +
			"synonyms and keywords are merged. Without --file the built-in data set is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			data, err := seed.Load(file)
			if err != nil {
				return err
			}
			runCtx, stop := ctx.runContext(cmd)
			defer stop()

			return ctx.withBatch(func(st *store.Store) error {
				res, err := seed.Apply(runCtx, st, data, cfg.Taxonomy.SpecificKeywords, logger)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return encodeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d cities, %d neighborhoods\n",
					res.Categories, res.Cities, res.Neighborhoods)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed YAML file (defaults to the built-in data set)")
	return cmd
}
