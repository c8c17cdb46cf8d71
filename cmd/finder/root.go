package main

import "github.com/spf13/cobra"

const (
	groupBatch = "batch"
	groupQuery = "query"
	groupOps   = "ops"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		jsonFlag   bool
	)
	ctx := newCommandContext(&configFlag, &jsonFlag)

	root := &cobra.Command{
		Use:           "finder",
		Short:         "Therapist directory ingestion and maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of tables")

	root.AddGroup(
		&cobra.Group{ID: groupBatch, Title: "Batch runs (take the run lock):"},
		&cobra.Group{ID: groupQuery, Title: "Directory queries:"},
		&cobra.Group{ID: groupOps, Title: "Diagnostics and setup:"},
	)

	batch := append([]*cobra.Command{newSeedCommand(ctx), newScanCommand(ctx)}, newPassCommands(ctx)...)
	query := []*cobra.Command{
		newProvidersCommand(ctx),
		newCategoriesCommand(ctx),
		newNeighborhoodsCommand(ctx),
		newStatsCommand(ctx),
		newPhotoCommand(ctx),
	}
	ops := []*cobra.Command{
		newHealthCommand(ctx),
		newPreflightCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	}
	for _, g := range []struct {
		id   string
		cmds []*cobra.Command
	}{{groupBatch, batch}, {groupQuery, query}, {groupOps, ops}} {
		for _, cmd := range g.cmds {
			cmd.GroupID = g.id
			root.AddCommand(cmd)
		}
	}
	return root
}
