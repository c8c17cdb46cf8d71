package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"therapyfinder/internal/passes"
	"therapyfinder/internal/store"
)

func newPassCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newClassifyCommand(ctx),
		newAssignNeighborhoodsCommand(ctx),
		newFixSlugsCommand(ctx),
	}
}

func (c *commandContext) withRunner(fn func(*passes.Runner) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	matcher, err := c.matcher()
	if err != nil {
		return err
	}
	return c.withBatch(func(st *store.Store) error {
		return fn(passes.New(st, matcher, logger))
	})
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Rescore every provider against every category",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := ctx.runContext(cmd)
			defer stop()
			return ctx.withRunner(func(r *passes.Runner) error {
				res, err := r.Classify(runCtx)
				if err != nil {
					return err
				}
				return printPassResult(cmd, ctx, "Classify", res)
			})
		},
	}
}

func newAssignNeighborhoodsCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "assign-neighborhoods",
		Short: "Place providers in neighborhoods by address",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := ctx.runContext(cmd)
			defer stop()
			return ctx.withRunner(func(r *passes.Runner) error {
				res, err := r.AssignNeighborhoods(runCtx, force)
				if err != nil {
					return err
				}
				return printPassResult(cmd, ctx, "Assign neighborhoods", res)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reassign providers that already have a neighborhood")
	return cmd
}

func newFixSlugsCommand(ctx *commandContext) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "fix-slugs",
		Short: "Rename provider slugs to the cleanest available form",
		Long:  "Lists the renames the slug generator would make. Nothing is written without --apply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := ctx.runContext(cmd)
			defer stop()
			return ctx.withRunner(func(r *passes.Runner) error {
				res, changes, err := r.RepairSlugs(runCtx, apply)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return encodeJSON(cmd, struct {
						Result  passes.Result       `json:"result"`
						Changes []passes.SlugChange `json:"changes"`
					}{res, changes})
				}
				out := cmd.OutOrStdout()
				if len(changes) == 0 {
					fmt.Fprintln(out, "All slugs are already clean")
				} else {
					rows := make([][]string, 0, len(changes))
					for _, ch := range changes {
						rows = append(rows, []string{strconv.FormatInt(ch.ProviderID, 10), ch.From, ch.To, yesNo(ch.Applied)})
					}
					fmt.Fprintln(out, renderTable(out, []string{"ID", "From", "To", "Applied"}, rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
				}
				if !apply && len(changes) > 0 {
					fmt.Fprintln(out, "Dry run; rerun with --apply to rename")
				}
				fmt.Fprintf(out, "Fix slugs: %s\n", res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the renames")
	return cmd
}

func printPassResult(cmd *cobra.Command, ctx *commandContext, label string, res passes.Result) error {
	if ctx.JSONMode() {
		return encodeJSON(cmd, res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, res)
	return nil
}
