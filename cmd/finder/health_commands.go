package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"therapyfinder/internal/preflight"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check directory database health (schema, tables, integrity)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				resp, err := st.CheckHealth(cmd.Context())
				if err != nil && resp.DBPath == "" {
					return err
				}
				if ctx.JSONMode() {
					return encodeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", resp.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(resp.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(resp.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %d (expected %d)\n", resp.SchemaVersion, resp.ExpectedVersion)
				if len(resp.MissingTables) > 0 {
					fmt.Fprintf(out, "Missing tables: %s\n", strings.Join(resp.MissingTables, ", "))
				} else {
					fmt.Fprintln(out, "Missing tables: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(resp.IntegrityCheck))
				fmt.Fprintf(out, "Total providers: %d\n", resp.TotalProviders)
				if resp.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", resp.Error)
				}
				if err != nil {
					return err
				}
				if !resp.Healthy() {
					return services.Wrap(services.ErrConfiguration, "cli", "health", "database is unhealthy", nil)
				}
				return nil
			})
		},
	}
}

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, credentials, and the database before a scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{RequireKey: true, Probe: probe, Health: st})
				if ctx.JSONMode() {
					if err := emitJSON(cmd, results); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					for _, r := range results {
						status := "ok"
						if !r.Passed {
							status = "FAIL"
						}
						fmt.Fprintf(out, "[%-4s] %s: %s\n", status, r.Name, r.Detail)
					}
				}
				if failed := preflight.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%d preflight check(s) failed", len(failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Send one live search to verify the API key (uses quota)")
	return cmd
}
