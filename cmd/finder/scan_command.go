package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"therapyfinder/internal/config"
	"therapyfinder/internal/logging"
	"therapyfinder/internal/metrics"
	"therapyfinder/internal/notifications"
	"therapyfinder/internal/places"
	"therapyfinder/internal/preflight"
	"therapyfinder/internal/scan"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
)

type scanFlags struct {
	state         string
	city          string
	neighborhoods bool
	loop          bool
	maxResults    int
	queries       []string
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search the places source and upsert providers",
		Long: "Runs one text search per (city, query) pair, or per neighborhood with " +
			"--neighborhoods. Each result is normalized, deduplicated by source id, " +
			"classified, and linked. With --loop, neighborhoods below scan.loop_target " +
			"providers are re-scanned every scan.loop_interval_seconds until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-results") {
				cfg.Scan.MaxResultsPerScope = flags.maxResults
			}
			if len(flags.queries) > 0 {
				cfg.Scan.Queries = flags.queries
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := ctx.runContext(cmd)
			defer stop()

			return ctx.withBatch(func(st *store.Store) error {
				if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, preflight.Options{RequireKey: true, Health: st})); len(failed) > 0 {
					for _, r := range failed {
						fmt.Fprintf(cmd.ErrOrStderr(), "preflight %s: %s\n", r.Name, r.Detail)
					}
					return services.Wrap(services.ErrConfiguration, "cli", "scan", "preflight failed", nil)
				}
				return runScan(runCtx, cmd, ctx, cfg, st, flags, logger)
			})
		},
	}

	cmd.Flags().StringVar(&flags.state, "state", "", "Limit to one state code (e.g. TX)")
	cmd.Flags().StringVar(&flags.city, "city", "", "Limit to one city, by name or slug (requires --state)")
	cmd.Flags().BoolVar(&flags.neighborhoods, "neighborhoods", false, "Scan neighborhoods instead of whole cities")
	cmd.Flags().BoolVar(&flags.loop, "loop", false, "Keep re-scanning neighborhoods below the provider target")
	cmd.Flags().IntVar(&flags.maxResults, "max-results", 0, "Cap records fetched per scope (0 = no cap)")
	cmd.Flags().StringSliceVarP(&flags.queries, "query", "q", nil, "Override the configured city queries")
	return cmd
}

func runScan(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, cfg *config.Config, st *store.Store, flags scanFlags, logger *slog.Logger) error {
	client, err := places.New(cfg.Places.APIKey, cfg.Places.BaseURL,
		places.WithTimeout(cfg.PlacesTimeout()),
		places.WithPageSize(cfg.Places.PageSize),
	)
	if err != nil {
		return err
	}
	matcher, err := ctx.matcher()
	if err != nil {
		return err
	}
	batch, err := metrics.NewBatch()
	if err != nil {
		return err
	}

	orch := scan.New(client, st, matcher, scan.OptionsFromConfig(cfg), logger, scan.WithMetrics(batch))
	plan := scan.Plan{
		State:             flags.state,
		City:              flags.city,
		Neighborhoods:     flags.neighborhoods || flags.loop,
		Queries:           cfg.Scan.Queries,
		NeighborhoodQuery: cfg.Scan.NeighborhoodQuery,
	}

	var (
		sum    scan.Summary
		runErr error
	)
	if flags.loop {
		first, err := scan.BelowTarget(runCtx, st, plan, cfg.Scan.LoopTarget)
		if err != nil {
			return err
		}
		next := func(ctx context.Context) ([]scan.Scope, error) {
			return scan.BelowTarget(ctx, st, plan, cfg.Scan.LoopTarget)
		}
		sum, runErr = orch.Loop(runCtx, first, next, cfg.LoopInterval())
	} else {
		scopes, err := scan.BuildScopes(runCtx, st, plan)
		if err != nil {
			return err
		}
		sum, runErr = orch.Run(runCtx, scopes)
	}

	if cfg.Paths.MetricsFile != "" {
		if err := batch.WriteTextfile(cfg.Paths.MetricsFile); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.String("path", cfg.Paths.MetricsFile),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.metrics_file permissions"),
			)
		}
	}

	notifyRun(runCtx, notifications.NewService(cfg), logger, sum, runErr)

	if ctx.JSONMode() {
		if err := encodeJSON(cmd, sum); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Scan finished in %s\n%s\n", sum.Duration.Round(time.Second), sum)
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, services.ErrQuotaExceeded):
		return fmt.Errorf("scan stopped early: %w", runErr)
	case errors.Is(runErr, context.Canceled):
		return nil
	default:
		return runErr
	}
}

func notifyRun(ctx context.Context, notifier notifications.Service, logger *slog.Logger, sum scan.Summary, runErr error) {
	report := notifications.RunReport{
		Command:       "scan",
		Scopes:        sum.Scopes,
		ScopesAborted: sum.ScopesAborted,
		Created:       sum.Created,
		Updated:       sum.Updated,
		Failed:        sum.Failed,
		Duration:      sum.Duration,
		QuotaExceeded: sum.QuotaExceeded,
	}
	// The run context may already be cancelled; delivery gets its own deadline.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	var err error
	switch {
	case sum.QuotaExceeded:
		err = notifier.NotifyQuotaExceeded(sendCtx, report)
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		err = notifier.NotifyError(sendCtx, runErr, "scan")
	default:
		err = notifier.NotifyRunCompleted(sendCtx, report)
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification not delivered", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
