package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncihtan/htan2-project-setup/bindconfig"
	"github.com/ncihtan/htan2-project-setup/binder"
	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/matcher"
)

func retryCmd(root *rootOptions) *cobra.Command {
	var (
		resultFiles   []string
		schemaVersion string
		bindingsPath  string
		reportPath    string
		metricsAddr   string
		timeout       time.Duration
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-run failed bindings from prior run reports",
		Long: `Retry loads the failed entries from one or more run reports,
deduplicates them, and re-executes the binds with the extended timeout.
Large schemas that timed out on the first pass usually succeed given more
time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := root.setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			failed, err := binder.LoadFailed(resultFiles...)
			if err != nil {
				return err
			}
			if len(failed) == 0 {
				fmt.Println("no failed bindings found")
				return nil
			}
			fmt.Printf("found %d unique failed binding(s) to retry\n", len(failed))

			if dryRun {
				for i, entry := range failed {
					fmt.Printf("%d. %s - %s (%s)\n   error: %s\n",
						i+1, entry.Schema, entry.Project, entry.SynapseID, entry.Error)
				}
				return nil
			}

			cat, err := buildCatalog(ctx, cfg, schemaVersion, logger)
			if err != nil {
				return err
			}

			var pairs []matcher.Pair
			for _, entry := range failed {
				defs := cat.ByComponent(entry.Schema)
				if len(defs) != 1 {
					logger.Warn("Cannot resolve schema for retry",
						slog.String("schema", entry.Schema),
						slog.Int("candidates", len(defs)))
					continue
				}
				pairs = append(pairs, matcher.Pair{
					Ref:    folders.Ref{Key: entry.Key(), ID: entry.SynapseID},
					Schema: defs[0],
				})
			}

			// Every retried bind gets the extended timeout.
			if timeout > 0 {
				cfg.Binding.ExtendedTimeout = timeout
			}
			cfg.Binding.DefaultTimeout = cfg.Binding.ExtendedTimeout

			executor := buildExecutor(cfg, metricsAddr, logger)
			outcome, runErr := executor.Execute(ctx, pairs, binder.Filter{})
			if outcome == nil {
				return runErr
			}

			printOutcome(outcome, 0)

			if reportPath == "" {
				reportPath = filepath.Join(cfg.Paths.ReportDir,
					fmt.Sprintf("retry_results_%s.json", outcome.RunID[:8]))
			}
			if err := binder.NewReport(outcome).Save(reportPath); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", reportPath)

			if bindingsPath == "" {
				bindingsPath = cfg.Paths.BindingConfig
			}
			store := bindconfig.NewStore(bindingsPath, bindconfig.WithLogger(logger))
			for key, entries := range bindconfig.EntriesFromBindings(outcome.Bindings) {
				if err := store.Merge(key, entries); err != nil {
					return err
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&resultFiles, "results", nil, "Run report files to load failed bindings from")
	cmd.Flags().StringVar(&schemaVersion, "schema-version", "", "Schema source version (e.g. v1.0.0)")
	cmd.Flags().StringVar(&bindingsPath, "bindings", "", "Binding config file (default from config)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Retry report output path")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve binding metrics on this address during the run")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the extended bind timeout (e.g. 45m)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be retried without binding")
	_ = cmd.MarkFlagRequired("results")
	_ = cmd.MarkFlagRequired("schema-version")

	return cmd
}
