package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ncihtan/htan2-project-setup/bindconfig"
	"github.com/ncihtan/htan2-project-setup/binder"
	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/matcher"
)

func bindCmd(root *rootOptions) *cobra.Command {
	var (
		version       string
		schemaVersion string
		typeNames     []string
		schemaGlob    string
		foldersPath   string
		bindingsPath  string
		reportPath    string
		metricsAddr   string
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Match and bind schemas to provisioned folders",
		Long: `Bind fetches the schema catalog for the requested schema version,
matches every provisioned folder to exactly one schema, executes the bind
calls, and merges the bound set into the cumulative binding configuration.

Per-pair failures never abort the pass; failed bindings land in the run
report and can be re-run with "htan2bind retry".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := root.setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			version = normalizeVersion(version)
			types, err := parseTypes(typeNames)
			if err != nil {
				return err
			}

			if foldersPath == "" {
				foldersPath = cfg.Paths.FolderStructure
			}
			if bindingsPath == "" {
				bindingsPath = cfg.Paths.BindingConfig
			}

			// Refuse to run against a malformed config before any bind is
			// issued.
			store := bindconfig.NewStore(bindingsPath, bindconfig.WithLogger(logger))
			if _, err := store.Load(); err != nil {
				return err
			}

			structure, err := folders.LoadStructure(foldersPath)
			if err != nil {
				return err
			}
			refs, err := structure.Refs(version, types...)
			if err != nil {
				return err
			}

			cat, err := buildCatalog(ctx, cfg, schemaVersion, logger)
			if err != nil {
				return err
			}

			result := matcher.Match(cat, refs)
			if dryRun {
				printPlan(result)
				return nil
			}

			executor := buildExecutor(cfg, metricsAddr, logger)
			filter := binder.Filter{SchemaGlob: schemaGlob, Types: types}
			outcome, runErr := executor.Execute(ctx, result.Pairs, filter)
			if outcome == nil {
				return runErr
			}

			printOutcome(outcome, len(result.Unmatched))

			if reportPath == "" {
				reportPath = filepath.Join(cfg.Paths.ReportDir,
					fmt.Sprintf("binding_results_%s_%s.json", version, outcome.RunID[:8]))
			}
			if err := binder.NewReport(outcome).Save(reportPath); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", reportPath)

			for key, entries := range bindconfig.EntriesFromBindings(outcome.Bindings) {
				if err := store.Merge(key, entries); err != nil {
					return err
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Dataset version (e.g. v8)")
	cmd.Flags().StringVar(&schemaVersion, "schema-version", "", "Schema source version (e.g. v1.0.0)")
	cmd.Flags().StringSliceVar(&typeNames, "folder-type", nil, "Folder types to bind (ingest, staging, release; default all)")
	cmd.Flags().StringVar(&schemaGlob, "schema", "", "Only bind schemas matching this glob (e.g. 'scRNA*')")
	cmd.Flags().StringVar(&foldersPath, "folders", "", "Folder structure file (default from config)")
	cmd.Flags().StringVar(&bindingsPath, "bindings", "", "Binding config file (default from config)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Run report output path")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve binding metrics on this address during the run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match and report the plan without issuing bind calls")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("schema-version")

	return cmd
}
