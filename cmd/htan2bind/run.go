package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ncihtan/htan2-project-setup/binder"
	"github.com/ncihtan/htan2-project-setup/catalog"
	"github.com/ncihtan/htan2-project-setup/config"
	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/matcher"
	"github.com/ncihtan/htan2-project-setup/synapse"
)

// normalizeVersion accepts "8" or "v8" and returns "v8".
func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	if _, err := strconv.Atoi(version); err == nil {
		return "v" + version
	}
	return version
}

// parseTypes converts --folder-type values, defaulting to all types.
func parseTypes(names []string) ([]folders.Type, error) {
	var types []folders.Type
	for _, name := range names {
		t, err := folders.ParseType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// buildCatalog fetches the schema catalog, preferring a local checkout when
// configured.
func buildCatalog(ctx context.Context, cfg *config.Config, schemaVersion string, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.Source.LocalPath != "" {
		return catalog.LoadDir(cfg.Source.LocalPath, schemaVersion)
	}
	source := catalog.NewSource(cfg.Source.RepoURL, cfg.Source.Dir, catalog.WithLogger(logger))
	return source.Fetch(ctx, schemaVersion)
}

// buildExecutor wires the Synapse client and executor from configuration.
// When metricsAddr is set, binding counters are served over HTTP for the
// duration of the run.
func buildExecutor(cfg *config.Config, metricsAddr string, logger *slog.Logger) *binder.Executor {
	client := synapse.NewClient(cfg.AuthToken(),
		synapse.WithEndpoint(cfg.Synapse.Endpoint),
		synapse.WithLogger(logger))

	execCfg := binder.Config{
		Organization:             cfg.Synapse.Organization,
		DefaultTimeout:           cfg.Binding.DefaultTimeout,
		ExtendedTimeout:          cfg.Binding.ExtendedTimeout,
		LargeSchemas:             cfg.Binding.LargeSchemas,
		Workers:                  cfg.Binding.Workers,
		EnableDerivedAnnotations: cfg.Synapse.EnableDerivedAnnotations,
		Retry: binder.RetryConfig{
			MaxAttempts:       cfg.Binding.MaxAttempts,
			BackoffBase:       cfg.Binding.BackoffBase,
			BackoffMultiplier: cfg.Binding.BackoffMultiplier,
			MaxBackoff:        cfg.Binding.MaxBackoff,
		},
	}

	opts := []binder.ExecutorOption{binder.WithLogger(logger)}
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		opts = append(opts, binder.WithMetrics(binder.NewMetrics(registry)))
		go serveMetrics(metricsAddr, registry, logger)
	}

	return binder.NewExecutor(client, execCfg, opts...)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server stopped", slog.String("error", err.Error()))
	}
}

// printPlan writes the matching result as a table.
func printPlan(result matcher.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tID\tSCHEMA")
	for _, pair := range result.Pairs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", pair.Ref.Key, pair.Ref.ID, pair.Schema.FileName)
	}
	w.Flush()

	if len(result.Unmatched) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UNMATCHED\tEXPECTED\tREASON")
		for _, u := range result.Unmatched {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.Key, u.Expected, u.Reason)
		}
		w.Flush()
	}

	fmt.Printf("\n%d matched, %d unmatched\n", len(result.Pairs), len(result.Unmatched))
}

// printOutcome writes the per-binding outcomes and aggregate counts.
func printOutcome(outcome *binder.Outcome, unmatched int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tSCHEMA\tSTATUS\tDETAIL")
	for _, b := range outcome.Bindings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Key, b.SchemaName, b.Status, b.Error)
	}
	w.Flush()

	bound, failed, skipped := outcome.Counts()
	fmt.Printf("\nrun %s: %d bound, %d failed, %d skipped, %d unmatched\n",
		outcome.RunID, bound, failed, skipped, unmatched)
}
