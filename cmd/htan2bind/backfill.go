package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ncihtan/htan2-project-setup/backfill"
	"github.com/ncihtan/htan2-project-setup/bindconfig"
	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/synapse"
)

func backfillCmd(root *rootOptions) *cobra.Command {
	var (
		version      string
		typeNames    []string
		bindingsPath string
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Patch fileview identifiers into the binding config",
		Long: `Backfill scans persisted bindings that lack a fileview identifier,
fetches each folder's generated documentation page, extracts the embedded
identifier, and patches it into the binding configuration in place.

Entries whose page is missing or has no identifier are left untouched and
picked up again on the next invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := root.setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if bindingsPath == "" {
				bindingsPath = cfg.Paths.BindingConfig
			}

			// No version given: scan every batch key in the document.
			var keys []string
			if version != "" {
				version = normalizeVersion(version)
				types, err := parseTypes(typeNames)
				if err != nil {
					return err
				}
				if len(types) == 0 {
					types = folders.Types
				}
				for _, t := range types {
					keys = append(keys, folders.BatchKey(version, t))
				}
			}

			client := synapse.NewClient(cfg.AuthToken(),
				synapse.WithEndpoint(cfg.Synapse.Endpoint),
				synapse.WithLogger(logger))
			store := bindconfig.NewStore(bindingsPath, bindconfig.WithLogger(logger))

			backfiller := backfill.New(store, client, backfill.WithLogger(logger))
			summary, err := backfiller.Run(ctx, keys...)
			if err != nil {
				return err
			}

			for _, issue := range summary.Issues {
				fmt.Fprintf(os.Stderr, "  %s %s (%s): %v\n",
					issue.BatchKey, issue.Schema, issue.FolderID, issue.Err)
			}
			fmt.Printf("%d scanned, %d patched, %d unresolved\n",
				summary.Scanned, summary.Patched, len(summary.Issues))
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Restrict to one dataset version (e.g. v8)")
	cmd.Flags().StringSliceVar(&typeNames, "folder-type", nil, "Restrict to folder types (default all)")
	cmd.Flags().StringVar(&bindingsPath, "bindings", "", "Binding config file (default from config)")

	return cmd
}
