package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ncihtan/htan2-project-setup/config"
	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/matcher"
)

func planCmd(root *rootOptions) *cobra.Command {
	var (
		version       string
		schemaVersion string
		typeNames     []string
		foldersPath   string
		watch         bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Match folders to schemas and report the plan",
		Long: `Plan performs catalog fetching and matching without issuing any bind
calls. With --watch it re-plans whenever the folder structure file changes,
which is useful while the provisioning collaborator is still filling in
folder identifiers.`,
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

			runPlan := func() error {
				return planOnce(ctx, cfg, version, schemaVersion, foldersPath, types, logger)
			}

			if err := runPlan(); err != nil {
				if !watch {
					return err
				}
				logger.Warn("Plan failed, waiting for changes", slog.String("error", err.Error()))
			}
			if !watch {
				return nil
			}

			return watchAndReplan(ctx, foldersPath, runPlan, logger)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Dataset version (e.g. v8)")
	cmd.Flags().StringVar(&schemaVersion, "schema-version", "", "Schema source version (e.g. v1.0.0)")
	cmd.Flags().StringSliceVar(&typeNames, "folder-type", nil, "Folder types to plan (default all)")
	cmd.Flags().StringVar(&foldersPath, "folders", "", "Folder structure file (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-plan when the folder structure file changes")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("schema-version")

	return cmd
}

func planOnce(ctx context.Context, cfg *config.Config, version, schemaVersion, foldersPath string, types []folders.Type, logger *slog.Logger) error {
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

	printPlan(matcher.Match(cat, refs))
	return nil
}

// watchAndReplan re-runs the plan whenever the watched file is rewritten.
func watchAndReplan(ctx context.Context, path string, replan func() error, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info("Watching for changes", slog.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fmt.Printf("\n--- %s changed, re-planning ---\n\n", event.Name)
				if err := replan(); err != nil {
					logger.Warn("Plan failed", slog.String("error", err.Error()))
				}
				// Editors replace files on save; re-add in case the inode changed.
				_ = watcher.Add(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", slog.String("error", err.Error()))
		}
	}
}
