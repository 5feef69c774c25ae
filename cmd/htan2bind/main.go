// Package main provides the htan2bind binary entry point.
// htan2bind binds versioned JSON validation schemas to provisioned HTAN2
// data-commons folders and maintains the cumulative binding configuration
// that downstream query and reporting tooling depends on.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ncihtan/htan2-project-setup/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "htan2bind"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Schema binding for HTAN2 data-commons folders",
		Long: `htan2bind resolves which JSON validation schema belongs on each
provisioned data-submission folder and binds them through the Synapse API.

It provides:
- plan: match folders to schemas and report the plan without binding
- bind: execute the binding pass and merge results into the config
- retry: re-run failed bindings from prior run reports
- backfill: patch generated fileview identifiers into the config

Folder provisioning and permissions happen upstream; htan2bind consumes
the resulting folder map as read-only input.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(planCmd(opts))
	cmd.AddCommand(bindCmd(opts))
	cmd.AddCommand(retryCmd(opts))
	cmd.AddCommand(backfillCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup builds the logger and layered configuration for a command run.
func (opts *rootOptions) setup() (*slog.Logger, *config.Config, error) {
	var level slog.Level
	switch opts.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", opts.logLevel)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, nil, err
	}

	if opts.configPath != "" {
		fileCfg, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg.Merge(fileCfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	return logger, cfg, nil
}
