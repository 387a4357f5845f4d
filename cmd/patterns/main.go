// patterns validates, generates, searches, deploys and exports
// infrastructure patterns from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canvas-infra/patterns/internal/config"
	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/pipeline"
)

var version = "dev"

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	pipeline *pipeline.Pipeline
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "patterns",
		Short:         "patterns - infrastructure pattern engine",
		Long:          "patterns expands templates into infrastructure patterns, validates them and places them into canvas workspaces.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to patterns.yaml (default: ./patterns.yaml or ./config/patterns.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		a.validateCommand(),
		a.generateCommand(),
		a.searchCommand(),
		a.deployCommand(),
		a.batchCommand(),
		a.exportCommand(),
		a.templatesCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: cmd.ErrOrStderr()})

	opts := pipeline.DefaultOptions()
	opts.Logger = log
	opts.ExportProvider = cfg.Export.Provider
	p := pipeline.New(opts)
	if cfg.Library.Builtins {
		if err := p.LoadLibrary(); err != nil {
			return fmt.Errorf("load built-in library: %w", err)
		}
	}
	if err := p.LoadPaths(cfg.Library.Paths...); err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	a.cfg = cfg
	a.pipeline = p
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
