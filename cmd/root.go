package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/app"
	"github.com/JakeFAU/index-inspector/internal/config"
	"github.com/JakeFAU/index-inspector/internal/logging"
	"github.com/JakeFAU/index-inspector/internal/orchestrator"
)

// Runner is what commands need from the application. Tests swap in a fake.
type Runner interface {
	DryRun(w io.Writer) error
	Run(ctx context.Context) (orchestrator.Summary, error)
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(cfg config.Config, logger *zap.Logger) (Runner, error) {
	return app.New(cfg, logger)
}

// rootOptions carries state from the persistent pre-run hook to subcommands.
type rootOptions struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-inspector",
		Short: "Bulk URL index inspection against Search Console.",
		Long: `index-inspector asks the Search Console URL inspection API for the index
status of a site's static and date-generated pages, and records one row per
URL in a Google Sheet, falling back to a local file if the sheet fails.`,
		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				File:        cfg.Logging.File,
				MaxSizeMB:   cfg.Logging.MaxSizeMB,
				MaxBackups:  cfg.Logging.MaxBackups,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (defaults and INSPECTOR_* env vars otherwise)")
	cmd.AddCommand(newInspectCmd(opts))
	return cmd
}

// Execute is the main entry point. It exits 1 on any command error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if opts.logger != nil {
		if err != nil {
			opts.logger.Error("Command execution failed", zap.Error(err))
		}
		// Sync fails on some terminals; there is nowhere left to report it.
		_ = opts.logger.Sync()
	}
	return err
}

func resolveOptions(opts *rootOptions) error {
	if opts.logger == nil {
		return errors.New("configuration not loaded")
	}
	return nil
}
