package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInspectCmd creates the 'inspect' subcommand.
func newInspectCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspects today's URL set and records the results",
		Long: `Builds the URL set from the static list and the trailing days of generated
answer pages, inspects each URL in batches and writes the rows to a new
spreadsheet named after today's date. If the spreadsheet cannot be created or
a write fails, all rows are written to a local file instead.

With --dry-run (or DRY_RUN=true) the URL set is printed and nothing else happens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := resolveOptions(opts); err != nil {
				return err
			}
			runner, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return fmt.Errorf("init application: %w", err)
			}
			if dryRun || opts.cfg.Run.DryRun {
				return runner.DryRun(cmd.OutOrStdout())
			}

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("inspection run: %w", err)
			}
			if summary.Total == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No URLs found to inspect.")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Inspected %d URLs (%d errors). Results: %s\n",
				summary.Inspected, summary.Errors, summary.Artifact)
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the URL set without calling any API")
	return cmd
}
