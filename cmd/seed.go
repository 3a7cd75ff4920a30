package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/usecase/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.toml|file.yaml>",
	Short: "Load listings, applications and events from a fixture file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		fixture, err := seed.LoadFile(cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "load seed file")
		}
		result, err := seed.Apply(ctx, svc.Tracker, fixture)
		if err != nil {
			return errs.Wrap(err, "apply seed")
		}
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"seeded listings=%d skipped=%d applications=%d events=%d\n",
			result.Listings,
			result.Skipped,
			result.Applications,
			result.Events,
		); err != nil {
			return errs.Wrap(err, "write seed output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
