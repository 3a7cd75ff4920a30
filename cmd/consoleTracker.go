package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/usecase/trackerconsole"
)

var consoleTrackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Browse listings and application timelines",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model, err := trackerconsole.NewTrackerModel(ctx, svc.Tracker, trackerconsole.Options{
			Search:          search,
			StatusFilter:    status,
			RefreshInterval: refreshInterval,
		})
		if err != nil {
			return err
		}

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run tracker console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleTrackerCmd)
	consoleTrackerCmd.Flags().String("search", "", "Match title, company or domain")
	consoleTrackerCmd.Flags().String("status", "", "Comma separated current statuses")
	consoleTrackerCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
