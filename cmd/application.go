package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
)

var applicationCmd = &cobra.Command{
	Use:   "application",
	Short: "Application commands",
}

var applicationCreateCmd = &cobra.Command{
	Use:   "create <listing-id>",
	Short: "Open an application on a listing",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		listingID, err := parseID("listing id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		application, err := svc.Tracker.CreateApplication(ctx, listingID)
		if err != nil {
			return err
		}
		return writeJSON(cmd, application)
	}),
}

var applicationShowCmd = &cobra.Command{
	Use:   "show <application-id>",
	Short: "Show an application and its timeline",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := parseID("application id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		application, err := svc.Tracker.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd, application)
	}),
}

var applicationSyncCmd = &cobra.Command{
	Use:   "sync <application-id>",
	Short: "Recompute the current status of an application",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := parseID("application id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		application, err := svc.Tracker.SyncStatus(ctx, id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", application.ID, application.CurrentStatus, application.LastStatusAt); err != nil {
			return errs.Wrap(err, "write sync output")
		}
		return nil
	}),
}

var applicationAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report applications whose current status disagrees with their events",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		fix, _ := cmd.Flags().GetBool("fix")
		report, err := svc.Tracker.AuditStatuses(ctx, fix)
		if err != nil {
			return err
		}
		return writeJSON(cmd, report)
	}),
}

func init() {
	rootCmd.AddCommand(applicationCmd)
	applicationCmd.AddCommand(applicationCreateCmd, applicationShowCmd, applicationSyncCmd, applicationAuditCmd)
	applicationAuditCmd.Flags().Bool("fix", false, "Resync every drifting application")
}
