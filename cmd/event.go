package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Status event commands",
}

var eventAddCmd = &cobra.Command{
	Use:   "add <application-id>",
	Short: "Append a status event to an application",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		applicationID, err := parseID("application id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		event, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}
		created, err := svc.Tracker.CreateEvent(ctx, applicationID, event)
		if err != nil {
			return err
		}
		return writeJSON(cmd, created)
	}),
}

var eventUpdateCmd = &cobra.Command{
	Use:   "update <application-id> <event-id>",
	Short: "Replace a status event",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		applicationID, err := parseID("application id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		eventID, err := parseID("event id", cmd.Flags().Arg(1))
		if err != nil {
			return err
		}
		event, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}
		updated, err := svc.Tracker.UpdateEvent(ctx, applicationID, eventID, event)
		if err != nil {
			return err
		}
		return writeJSON(cmd, updated)
	}),
}

var eventDeleteCmd = &cobra.Command{
	Use:   "delete <application-id> <event-id>",
	Short: "Delete a status event",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		applicationID, err := parseID("application id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		eventID, err := parseID("event id", cmd.Flags().Arg(1))
		if err != nil {
			return err
		}
		if err := svc.Tracker.DeleteEvent(ctx, applicationID, eventID); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted event %s\n", eventID); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

func eventFromFlags(cmd *cobra.Command) (tracker.StatusEvent, error) {
	rawStatus, _ := cmd.Flags().GetString("status")
	rawDate, _ := cmd.Flags().GetString("date")
	notes, _ := cmd.Flags().GetString("notes")
	stage, _ := cmd.Flags().GetInt("stage")
	interviewers, _ := cmd.Flags().GetStringSlice("interviewer")
	referrals, _ := cmd.Flags().GetStringSlice("referral")

	status, err := tracker.ParseStatus(rawStatus)
	if err != nil {
		return tracker.StatusEvent{}, err
	}
	event := tracker.StatusEvent{Status: status}
	if rawDate != "" {
		if event.Date, err = tracker.ParseDate(rawDate); err != nil {
			return tracker.StatusEvent{}, err
		}
	}
	if notes != "" {
		event.Notes = &notes
	}
	switch status {
	case tracker.StatusInterview:
		event.Details = tracker.InterviewDetails{Stage: stage, Interviewers: people(interviewers)}
	case tracker.StatusApplied:
		if len(referrals) > 0 {
			event.Details = tracker.AppliedDetails{Referrals: people(referrals)}
		}
	}
	return event, nil
}

func people(names []string) []tracker.Person {
	if len(names) == 0 {
		return nil
	}
	out := make([]tracker.Person, 0, len(names))
	for _, name := range names {
		out = append(out, tracker.Person{Name: name})
	}
	return out
}

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "Event status")
	cmd.Flags().String("date", "", "Event date (YYYY-MM-DD, default today)")
	cmd.Flags().String("notes", "", "Free-text notes")
	cmd.Flags().Int("stage", 0, "Interview stage (interview only)")
	cmd.Flags().StringSlice("interviewer", nil, "Interviewer name (repeatable)")
	cmd.Flags().StringSlice("referral", nil, "Referral name (repeatable, applied only)")
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventAddCmd, eventUpdateCmd, eventDeleteCmd)
	addEventFlags(eventAddCmd)
	addEventFlags(eventUpdateCmd)
}
