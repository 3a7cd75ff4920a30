package cmd

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func newEventFlagsCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	addEventFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return cmd
}

func TestEventFromFlagsInterview(t *testing.T) {
	cmd := newEventFlagsCommand(t,
		"--status", "interview",
		"--date", "2024-02-01",
		"--stage", "2",
		"--interviewer", "Ada",
		"--interviewer", "Grace",
		"--notes", "onsite",
	)

	event, err := eventFromFlags(cmd)
	if err != nil {
		t.Fatalf("eventFromFlags() error = %v", err)
	}
	if event.Status != tracker.StatusInterview {
		t.Fatalf("Status = %q, want %q", event.Status, tracker.StatusInterview)
	}
	if event.Date.String() != "2024-02-01" {
		t.Fatalf("Date = %s, want 2024-02-01", event.Date)
	}
	details, ok := event.Details.(tracker.InterviewDetails)
	if !ok {
		t.Fatalf("Details = %T, want InterviewDetails", event.Details)
	}
	if details.Stage != 2 || len(details.Interviewers) != 2 || details.Interviewers[1].Name != "Grace" {
		t.Fatalf("Details = %+v, want stage 2 with two interviewers", details)
	}
	if event.Notes == nil || *event.Notes != "onsite" {
		t.Fatalf("Notes = %v, want onsite", event.Notes)
	}
}

func TestEventFromFlagsAppliedWithoutReferrals(t *testing.T) {
	cmd := newEventFlagsCommand(t, "--status", "applied")

	event, err := eventFromFlags(cmd)
	if err != nil {
		t.Fatalf("eventFromFlags() error = %v", err)
	}
	if event.Details != nil {
		t.Fatalf("Details = %#v, want nil", event.Details)
	}
	if !event.Date.IsZero() {
		t.Fatalf("Date = %s, want zero so the service fills today", event.Date)
	}
}

func TestEventFromFlagsRejectsUnknownStatus(t *testing.T) {
	cmd := newEventFlagsCommand(t, "--status", "hired")

	if _, err := eventFromFlags(cmd); err == nil {
		t.Fatalf("eventFromFlags() expected error for unknown status")
	}
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID("listing id", id.String())
	if err != nil {
		t.Fatalf("parseID() error = %v", err)
	}
	if got != id {
		t.Fatalf("parseID() = %s, want %s", got, id)
	}

	_, err = parseID("listing id", "nope")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("parseID() error = %v, want validation", err)
	}
}

func TestListingFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addListingFlags(cmd)
	if err := cmd.ParseFlags([]string{
		"--url", "https://example.com/jobs/1",
		"--title", "Backend Engineer",
		"--company", "Acme",
		"--location", "Remote",
		"--posted-date", "2024-03-04",
		"--skill", "go,sql",
	}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	listing, err := listingFromFlags(cmd)
	if err != nil {
		t.Fatalf("listingFromFlags() error = %v", err)
	}
	if listing.Location == nil || *listing.Location != "Remote" {
		t.Fatalf("Location = %v, want Remote", listing.Location)
	}
	if listing.PostedDate == nil || listing.PostedDate.String() != "2024-03-04" {
		t.Fatalf("PostedDate = %v, want 2024-03-04", listing.PostedDate)
	}
	if len(listing.Skills) != 2 || listing.Skills[0] != "go" {
		t.Fatalf("Skills = %v, want [go sql]", listing.Skills)
	}
}
