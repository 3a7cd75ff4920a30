package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Job listing commands",
}

var listingCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a listing and index it for duplicate search",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		listing, err := listingFromFlags(cmd)
		if err != nil {
			return err
		}
		created, err := svc.Tracker.CreateListing(ctx, listing)
		if err != nil {
			return err
		}
		return writeJSON(cmd, created)
	}),
}

var listingSimilarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Check whether a draft listing duplicates a stored one",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		draft, err := listingFromFlags(cmd)
		if err != nil {
			return err
		}
		classification, err := svc.Tracker.ClassifyDraft(ctx, draft)
		if err != nil {
			return err
		}
		return writeJSON(cmd, classification)
	}),
}

var listingShowCmd = &cobra.Command{
	Use:   "show <listing-id>",
	Short: "Show a listing with its applications",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := parseID("listing id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		listing, err := svc.Tracker.GetListingDetail(ctx, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd, listing)
	}),
}

var listingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List listings with their current status",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		search, _ := cmd.Flags().GetString("search")
		statusFilter, _ := cmd.Flags().GetString("status")
		sortBy, _ := cmd.Flags().GetString("sort-by")
		sortDir, _ := cmd.Flags().GetString("sort-dir")
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")

		statuses, err := tracker.ParseStatuses(statusFilter)
		if err != nil {
			return err
		}
		result, err := svc.Tracker.ListListings(ctx, tracker.ListingQuery{
			Search:   search,
			Statuses: statuses,
			SortBy:   tracker.SortField(sortBy),
			SortDir:  tracker.SortDir(sortDir),
			Page:     page,
			Size:     size,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, item := range result.Items {
			status := "-"
			if item.CurrentStatus != nil {
				status = string(*item.CurrentStatus)
			}
			if _, err := fmt.Fprintf(out, "%s  %-14s %s @ %s\n", item.ID, status, item.Title, item.Company); err != nil {
				return errs.Wrap(err, "write listing output")
			}
		}
		if _, err := fmt.Fprintf(out, "page %d/%d, %d listings\n", result.Page, result.Pages, result.Total); err != nil {
			return errs.Wrap(err, "write listing output")
		}
		return nil
	}),
}

var listingNotesCmd = &cobra.Command{
	Use:   "notes <listing-id>",
	Short: "Set or clear the notes of a listing",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := parseID("listing id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		var notes *string
		if cmd.Flags().Changed("set") {
			value, _ := cmd.Flags().GetString("set")
			notes = &value
		}
		listing, err := svc.Tracker.UpdateListingNotes(ctx, id, notes)
		if err != nil {
			return err
		}
		return writeJSON(cmd, listing)
	}),
}

var listingReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the duplicate search index from stored listings",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		count, err := svc.Tracker.ReindexListings(ctx)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d listings\n", count); err != nil {
			return errs.Wrap(err, "write reindex output")
		}
		return nil
	}),
}

func listingFromFlags(cmd *cobra.Command) (tracker.Listing, error) {
	url, _ := cmd.Flags().GetString("url")
	title, _ := cmd.Flags().GetString("title")
	company, _ := cmd.Flags().GetString("company")
	domain, _ := cmd.Flags().GetString("domain")
	location, _ := cmd.Flags().GetString("location")
	description, _ := cmd.Flags().GetString("description")
	postedDate, _ := cmd.Flags().GetString("posted-date")
	skills, _ := cmd.Flags().GetStringSlice("skill")
	requirements, _ := cmd.Flags().GetStringSlice("requirement")

	listing := tracker.Listing{
		URL:          url,
		Title:        title,
		Company:      company,
		Domain:       domain,
		Description:  description,
		Skills:       skills,
		Requirements: requirements,
	}
	if location != "" {
		listing.Location = &location
	}
	if postedDate != "" {
		date, err := tracker.ParseDate(postedDate)
		if err != nil {
			return tracker.Listing{}, err
		}
		listing.PostedDate = &date
	}
	return listing, nil
}

func addListingFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Listing url")
	cmd.Flags().String("title", "", "Job title")
	cmd.Flags().String("company", "", "Company name")
	cmd.Flags().String("domain", "", "Business domain")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().String("description", "", "Free-text description")
	cmd.Flags().String("posted-date", "", "Posting date (YYYY-MM-DD)")
	cmd.Flags().StringSlice("skill", nil, "Skill (repeatable)")
	cmd.Flags().StringSlice("requirement", nil, "Requirement (repeatable)")
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.Validationf("invalid %s %q", name, raw)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(listingCmd)
	listingCmd.AddCommand(listingCreateCmd, listingSimilarCmd, listingShowCmd, listingListCmd, listingNotesCmd, listingReindexCmd)

	addListingFlags(listingCreateCmd)
	addListingFlags(listingSimilarCmd)

	listingListCmd.Flags().String("search", "", "Match title, company or domain")
	listingListCmd.Flags().String("status", "", "Comma separated current statuses")
	listingListCmd.Flags().String("sort-by", "", "title|company|posted_at|last_status_at")
	listingListCmd.Flags().String("sort-dir", "", "asc|desc")
	listingListCmd.Flags().Int("page", 1, "Page number")
	listingListCmd.Flags().Int("size", tracker.DefaultPageSize, "Page size")

	listingNotesCmd.Flags().String("set", "", "New notes; omit to clear")
}
