package seed

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

// Tracker is what seeding needs from the tracker service. Going through it
// keeps every invariant and status sync in force.
type Tracker interface {
	GetListingByURL(ctx context.Context, rawURL string) (tracker.Listing, bool, error)
	CreateListing(ctx context.Context, listing tracker.Listing) (tracker.Listing, error)
	CreateApplication(ctx context.Context, listingID uuid.UUID) (tracker.Application, error)
	CreateEvent(ctx context.Context, applicationID uuid.UUID, event tracker.StatusEvent) (tracker.StatusEvent, error)
}

type Result struct {
	Listings     int
	Skipped      int
	Applications int
	Events       int
}

// Apply creates every listing of fixture whose url is not stored yet,
// together with its applications and events. Saved events are managed by
// the tracker and are ignored.
func Apply(ctx context.Context, svc Tracker, fixture Fixture) (Result, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.seed"))

	var result Result
	for i, item := range fixture.Listings {
		listing, err := item.Listing()
		if err != nil {
			return result, errs.Wrapf(err, "listing %d", i)
		}
		if _, found, err := svc.GetListingByURL(ctx, listing.URL); err != nil {
			return result, err
		} else if found {
			result.Skipped++
			logging.Info(logCtx, "seed listing exists, skipped", slog.String("url", listing.URL))
			continue
		}

		created, err := svc.CreateListing(ctx, listing)
		if err != nil {
			return result, errs.Wrapf(err, "create listing %s", listing.URL)
		}
		result.Listings++

		for _, appFixture := range item.Applications {
			app, err := svc.CreateApplication(ctx, created.ID)
			if err != nil {
				return result, errs.Wrapf(err, "create application for %s", created.ID)
			}
			result.Applications++

			for _, eventFixture := range appFixture.Events {
				event, err := eventFixture.Event()
				if err != nil {
					return result, errs.Wrapf(err, "application %s", app.ID)
				}
				if event.Status == tracker.StatusSaved {
					continue
				}
				if _, err := svc.CreateEvent(ctx, app.ID, event); err != nil {
					return result, errs.Wrapf(err, "create %s event for %s", event.Status, app.ID)
				}
				result.Events++
			}
		}
	}

	logging.Info(logCtx, "seed applied",
		slog.Int("listings", result.Listings),
		slog.Int("skipped", result.Skipped),
		slog.Int("applications", result.Applications),
		slog.Int("events", result.Events),
	)
	return result, nil
}
