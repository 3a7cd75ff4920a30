package ports

import (
	"context"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
)

type ListingRepository interface {
	Get(ctx context.Context, id uuid.UUID) (tracker.Listing, error)
	GetByURL(ctx context.Context, url string) (tracker.Listing, bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]tracker.Listing, error)
	// Scan returns up to limit listings ordered by id, all of them when limit <= 0.
	Scan(ctx context.Context, limit int) ([]tracker.Listing, error)
	List(ctx context.Context, query tracker.ListingQuery) (tracker.Page[tracker.ListingSummary], error)
	Create(ctx context.Context, listing tracker.Listing) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) error
}

// EventRef locates a stored status event.
type EventRef struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Status        tracker.Status
}

type ApplicationRepository interface {
	// Get returns the application with its events in canonical order.
	Get(ctx context.Context, id uuid.UUID) (tracker.Application, error)
	GetByResume(ctx context.Context, resumeID uuid.UUID) (tracker.Application, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]tracker.Application, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, application tracker.Application) error
	UpdateProjection(ctx context.Context, id uuid.UUID, projection tracker.StatusProjection) error

	GetEventRef(ctx context.Context, eventID uuid.UUID) (EventRef, error)
	InsertEvent(ctx context.Context, applicationID uuid.UUID, event tracker.StatusEvent) error
	UpdateEvent(ctx context.Context, event tracker.StatusEvent) error
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
	// LatestEvents evaluates the SQL form of the canonical ordering.
	LatestEvents(ctx context.Context) (map[uuid.UUID]tracker.StatusProjection, error)
}

type ResumeRepository interface {
	Get(ctx context.Context, id uuid.UUID) (tracker.Resume, error)
	Create(ctx context.Context, resume tracker.Resume) error
	Update(ctx context.Context, resume tracker.Resume) error
	Delete(ctx context.Context, id uuid.UUID) error
}
