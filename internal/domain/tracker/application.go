package tracker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Application is the pursuit of one Listing. StatusEvents are kept in the
// canonical ascending order; CurrentStatus and LastStatusAt mirror the last one.
type Application struct {
	ID            uuid.UUID     `json:"id"`
	ListingID     uuid.UUID     `json:"listing_id"`
	ResumeID      *uuid.UUID    `json:"resume_id,omitempty"`
	StatusEvents  []StatusEvent `json:"status_events"`
	CurrentStatus Status        `json:"current_status"`
	LastStatusAt  Date          `json:"last_status_at"`
}

// StatusProjection is the denormalised copy of the latest event.
type StatusProjection struct {
	Status Status `json:"status"`
	Date   Date   `json:"date"`
}

func (a Application) Projection() StatusProjection {
	return StatusProjection{Status: a.CurrentStatus, Date: a.LastStatusAt}
}

// ProjectionOf derives the projection from events in any order.
func ProjectionOf(events []StatusEvent) (StatusProjection, bool) {
	latest, ok := CanonicalOrdering().Latest(events)
	if !ok {
		return StatusProjection{}, false
	}
	return StatusProjection{Status: latest.Status, Date: latest.Date}, true
}

// Resume is created empty alongside every Application. Sections stay opaque.
type Resume struct {
	ID         uuid.UUID       `json:"id"`
	TemplateID string          `json:"template_id"`
	Sections   json.RawMessage `json:"sections"`
}

func NewResume(templateID string) Resume {
	return Resume{
		ID:         uuid.New(),
		TemplateID: templateID,
		Sections:   json.RawMessage("[]"),
	}
}

// StatusChanged is published after a commit that touched an application's timeline.
type StatusChanged struct {
	ApplicationID uuid.UUID `json:"application_id"`
	ListingID     uuid.UUID `json:"listing_id"`
	Status        Status    `json:"status"`
	LastStatusAt  Date      `json:"last_status_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// StatusDrift is an application whose stored projection disagrees with its events.
type StatusDrift struct {
	ApplicationID uuid.UUID        `json:"application_id"`
	Stored        StatusProjection `json:"stored"`
	Expected      StatusProjection `json:"expected"`
	SQLLatest     StatusProjection `json:"sql_latest"`
	Fixed         bool             `json:"fixed"`
}

// AuditReport summarises a projection audit.
type AuditReport struct {
	Checked int           `json:"checked"`
	Drifts  []StatusDrift `json:"drifts"`
}
