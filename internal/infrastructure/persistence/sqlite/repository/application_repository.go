package repository

import (
	"context"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

const applicationColumns = `a.id, a.listing_id, a.resume_id, a.current_status, a.last_status_at`

type ApplicationRepository struct {
	store    ports.RowStore
	ordering tracker.EventOrdering
}

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(store ports.RowStore) *ApplicationRepository {
	return &ApplicationRepository{store: store, ordering: tracker.CanonicalOrdering()}
}

func (r *ApplicationRepository) Get(ctx context.Context, id uuid.UUID) (tracker.Application, error) {
	apps, err := r.query(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = ?`, id.String())
	if err != nil {
		return tracker.Application{}, err
	}
	if len(apps) == 0 {
		return tracker.Application{}, errs.NotFoundf("application %s not found", id)
	}
	return apps[0], nil
}

func (r *ApplicationRepository) GetByResume(ctx context.Context, resumeID uuid.UUID) (tracker.Application, error) {
	apps, err := r.query(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.resume_id = ?`, resumeID.String())
	if err != nil {
		return tracker.Application{}, err
	}
	if len(apps) == 0 {
		return tracker.Application{}, errs.NotFoundf("no application found for resume %s", resumeID)
	}
	return apps[0], nil
}

func (r *ApplicationRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]tracker.Application, error) {
	return r.query(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.listing_id = ? ORDER BY a.id ASC`, listingID.String())
}

func (r *ApplicationRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.store.FetchAll(ctx, `SELECT id FROM applications ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.String("id"))
		if err != nil {
			return nil, errs.Wrapf(err, "parse application id %q", row.String("id"))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *ApplicationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, found, err := r.store.FetchOne(ctx, `SELECT id FROM applications WHERE id = ?`, id.String())
	return found, err
}

func (r *ApplicationRepository) Create(ctx context.Context, application tracker.Application) error {
	var resumeID any
	if application.ResumeID != nil {
		resumeID = application.ResumeID.String()
	}
	status := application.CurrentStatus
	if status == "" {
		status = tracker.StatusSaved
	}

	_, err := r.store.Execute(ctx, `INSERT INTO applications (id, listing_id, resume_id, current_status, last_status_at)
VALUES (?, ?, ?, ?, ?)`,
		application.ID.String(),
		application.ListingID.String(),
		resumeID,
		string(status),
		application.LastStatusAt.String(),
	)
	return err
}

func (r *ApplicationRepository) UpdateProjection(ctx context.Context, id uuid.UUID, projection tracker.StatusProjection) error {
	result, err := r.store.Execute(ctx, `UPDATE applications SET current_status = ?, last_status_at = ? WHERE id = ?`,
		string(projection.Status),
		projection.Date.String(),
		id.String(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("application %s not found", id)
	}
	return nil
}

func (r *ApplicationRepository) GetEventRef(ctx context.Context, eventID uuid.UUID) (ports.EventRef, error) {
	row, found, err := r.store.FetchOne(ctx, `SELECT id, application_id, status FROM status_events WHERE id = ?`, eventID.String())
	if err != nil {
		return ports.EventRef{}, err
	}
	if !found {
		return ports.EventRef{}, errs.NotFoundf("status event %s not found", eventID)
	}
	applicationID, err := uuid.Parse(row.String("application_id"))
	if err != nil {
		return ports.EventRef{}, errs.Wrapf(err, "parse application id of event %s", eventID)
	}
	return ports.EventRef{
		ID:            eventID,
		ApplicationID: applicationID,
		Status:        tracker.Status(row.String("status")),
	}, nil
}

func (r *ApplicationRepository) InsertEvent(ctx context.Context, applicationID uuid.UUID, event tracker.StatusEvent) error {
	payload, err := event.Payload()
	if err != nil {
		return err
	}
	_, err = r.store.Execute(ctx, `INSERT INTO status_events (id, application_id, status, date, notes, payload)
VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID.String(),
		applicationID.String(),
		string(event.Status),
		event.Date.String(),
		event.Notes,
		string(payload),
	)
	return err
}

func (r *ApplicationRepository) UpdateEvent(ctx context.Context, event tracker.StatusEvent) error {
	payload, err := event.Payload()
	if err != nil {
		return err
	}
	result, err := r.store.Execute(ctx, `UPDATE status_events SET status = ?, date = ?, notes = ?, payload = ? WHERE id = ?`,
		string(event.Status),
		event.Date.String(),
		event.Notes,
		string(payload),
		event.ID.String(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("status event %s not found", event.ID)
	}
	return nil
}

func (r *ApplicationRepository) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	result, err := r.store.Execute(ctx, `DELETE FROM status_events WHERE id = ?`, eventID.String())
	if err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("status event %s not found", eventID)
	}
	return nil
}

func (r *ApplicationRepository) LatestEvents(ctx context.Context) (map[uuid.UUID]tracker.StatusProjection, error) {
	rows, err := r.store.FetchAll(ctx, r.ordering.LatestApplicationEventsSQL())
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]tracker.StatusProjection, len(rows))
	for _, row := range rows {
		applicationID, err := uuid.Parse(row.String("application_id"))
		if err != nil {
			return nil, errs.Wrapf(err, "parse application id %q", row.String("application_id"))
		}
		date, err := tracker.ParseDate(row.String("date"))
		if err != nil {
			return nil, err
		}
		out[applicationID] = tracker.StatusProjection{Status: tracker.Status(row.String("status")), Date: date}
	}
	return out, nil
}

// query loads applications and attaches their events in canonical order.
func (r *ApplicationRepository) query(ctx context.Context, query string, params ...any) ([]tracker.Application, error) {
	rows, err := r.store.FetchAll(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []tracker.Application{}, nil
	}

	apps := make([]tracker.Application, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		app, err := applicationFromRow(row)
		if err != nil {
			return nil, err
		}
		index[app.ID] = len(apps)
		apps = append(apps, app)
		ids = append(ids, app.ID.String())
	}

	eventRows, err := r.store.FetchAll(ctx, `SELECT id, application_id, status, date, notes, payload
FROM status_events WHERE application_id IN (`+placeholders(len(ids))+`)`, ids...)
	if err != nil {
		return nil, err
	}
	for _, row := range eventRows {
		event, err := tracker.DecodeStoredEvent(
			row.String("id"),
			row.String("status"),
			row.String("date"),
			row.NullString("notes"),
			row.Bytes("payload"),
		)
		if err != nil {
			return nil, errs.Wrapf(err, "decode status event %s", row.String("id"))
		}
		applicationID, err := uuid.Parse(row.String("application_id"))
		if err != nil {
			return nil, errs.Wrapf(err, "parse application id of event %s", row.String("id"))
		}
		if i, ok := index[applicationID]; ok {
			apps[i].StatusEvents = append(apps[i].StatusEvents, event)
		}
	}

	for i := range apps {
		r.ordering.Sort(apps[i].StatusEvents)
	}
	return apps, nil
}

func applicationFromRow(row ports.Row) (tracker.Application, error) {
	id, err := uuid.Parse(row.String("id"))
	if err != nil {
		return tracker.Application{}, errs.Wrapf(err, "parse application id %q", row.String("id"))
	}
	listingID, err := uuid.Parse(row.String("listing_id"))
	if err != nil {
		return tracker.Application{}, errs.Wrapf(err, "parse listing id of application %s", id)
	}
	app := tracker.Application{
		ID:            id,
		ListingID:     listingID,
		StatusEvents:  []tracker.StatusEvent{},
		CurrentStatus: tracker.Status(row.String("current_status")),
	}
	if raw := row.NullString("resume_id"); raw != nil && *raw != "" {
		resumeID, err := uuid.Parse(*raw)
		if err != nil {
			return tracker.Application{}, errs.Wrapf(err, "parse resume id of application %s", id)
		}
		app.ResumeID = &resumeID
	}
	if raw := row.String("last_status_at"); raw != "" {
		date, err := tracker.ParseDate(raw)
		if err != nil {
			return tracker.Application{}, err
		}
		app.LastStatusAt = date
	}
	return app, nil
}
