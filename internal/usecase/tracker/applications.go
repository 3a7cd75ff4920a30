package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"applytrack/internal/bootstrap/logging"
	domaintracker "applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (domaintracker.Application, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Application{}, err
	}
	return s.applications.Get(ctx, id)
}

func (s *Service) GetApplicationByResume(ctx context.Context, resumeID uuid.UUID) (domaintracker.Application, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Application{}, err
	}
	return s.applications.GetByResume(ctx, resumeID)
}

func (s *Service) ListApplicationsForListing(ctx context.Context, listingID uuid.UUID) ([]domaintracker.Application, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return s.applications.ListByListing(ctx, listingID)
}

// CreateApplication opens an application on an existing listing together
// with an empty resume and the initial saved event.
func (s *Service) CreateApplication(ctx context.Context, listingID uuid.UUID) (domaintracker.Application, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Application{}, err
	}

	var application domaintracker.Application
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.listings.Get(txCtx, listingID); err != nil {
			return err
		}

		resume := domaintracker.NewResume(s.defaultTemplate)
		if err := s.resumes.Create(txCtx, resume); err != nil {
			return err
		}

		created := domaintracker.Application{
			ID:            uuid.New(),
			ListingID:     listingID,
			ResumeID:      &resume.ID,
			CurrentStatus: domaintracker.StatusSaved,
			LastStatusAt:  domaintracker.DateOf(s.now()),
		}
		if err := s.applications.Create(txCtx, created); err != nil {
			return err
		}

		var err error
		application, err = s.syncStatus(txCtx, created.ID)
		return err
	})
	if err != nil {
		return domaintracker.Application{}, err
	}

	logging.Info(s.logCtx(ctx), "application created",
		slog.String("application_id", application.ID.String()),
		slog.String("listing_id", listingID.String()),
	)
	s.publish(ctx, application)
	return application, nil
}

// CreateEvent appends event to the application's timeline. A zero id or
// date is filled in; saved events cannot be created by hand.
func (s *Service) CreateEvent(ctx context.Context, applicationID uuid.UUID, event domaintracker.StatusEvent) (domaintracker.StatusEvent, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.StatusEvent{}, err
	}
	if err := domaintracker.GuardManagedEvent(domaintracker.EventCreate, "", event.Status); err != nil {
		return domaintracker.StatusEvent{}, err
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Date.IsZero() {
		event.Date = domaintracker.DateOf(s.now())
	}
	event = event.Normalize()
	if err := event.Validate(); err != nil {
		return domaintracker.StatusEvent{}, err
	}

	var application domaintracker.Application
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.applications.Exists(txCtx, applicationID)
		if err != nil {
			return err
		}
		if !exists {
			return errs.NotFoundf("application %s not found", applicationID)
		}
		if err := s.applications.InsertEvent(txCtx, applicationID, event); err != nil {
			return err
		}
		application, err = s.syncStatus(txCtx, applicationID)
		return err
	})
	if err != nil {
		return domaintracker.StatusEvent{}, err
	}

	s.publish(ctx, application)
	return event, nil
}

// UpdateEvent replaces a stored event of applicationID. The saved event is
// immutable.
func (s *Service) UpdateEvent(ctx context.Context, applicationID, eventID uuid.UUID, event domaintracker.StatusEvent) (domaintracker.StatusEvent, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.StatusEvent{}, err
	}
	event.ID = eventID
	event = event.Normalize()
	if err := event.Validate(); err != nil {
		return domaintracker.StatusEvent{}, err
	}

	var application domaintracker.Application
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		ref, err := s.eventOf(txCtx, applicationID, eventID)
		if err != nil {
			return err
		}
		if err := domaintracker.GuardManagedEvent(domaintracker.EventUpdate, ref.Status, event.Status); err != nil {
			return err
		}
		if err := s.applications.UpdateEvent(txCtx, event); err != nil {
			return err
		}
		application, err = s.syncStatus(txCtx, applicationID)
		return err
	})
	if err != nil {
		return domaintracker.StatusEvent{}, err
	}

	s.publish(ctx, application)
	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, applicationID, eventID uuid.UUID) error {
	if err := requireContext(ctx); err != nil {
		return err
	}

	var application domaintracker.Application
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		ref, err := s.eventOf(txCtx, applicationID, eventID)
		if err != nil {
			return err
		}
		if err := domaintracker.GuardManagedEvent(domaintracker.EventDelete, ref.Status, ""); err != nil {
			return err
		}
		if err := s.applications.DeleteEvent(txCtx, eventID); err != nil {
			return err
		}
		application, err = s.syncStatus(txCtx, applicationID)
		return err
	})
	if err != nil {
		return err
	}

	s.publish(ctx, application)
	return nil
}

func (s *Service) eventOf(ctx context.Context, applicationID, eventID uuid.UUID) (eventRef, error) {
	ref, err := s.applications.GetEventRef(ctx, eventID)
	if err != nil {
		return eventRef{}, err
	}
	if ref.ApplicationID != applicationID {
		return eventRef{}, errs.NotFoundf("status event %s not found on application %s", eventID, applicationID)
	}
	return eventRef{Status: ref.Status}, nil
}

type eventRef struct {
	Status domaintracker.Status
}

// SyncStatus makes the application's projection match its last canonical
// event, inserting the saved event first when the timeline is empty. It
// joins the caller's transaction when there is one.
func (s *Service) SyncStatus(ctx context.Context, applicationID uuid.UUID) (domaintracker.Application, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Application{}, err
	}
	var application domaintracker.Application
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		application, err = s.syncStatus(txCtx, applicationID)
		return err
	})
	if err != nil {
		return domaintracker.Application{}, err
	}
	return application, nil
}

func (s *Service) syncStatus(ctx context.Context, applicationID uuid.UUID) (domaintracker.Application, error) {
	application, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return domaintracker.Application{}, err
	}

	if len(application.StatusEvents) == 0 {
		saved := domaintracker.NewSavedEvent(s.now())
		if err := s.applications.InsertEvent(ctx, applicationID, saved); err != nil {
			return domaintracker.Application{}, err
		}
		application.StatusEvents = []domaintracker.StatusEvent{saved}
	}

	projection, _ := domaintracker.ProjectionOf(application.StatusEvents)
	if err := s.applications.UpdateProjection(ctx, applicationID, projection); err != nil {
		return domaintracker.Application{}, err
	}
	application.CurrentStatus = projection.Status
	application.LastStatusAt = projection.Date
	return application, nil
}

// AuditStatuses compares every stored projection with both the in-process
// and the SQL ordering. With fix set, drifting applications are resynced.
func (s *Service) AuditStatuses(ctx context.Context, fix bool) (domaintracker.AuditReport, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.AuditReport{}, err
	}
	logCtx := s.logCtx(ctx)

	ids, err := s.applications.ListIDs(ctx)
	if err != nil {
		return domaintracker.AuditReport{}, err
	}
	sqlLatest, err := s.applications.LatestEvents(ctx)
	if err != nil {
		return domaintracker.AuditReport{}, err
	}

	report := domaintracker.AuditReport{Checked: len(ids), Drifts: []domaintracker.StatusDrift{}}
	for _, id := range ids {
		application, err := s.applications.Get(ctx, id)
		if err != nil {
			return domaintracker.AuditReport{}, err
		}
		expected, hasEvents := domaintracker.ProjectionOf(application.StatusEvents)
		stored := application.Projection()
		fromSQL := sqlLatest[id]
		if hasEvents && sameProjection(stored, expected) && sameProjection(fromSQL, expected) {
			continue
		}

		drift := domaintracker.StatusDrift{
			ApplicationID: id,
			Stored:        stored,
			Expected:      expected,
			SQLLatest:     fromSQL,
		}
		if fix {
			if _, err := s.SyncStatus(ctx, id); err != nil {
				return domaintracker.AuditReport{}, errs.Wrapf(err, "resync application %s", id)
			}
			drift.Fixed = true
		}
		logging.Warn(logCtx, "status projection drift",
			slog.String("application_id", id.String()),
			slog.String("stored", string(stored.Status)),
			slog.String("expected", string(expected.Status)),
			slog.String("sql_latest", string(fromSQL.Status)),
			slog.Bool("fixed", drift.Fixed),
		)
		report.Drifts = append(report.Drifts, drift)
	}
	return report, nil
}

func sameProjection(a, b domaintracker.StatusProjection) bool {
	return a.Status == b.Status && a.Date.Compare(b.Date) == 0
}
