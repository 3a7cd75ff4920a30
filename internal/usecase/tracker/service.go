package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"applytrack/internal/bootstrap/logging"
	domaintracker "applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

const defaultCollection = "listings"

// DuplicateFinder reports the stored listing a candidate duplicates, if any.
type DuplicateFinder interface {
	FindSimilar(ctx context.Context, candidate domaintracker.Listing) (domaintracker.Listing, bool, error)
}

type Deps struct {
	Listings     ports.ListingRepository
	Applications ports.ApplicationRepository
	Resumes      ports.ResumeRepository
	UnitOfWork   ports.UnitOfWork
	Index        ports.VectorIndex
	Duplicates   DuplicateFinder
	Publisher    ports.StatusPublisher
}

type Options struct {
	Collection      string
	DefaultTemplate string
	Now             func() time.Time
}

// Service owns every mutation of listings, applications and status events.
// Mutations touching a timeline resynchronise the application's projection
// before their transaction commits.
type Service struct {
	listings     ports.ListingRepository
	applications ports.ApplicationRepository
	resumes      ports.ResumeRepository
	uow          ports.UnitOfWork
	index        ports.VectorIndex
	duplicates   DuplicateFinder
	publisher    ports.StatusPublisher

	collection      string
	defaultTemplate string
	now             func() time.Time
}

func NewService(deps Deps, opts Options) (*Service, error) {
	switch {
	case deps.Listings == nil:
		return nil, errors.New("listing repository is required")
	case deps.Applications == nil:
		return nil, errors.New("application repository is required")
	case deps.Resumes == nil:
		return nil, errors.New("resume repository is required")
	case deps.UnitOfWork == nil:
		return nil, errors.New("unit of work is required")
	case deps.Index == nil:
		return nil, errors.New("vector index is required")
	case deps.Duplicates == nil:
		return nil, errors.New("duplicate finder is required")
	}

	s := &Service{
		listings:        deps.Listings,
		applications:    deps.Applications,
		resumes:         deps.Resumes,
		uow:             deps.UnitOfWork,
		index:           deps.Index,
		duplicates:      deps.Duplicates,
		publisher:       deps.Publisher,
		collection:      opts.Collection,
		defaultTemplate: opts.DefaultTemplate,
		now:             opts.Now,
	}
	if s.collection == "" {
		s.collection = defaultCollection
	}
	if s.defaultTemplate == "" {
		s.defaultTemplate = "classic"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) logCtx(ctx context.Context) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.tracker"))
}

// publish notifies subscribers after commit. Failures are logged only.
func (s *Service) publish(ctx context.Context, application domaintracker.Application) {
	if s.publisher == nil {
		return
	}
	event := domaintracker.StatusChanged{
		ApplicationID: application.ID,
		ListingID:     application.ListingID,
		Status:        application.CurrentStatus,
		LastStatusAt:  application.LastStatusAt,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.PublishStatusChanged(ctx, event); err != nil {
		logging.Warn(s.logCtx(ctx), "publish status change failed",
			slog.String("application_id", application.ID.String()),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func requireContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
