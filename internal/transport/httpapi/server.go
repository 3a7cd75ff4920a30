package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

// Tracker is the service surface exposed over HTTP.
type Tracker interface {
	ListListings(ctx context.Context, query tracker.ListingQuery) (tracker.Page[tracker.ListingSummary], error)
	CreateListing(ctx context.Context, listing tracker.Listing) (tracker.Listing, error)
	GetListingDetail(ctx context.Context, id uuid.UUID) (tracker.Listing, error)
	UpdateListingNotes(ctx context.Context, id uuid.UUID, notes *string) (tracker.Listing, error)
	ClassifyDraft(ctx context.Context, draft tracker.Listing) (tracker.DraftClassification, error)

	CreateApplication(ctx context.Context, listingID uuid.UUID) (tracker.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (tracker.Application, error)
	CreateEvent(ctx context.Context, applicationID uuid.UUID, event tracker.StatusEvent) (tracker.StatusEvent, error)
	UpdateEvent(ctx context.Context, applicationID, eventID uuid.UUID, event tracker.StatusEvent) (tracker.StatusEvent, error)
	DeleteEvent(ctx context.Context, applicationID, eventID uuid.UUID) error

	GetResume(ctx context.Context, id uuid.UUID) (tracker.Resume, error)
	UpdateResume(ctx context.Context, resume tracker.Resume) (tracker.Resume, error)
	DeleteResume(ctx context.Context, id uuid.UUID) error
}

type Server struct {
	tracker Tracker
	router  chi.Router
	logCtx  context.Context
}

func New(ctx context.Context, svc Tracker) *Server {
	s := &Server{
		tracker: svc,
		router:  chi.NewRouter(),
		logCtx:  logging.WithAttrs(ctx, slog.String("component", "transport.httpapi")),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/listings", func(r chi.Router) {
		r.Get("/", s.handleListListings)
		r.Post("/", s.handleCreateListing)
		r.Post("/similar", s.handleClassifyDraft)
		r.Get("/{id}", s.handleGetListing)
		r.Patch("/{id}/notes", s.handleUpdateNotes)
	})

	s.router.Route("/applications", func(r chi.Router) {
		r.Post("/", s.handleCreateApplication)
		r.Get("/{id}", s.handleGetApplication)
		r.Post("/{id}/events", s.handleCreateEvent)
		r.Put("/{id}/events/{eventID}", s.handleUpdateEvent)
		r.Delete("/{id}/events/{eventID}", s.handleDeleteEvent)
	})

	s.router.Route("/resumes", func(r chi.Router) {
		r.Get("/{id}", s.handleGetResume)
		r.Put("/{id}", s.handleUpdateResume)
		r.Delete("/{id}", s.handleDeleteResume)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(s.logCtx, "http server listening", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(s.logCtx, "http server stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusUnprocessableEntity
	case errs.KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.Error(s.logCtx, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", errs.Loggable(err)),
		)
		if errs.IsStorage(err) {
			message = "storage failure"
		}
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(out); err != nil {
		// Domain decoders already report validation errors.
		if errs.KindOf(err) == errs.KindValidation {
			return err
		}
		return errs.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.Validationf("invalid %s %q", name, raw)
	}
	return id, nil
}
