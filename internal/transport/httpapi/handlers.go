package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	query, err := listingQueryFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.tracker.ListListings(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func listingQueryFrom(r *http.Request) (tracker.ListingQuery, error) {
	values := r.URL.Query()
	statuses, err := tracker.ParseStatuses(values.Get("status"))
	if err != nil {
		return tracker.ListingQuery{}, err
	}
	query := tracker.ListingQuery{
		Search:   values.Get("search"),
		Statuses: statuses,
		SortBy:   tracker.SortField(values.Get("sort_by")),
		SortDir:  tracker.SortDir(values.Get("sort_dir")),
	}
	if query.Page, err = intParam(values.Get("page")); err != nil {
		return tracker.ListingQuery{}, err
	}
	if query.Size, err = intParam(values.Get("size")); err != nil {
		return tracker.ListingQuery{}, err
	}
	return query, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Validationf("invalid integer %q", raw)
	}
	return value, nil
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var listing tracker.Listing
	if err := decodeJSON(w, r, &listing); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.tracker.CreateListing(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleClassifyDraft(w http.ResponseWriter, r *http.Request) {
	var draft tracker.Listing
	if err := decodeJSON(w, r, &draft); err != nil {
		s.writeError(w, r, err)
		return
	}
	classification, err := s.tracker.ClassifyDraft(r.Context(), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	listing, err := s.tracker.GetListingDetail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Notes *string `json:"notes"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	listing, err := s.tracker.UpdateListingNotes(r.Context(), id, body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ListingID uuid.UUID `json:"listing_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.ListingID == uuid.Nil {
		s.writeError(w, r, errs.Validationf("listing_id is required"))
		return
	}
	application, err := s.tracker.CreateApplication(r.Context(), body.ListingID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	application, err := s.tracker.GetApplication(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var event tracker.StatusEvent
	if err := decodeJSON(w, r, &event); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.tracker.CreateEvent(r.Context(), applicationID, event)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var event tracker.StatusEvent
	if err := decodeJSON(w, r, &event); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.tracker.UpdateEvent(r.Context(), applicationID, eventID, event)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tracker.DeleteEvent(r.Context(), applicationID, eventID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resume, err := s.tracker.GetResume(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		TemplateID string          `json:"template_id"`
		Sections   json.RawMessage `json:"sections"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	resume, err := s.tracker.UpdateResume(r.Context(), tracker.Resume{ID: id, TemplateID: body.TemplateID, Sections: body.Sections})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tracker.DeleteResume(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
