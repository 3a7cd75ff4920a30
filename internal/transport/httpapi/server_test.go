package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

type stubTracker struct {
	Tracker
	listing   tracker.Listing
	err       error
	lastQuery tracker.ListingQuery
	lastEvent tracker.StatusEvent
	lastApp   uuid.UUID
}

func (s *stubTracker) ListListings(_ context.Context, query tracker.ListingQuery) (tracker.Page[tracker.ListingSummary], error) {
	s.lastQuery = query
	return tracker.NewPage([]tracker.ListingSummary{{ID: s.listing.ID, Title: s.listing.Title}}, 1, 1, 20), s.err
}

func (s *stubTracker) CreateListing(_ context.Context, listing tracker.Listing) (tracker.Listing, error) {
	if s.err != nil {
		return tracker.Listing{}, s.err
	}
	listing.ID = s.listing.ID
	return listing, nil
}

func (s *stubTracker) GetListingDetail(_ context.Context, id uuid.UUID) (tracker.Listing, error) {
	if id != s.listing.ID {
		return tracker.Listing{}, errs.NotFoundf("listing %s not found", id)
	}
	return s.listing, nil
}

func (s *stubTracker) CreateEvent(_ context.Context, applicationID uuid.UUID, event tracker.StatusEvent) (tracker.StatusEvent, error) {
	s.lastApp = applicationID
	s.lastEvent = event
	if s.err != nil {
		return tracker.StatusEvent{}, s.err
	}
	event.ID = uuid.New()
	return event, nil
}

func newTestServer() (*stubTracker, *Server) {
	stub := &stubTracker{listing: tracker.Listing{ID: uuid.New(), Title: "Backend Engineer", Company: "Acme"}}
	return stub, New(context.Background(), stub)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestStatusForKinds(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.NotFoundf("missing"), http.StatusNotFound},
		{errs.Validationf("bad"), http.StatusUnprocessableEntity},
		{tracker.ErrSavedEventExists, http.StatusConflict},
		{errs.Storage("execute", errors.New("disk I/O error")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestGetListing(t *testing.T) {
	stub, server := newTestServer()

	rec := do(t, server, http.MethodGet, "/listings/"+stub.listing.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET listing status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got tracker.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if got.ID != stub.listing.ID {
		t.Fatalf("GET listing id = %v, want %v", got.ID, stub.listing.ID)
	}

	rec = do(t, server, http.MethodGet, "/listings/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound || !strings.Contains(errorBody(t, rec), "not found") {
		t.Fatalf("GET missing listing = %d %s, want 404", rec.Code, rec.Body.String())
	}

	rec = do(t, server, http.MethodGet, "/listings/not-a-uuid", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("GET bad id status = %d, want 422", rec.Code)
	}
}

func TestListListingsParsesQuery(t *testing.T) {
	stub, server := newTestServer()

	rec := do(t, server, http.MethodGet, "/listings/?search=go&status=applied,interview&sort_by=title&sort_dir=asc&page=2&size=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET listings status = %d, body %s", rec.Code, rec.Body.String())
	}
	q := stub.lastQuery
	if q.Search != "go" || len(q.Statuses) != 2 || q.SortBy != tracker.SortTitle || q.SortDir != tracker.SortAsc || q.Page != 2 || q.Size != 5 {
		t.Fatalf("ListListings() query = %+v", q)
	}

	rec = do(t, server, http.MethodGet, "/listings/?status=hired", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("GET listings bad status = %d, want 422", rec.Code)
	}
}

func TestCreateListingConflict(t *testing.T) {
	stub, server := newTestServer()
	stub.err = errs.Duplicatef("listing with url https://jobs.example/1 already exists")

	rec := do(t, server, http.MethodPost, "/listings/", `{"url":"https://jobs.example/1","title":"SRE","company":"Acme"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("POST listing status = %d, want 409", rec.Code)
	}
}

func TestCreateEventDecodesFlatWireForm(t *testing.T) {
	stub, server := newTestServer()
	appID := uuid.New()

	rec := do(t, server, http.MethodPost, "/applications/"+appID.String()+"/events",
		`{"status":"interview","date":"2024-02-01","stage":2,"interviewers":[{"name":"Grace"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST event status = %d, body %s", rec.Code, rec.Body.String())
	}
	if stub.lastApp != appID {
		t.Fatalf("CreateEvent() application = %v, want %v", stub.lastApp, appID)
	}
	if stage, ok := stub.lastEvent.Stage(); !ok || stage != 2 {
		t.Fatalf("CreateEvent() stage = (%d, %v), want (2, true)", stage, ok)
	}

	rec = do(t, server, http.MethodPost, "/applications/"+appID.String()+"/events", `{"status":"interview","date":"2024-02-01"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("POST event without stage status = %d, want 422", rec.Code)
	}

	rec = do(t, server, http.MethodPost, "/applications/"+appID.String()+"/events", `{`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("POST malformed event status = %d, want 422", rec.Code)
	}
}

func TestStorageErrorsAreNotLeaked(t *testing.T) {
	stub, server := newTestServer()
	stub.err = errs.Storage("execute", errors.New("database is locked"))

	rec := do(t, server, http.MethodPost, "/applications/"+uuid.NewString()+"/events", `{"status":"ghosted","date":"2024-03-01"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("POST event status = %d, want 500", rec.Code)
	}
	if got := errorBody(t, rec); got != "storage failure" {
		t.Fatalf("error body = %q, want storage failure", got)
	}
}
