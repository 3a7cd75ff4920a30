package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
)

// syntheticEvents covers equal dates, equal priorities, staged and unstaged
// interviews and statuses on both ends of the priority table.
func syntheticEvents(rng *rand.Rand, n int) []tracker.StatusEvent {
	dates := []string{"2024-01-01", "2024-01-02", "2024-02-01"}
	statuses := tracker.Statuses()
	events := make([]tracker.StatusEvent, 0, n)
	for i := 0; i < n; i++ {
		event := tracker.StatusEvent{
			ID:     uuid.New(),
			Status: statuses[rng.Intn(len(statuses))],
			Date:   tracker.MustDate(dates[rng.Intn(len(dates))]),
		}
		switch event.Status {
		case tracker.StatusInterview:
			event.Details = tracker.InterviewDetails{Stage: 1 + rng.Intn(3)}
		case tracker.StatusApplied:
			if rng.Intn(2) == 0 {
				event.Details = tracker.AppliedDetails{Referrals: []tracker.Person{{Name: "Ref"}}}
			}
		}
		events = append(events, event)
	}
	return events
}

func TestOrderingSQLAgreesWithComparator(t *testing.T) {
	db := setupDB(t)
	store := NewStore(db)
	apps := NewApplicationRepository(store)
	ordering := tracker.CanonicalOrdering()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		appID := uuid.New()
		if err := apps.Create(ctx, tracker.Application{ID: appID, ListingID: uuid.New()}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		events := syntheticEvents(rng, 2+rng.Intn(8))
		for _, event := range events {
			if err := apps.InsertEvent(ctx, appID, event); err != nil {
				t.Fatalf("InsertEvent() error = %v", err)
			}
		}

		want := ordering.Sorted(events)

		rows, err := store.FetchAll(ctx, fmt.Sprintf(
			`SELECT se.id FROM status_events se WHERE se.application_id = ? ORDER BY %s`,
			ordering.OrderBySQL(tracker.StatusEventColumns, false),
		), appID.String())
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if len(rows) != len(want) {
			t.Fatalf("round %d: rows = %d, want %d", round, len(rows), len(want))
		}
		for i, row := range rows {
			if row.String("id") != want[i].ID.String() {
				t.Fatalf("round %d position %d: sql = %s, comparator = %s (%s %s)",
					round, i, row.String("id"), want[i].ID, want[i].Status, want[i].Date)
			}
		}
	}

	latest, err := apps.LatestEvents(ctx)
	if err != nil {
		t.Fatalf("LatestEvents() error = %v", err)
	}
	ids, err := apps.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() error = %v", err)
	}
	for _, id := range ids {
		app, err := apps.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		want, _ := tracker.ProjectionOf(app.StatusEvents)
		if latest[id] != want {
			t.Fatalf("LatestEvents()[%s] = %+v, want %+v", id, latest[id], want)
		}
	}
}

func TestOrderingSQLStagedInterviewBeforeUnstagedPeer(t *testing.T) {
	db := setupDB(t)
	store := NewStore(db)
	ordering := tracker.CanonicalOrdering()
	ctx := context.Background()

	// A payload-less interview row can only come from legacy data; it must
	// still sort after staged interviews on the same day, like +Inf does.
	if err := store.ExecuteMany(ctx, `INSERT INTO status_events (id, application_id, status, date, notes, payload) VALUES (?, ?, ?, ?, NULL, ?)`, [][]any{
		{"a", "app", "interview", "2024-02-01", "{}"},
		{"b", "app", "interview", "2024-02-01", `{"stage":2}`},
		{"c", "app", "interview", "2024-02-01", `{"stage":1}`},
	}); err != nil {
		t.Fatalf("ExecuteMany() error = %v", err)
	}

	rows, err := store.FetchAll(ctx, `SELECT se.id FROM status_events se ORDER BY `+ordering.OrderBySQL(tracker.StatusEventColumns, false))
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	got := []string{rows[0].String("id"), rows[1].String("id"), rows[2].String("id")}
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
