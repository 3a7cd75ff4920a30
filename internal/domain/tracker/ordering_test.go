package tracker

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func eventAt(id, date string, status Status, details EventDetails) StatusEvent {
	return StatusEvent{
		ID:      uuid.MustParse(id),
		Status:  status,
		Date:    MustDate(date),
		Details: details,
	}
}

func TestCanonicalOrderingSameDateUsesPriority(t *testing.T) {
	events := []StatusEvent{
		eventAt("00000000-0000-0000-0000-000000000001", "2024-01-01", StatusScreening, nil),
		eventAt("00000000-0000-0000-0000-000000000002", "2024-01-01", StatusApplied, nil),
	}

	CanonicalOrdering().Sort(events)

	if events[0].Status != StatusApplied || events[1].Status != StatusScreening {
		t.Fatalf("Sort() = [%s %s], want [applied screening]", events[0].Status, events[1].Status)
	}
}

func TestCanonicalOrderingInterviewStages(t *testing.T) {
	events := []StatusEvent{
		eventAt("00000000-0000-0000-0000-000000000001", "2024-02-01", StatusInterview, InterviewDetails{Stage: 2}),
		eventAt("00000000-0000-0000-0000-000000000002", "2024-02-01", StatusInterview, InterviewDetails{Stage: 1}),
	}

	CanonicalOrdering().Sort(events)

	first, _ := events[0].Stage()
	second, _ := events[1].Stage()
	if first != 1 || second != 2 {
		t.Fatalf("Sort() stages = [%d %d], want [1 2]", first, second)
	}
}

func TestCanonicalOrderingDateDominates(t *testing.T) {
	events := []StatusEvent{
		eventAt("00000000-0000-0000-0000-000000000001", "2024-03-02", StatusSaved, nil),
		eventAt("00000000-0000-0000-0000-000000000002", "2024-03-01", StatusRescinded, nil),
	}

	latest, ok := CanonicalOrdering().Latest(events)
	if !ok {
		t.Fatalf("Latest() ok = false")
	}
	if latest.Status != StatusSaved {
		t.Fatalf("Latest() = %s, want saved", latest.Status)
	}
}

func TestCanonicalOrderingIDBreaksTies(t *testing.T) {
	a := eventAt("00000000-0000-0000-0000-00000000000a", "2024-01-01", StatusGhosted, nil)
	b := eventAt("00000000-0000-0000-0000-00000000000b", "2024-01-01", StatusGhosted, nil)

	ordering := CanonicalOrdering()
	if got := ordering.Compare(a, b); got >= 0 {
		t.Fatalf("Compare(a, b) = %d, want < 0", got)
	}
	if got := ordering.Compare(b, a); got <= 0 {
		t.Fatalf("Compare(b, a) = %d, want > 0", got)
	}
	if got := ordering.Compare(a, a); got != 0 {
		t.Fatalf("Compare(a, a) = %d, want 0", got)
	}
}

func TestEventKeyMissingStageIsInfinite(t *testing.T) {
	key := CanonicalOrdering().Key(eventAt("00000000-0000-0000-0000-000000000001", "2024-01-01", StatusApplied, nil))
	if key.Priority != 2 {
		t.Fatalf("Key().Priority = %d, want 2", key.Priority)
	}
	if key.Stage <= 1e308 {
		t.Fatalf("Key().Stage = %v, want +Inf", key.Stage)
	}
}

func TestPriorityCaseSQLCoversEveryStatus(t *testing.T) {
	sql := CanonicalOrdering().PriorityCaseSQL("se.status")
	for _, status := range Statuses() {
		want := "WHEN '" + string(status) + "' THEN "
		if !strings.Contains(sql, want) {
			t.Fatalf("PriorityCaseSQL() missing %q in %s", want, sql)
		}
	}
	if !strings.HasSuffix(sql, "ELSE 999 END") {
		t.Fatalf("PriorityCaseSQL() = %s, want ELSE 999 END suffix", sql)
	}
}

func TestOrderBySQLDirection(t *testing.T) {
	got := CanonicalOrdering().OrderBySQL(StatusEventColumns, true)
	if strings.Count(got, " DESC") != 4 {
		t.Fatalf("OrderBySQL(desc) = %s, want four DESC terms", got)
	}
	if !strings.HasSuffix(got, "se.id DESC") {
		t.Fatalf("OrderBySQL(desc) = %s, want id tiebreak last", got)
	}
}

func TestStatusPriority(t *testing.T) {
	if got := StatusRescinded.Priority(); got != 10 {
		t.Fatalf("Priority(rescinded) = %d, want 10", got)
	}
	if got := Status("archived").Priority(); got != UnknownPriority {
		t.Fatalf("Priority(archived) = %d, want %d", got, UnknownPriority)
	}
	if _, err := ParseStatus("Offer_Received"); err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
}
