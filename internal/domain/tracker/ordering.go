package tracker

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// sqlInfinity is what SQLite reads as +Inf; it stands in for a missing stage
// exactly like math.Inf(1) does in EventKey.
const sqlInfinity = "9e999"

// EventKey is the canonical sort key: date, status priority, stage (+Inf when
// absent) and id as the final tiebreak.
type EventKey struct {
	Date     string
	Priority int
	Stage    float64
	ID       string
}

// EventColumns names the stored columns the SQL form orders by.
type EventColumns struct {
	Date    string
	Status  string
	Payload string
	ID      string
}

// StatusEventColumns are the columns of status_events aliased as se.
var StatusEventColumns = EventColumns{
	Date:    "se.date",
	Status:  "se.status",
	Payload: "se.payload",
	ID:      "se.id",
}

// EventOrdering yields the canonical event ordering both as a comparator and
// as SQL, derived from the same priority table.
type EventOrdering struct {
	statuses []Status
}

func CanonicalOrdering() EventOrdering {
	return EventOrdering{statuses: canonicalStatuses[:]}
}

func (o EventOrdering) priority(status Status) int {
	for i, candidate := range o.statuses {
		if candidate == status {
			return i + 1
		}
	}
	return UnknownPriority
}

func (o EventOrdering) Key(event StatusEvent) EventKey {
	stage := math.Inf(1)
	if value, ok := event.Stage(); ok {
		stage = float64(value)
	}
	return EventKey{
		Date:     event.Date.String(),
		Priority: o.priority(event.Status),
		Stage:    stage,
		ID:       event.ID.String(),
	}
}

func (o EventOrdering) Compare(a, b StatusEvent) int {
	ka, kb := o.Key(a), o.Key(b)
	if c := cmp.Compare(ka.Date, kb.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.Priority, kb.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.Stage, kb.Stage); c != 0 {
		return c
	}
	return cmp.Compare(ka.ID, kb.ID)
}

// Sort orders events ascending, oldest first.
func (o EventOrdering) Sort(events []StatusEvent) {
	slices.SortStableFunc(events, o.Compare)
}

// Sorted returns an ascending copy of events.
func (o EventOrdering) Sorted(events []StatusEvent) []StatusEvent {
	out := slices.Clone(events)
	o.Sort(out)
	return out
}

// Latest returns the last event of the canonical ordering.
func (o EventOrdering) Latest(events []StatusEvent) (StatusEvent, bool) {
	if len(events) == 0 {
		return StatusEvent{}, false
	}
	return slices.MaxFunc(events, o.Compare), true
}

// PriorityCaseSQL renders the priority table as a CASE expression over column.
func (o EventOrdering) PriorityCaseSQL(column string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, status := range o.statuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", status, i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END", UnknownPriority)
	return b.String()
}

// StageSQL extracts the interview stage from a JSON payload column.
func (o EventOrdering) StageSQL(payloadColumn string) string {
	return fmt.Sprintf("COALESCE(json_extract(%s, '$.stage'), %s)", payloadColumn, sqlInfinity)
}

// OrderBySQL renders the ORDER BY terms (without the keyword) for cols.
func (o EventOrdering) OrderBySQL(cols EventColumns, descending bool) string {
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	terms := []string{
		cols.Date + " " + dir,
		o.PriorityCaseSQL(cols.Status) + " " + dir,
		o.StageSQL(cols.Payload) + " " + dir,
		cols.ID + " " + dir,
	}
	return strings.Join(terms, ", ")
}

// LatestEventCTE defines latest_events: one row per listing ranked by the
// descending canonical ordering, rn = 1 being the most recent event.
func (o EventOrdering) LatestEventCTE() string {
	return `WITH latest_events AS (
  SELECT
    se.application_id,
    l.id AS listing_id,
    se.status,
    se.date,
    ROW_NUMBER() OVER (
      PARTITION BY l.id
      ORDER BY ` + o.OrderBySQL(StatusEventColumns, true) + `
    ) AS rn
  FROM listings l
  LEFT JOIN applications a ON l.id = a.listing_id
  LEFT JOIN status_events se ON a.id = se.application_id
)`
}

// LatestApplicationEventsSQL selects application_id, status and date of the
// most recent event of every application that has events.
func (o EventOrdering) LatestApplicationEventsSQL() string {
	return `SELECT application_id, id, status, date FROM (
  SELECT
    se.application_id,
    se.id,
    se.status,
    se.date,
    ROW_NUMBER() OVER (
      PARTITION BY se.application_id
      ORDER BY ` + o.OrderBySQL(StatusEventColumns, true) + `
    ) AS rn
  FROM status_events se
) WHERE rn = 1`
}
