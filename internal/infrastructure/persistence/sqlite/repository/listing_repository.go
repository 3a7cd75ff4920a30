package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

const listingColumns = `l.id, l.url, l.title, l.company, l.domain, l.location, l.description,
  l.notes, l.insights, l.posted_date, l.skills, l.requirements`

var listingSortColumns = map[tracker.SortField]string{
	tracker.SortTitle:        "l.title",
	tracker.SortCompany:      "l.company",
	tracker.SortPostedAt:     "l.posted_date",
	tracker.SortLastStatusAt: "le.date",
}

type ListingRepository struct {
	store    ports.RowStore
	ordering tracker.EventOrdering
}

var _ ports.ListingRepository = (*ListingRepository)(nil)

func NewListingRepository(store ports.RowStore) *ListingRepository {
	return &ListingRepository{store: store, ordering: tracker.CanonicalOrdering()}
}

func (r *ListingRepository) Get(ctx context.Context, id uuid.UUID) (tracker.Listing, error) {
	row, found, err := r.store.FetchOne(ctx, `SELECT `+listingColumns+` FROM listings l WHERE l.id = ?`, id.String())
	if err != nil {
		return tracker.Listing{}, err
	}
	if !found {
		return tracker.Listing{}, errs.NotFoundf("listing %s not found", id)
	}
	return listingFromRow(row)
}

func (r *ListingRepository) GetByURL(ctx context.Context, url string) (tracker.Listing, bool, error) {
	row, found, err := r.store.FetchOne(ctx, `SELECT `+listingColumns+` FROM listings l WHERE l.url = ?`, url)
	if err != nil || !found {
		return tracker.Listing{}, false, err
	}
	listing, err := listingFromRow(row)
	if err != nil {
		return tracker.Listing{}, false, err
	}
	return listing, true, nil
}

// GetByIDs returns the listings that exist among ids, in no particular order.
func (r *ListingRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]tracker.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := make([]any, len(ids))
	for i, id := range ids {
		params[i] = id.String()
	}
	rows, err := r.store.FetchAll(
		ctx,
		`SELECT `+listingColumns+` FROM listings l WHERE l.id IN (`+placeholders(len(ids))+`)`,
		params...,
	)
	if err != nil {
		return nil, err
	}
	return listingsFromRows(rows)
}

func (r *ListingRepository) Scan(ctx context.Context, limit int) ([]tracker.Listing, error) {
	if limit <= 0 {
		// SQLite reads a negative LIMIT as no limit.
		limit = -1
	}
	rows, err := r.store.FetchAll(ctx, `SELECT `+listingColumns+` FROM listings l ORDER BY l.id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return listingsFromRows(rows)
}

func (r *ListingRepository) List(ctx context.Context, query tracker.ListingQuery) (tracker.Page[tracker.ListingSummary], error) {
	query, err := query.Normalize()
	if err != nil {
		return tracker.Page[tracker.ListingSummary]{}, err
	}

	var conditions []string
	var params []any
	if query.Search != "" {
		term := "%" + query.Search + "%"
		conditions = append(conditions, "(l.title LIKE ? OR l.company LIKE ? OR l.domain LIKE ?)")
		params = append(params, term, term, term)
	}
	if len(query.Statuses) > 0 {
		conditions = append(conditions, "le.status IN ("+placeholders(len(query.Statuses))+")")
		for _, status := range query.Statuses {
			params = append(params, string(status))
		}
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "l.id ASC"
	if column, ok := listingSortColumns[query.SortBy]; ok {
		orderBy = fmt.Sprintf("%s %s, l.id ASC", column, strings.ToUpper(string(query.SortDir)))
	}

	cte := r.ordering.LatestEventCTE()
	rows, err := r.store.FetchAll(ctx, cte+`
SELECT
  l.id, l.url, l.title, l.company, l.domain, l.location, l.posted_date,
  le.date AS last_status_at,
  le.status AS current_status
FROM listings l
LEFT JOIN latest_events le ON l.id = le.listing_id AND le.rn = 1
`+where+`
GROUP BY l.id
ORDER BY `+orderBy+`
LIMIT ? OFFSET ?`, append(params, query.Size, query.Offset())...)
	if err != nil {
		return tracker.Page[tracker.ListingSummary]{}, err
	}

	items := make([]tracker.ListingSummary, 0, len(rows))
	for _, row := range rows {
		item, err := summaryFromRow(row)
		if err != nil {
			return tracker.Page[tracker.ListingSummary]{}, err
		}
		items = append(items, item)
	}

	countRow, _, err := r.store.FetchOne(ctx, cte+`
SELECT COUNT(DISTINCT l.id) AS total
FROM listings l
LEFT JOIN latest_events le ON l.id = le.listing_id AND le.rn = 1
`+where, params...)
	if err != nil {
		return tracker.Page[tracker.ListingSummary]{}, err
	}

	return tracker.NewPage(items, int(countRow.Int64("total")), query.Page, query.Size), nil
}

func (r *ListingRepository) Create(ctx context.Context, listing tracker.Listing) error {
	skills, err := encodeStrings(listing.Skills)
	if err != nil {
		return err
	}
	requirements, err := encodeStrings(listing.Requirements)
	if err != nil {
		return err
	}
	var insights any
	if len(listing.Insights) > 0 {
		insights = string(listing.Insights)
	}

	_, err = r.store.Execute(ctx, `INSERT INTO listings (
  id, url, title, company, domain, location, description, notes, insights, posted_date, skills, requirements
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID.String(),
		listing.URL,
		listing.Title,
		listing.Company,
		listing.Domain,
		listing.Location,
		listing.Description,
		listing.Notes,
		insights,
		dateParam(listing.PostedDate),
		skills,
		requirements,
	)
	return err
}

func (r *ListingRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	result, err := r.store.Execute(ctx, `UPDATE listings SET notes = ? WHERE id = ?`, notes, id.String())
	if err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("listing %s not found", id)
	}
	return nil
}

func listingsFromRows(rows []ports.Row) ([]tracker.Listing, error) {
	out := make([]tracker.Listing, 0, len(rows))
	for _, row := range rows {
		listing, err := listingFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

func listingFromRow(row ports.Row) (tracker.Listing, error) {
	id, err := uuid.Parse(row.String("id"))
	if err != nil {
		return tracker.Listing{}, errs.Wrapf(err, "parse listing id %q", row.String("id"))
	}
	postedDate, err := optionalDate(row, "posted_date")
	if err != nil {
		return tracker.Listing{}, err
	}
	skills, err := decodeStrings(row.Bytes("skills"))
	if err != nil {
		return tracker.Listing{}, errs.Wrapf(err, "decode skills of listing %s", id)
	}
	requirements, err := decodeStrings(row.Bytes("requirements"))
	if err != nil {
		return tracker.Listing{}, errs.Wrapf(err, "decode requirements of listing %s", id)
	}

	listing := tracker.Listing{
		ID:           id,
		URL:          row.String("url"),
		Title:        row.String("title"),
		Company:      row.String("company"),
		Domain:       row.String("domain"),
		Location:     row.NullString("location"),
		Description:  row.String("description"),
		Notes:        row.NullString("notes"),
		PostedDate:   postedDate,
		Skills:       skills,
		Requirements: requirements,
	}
	if insights := row.Bytes("insights"); len(insights) > 0 {
		listing.Insights = json.RawMessage(insights)
	}
	return listing, nil
}

func summaryFromRow(row ports.Row) (tracker.ListingSummary, error) {
	id, err := uuid.Parse(row.String("id"))
	if err != nil {
		return tracker.ListingSummary{}, errs.Wrapf(err, "parse listing id %q", row.String("id"))
	}
	postedDate, err := optionalDate(row, "posted_date")
	if err != nil {
		return tracker.ListingSummary{}, err
	}
	lastStatusAt, err := optionalDate(row, "last_status_at")
	if err != nil {
		return tracker.ListingSummary{}, err
	}

	summary := tracker.ListingSummary{
		ID:           id,
		URL:          row.String("url"),
		Title:        row.String("title"),
		Company:      row.String("company"),
		Domain:       row.String("domain"),
		Location:     row.NullString("location"),
		PostedDate:   postedDate,
		LastStatusAt: lastStatusAt,
	}
	if raw := row.NullString("current_status"); raw != nil {
		status := tracker.Status(*raw)
		summary.CurrentStatus = &status
	}
	return summary, nil
}

func optionalDate(row ports.Row, column string) (*tracker.Date, error) {
	raw := row.NullString(column)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	date, err := tracker.ParseDate(*raw)
	if err != nil {
		return nil, errs.Wrapf(err, "parse column %s", column)
	}
	return &date, nil
}

func dateParam(date *tracker.Date) any {
	if date == nil || date.IsZero() {
		return nil
	}
	return date.String()
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", errs.Wrap(err, "encode string list")
	}
	return string(data), nil
}

func decodeStrings(data []byte) ([]string, error) {
	out := []string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
