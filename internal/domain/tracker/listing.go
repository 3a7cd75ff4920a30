package tracker

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Listing is a job posting. Business fields are immutable once created;
// only Notes and Insights change afterwards.
type Listing struct {
	ID           uuid.UUID       `json:"id"`
	URL          string          `json:"url"`
	Title        string          `json:"title"`
	Company      string          `json:"company"`
	Domain       string          `json:"domain"`
	Location     *string         `json:"location,omitempty"`
	Description  string          `json:"description"`
	Notes        *string         `json:"notes,omitempty"`
	Insights     json.RawMessage `json:"insights,omitempty"`
	PostedDate   *Date           `json:"posted_date,omitempty"`
	Skills       []string        `json:"skills"`
	Requirements []string        `json:"requirements"`
	Applications []Application   `json:"applications,omitempty"`
}

func (l Listing) Validate() error {
	if strings.TrimSpace(l.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidListing)
	}
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if strings.TrimSpace(l.Company) == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidListing)
	}
	return nil
}

// Fingerprint is the labelled text embedded for semantic duplicate search.
func Fingerprint(l Listing) string {
	location := "Not specified"
	if l.Location != nil && *l.Location != "" {
		location = *l.Location
	}
	parts := []string{
		"Company: " + l.Company,
		"Title: " + l.Title,
		"Location: " + location,
		"Description: " + l.Description,
	}
	if len(l.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(l.Skills, ", "))
	}
	if len(l.Requirements) > 0 {
		parts = append(parts, "Requirements: "+strings.Join(l.Requirements, ", "))
	}
	return strings.Join(parts, "\n")
}

// NormalizeURL trims the url, lower-cases scheme and host, and drops the
// fragment and a trailing slash so trivially different links compare equal.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q must be absolute", ErrInvalidURL, raw)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = strings.TrimSuffix(parsed.RawPath, "/")
	} else {
		parsed.Path = ""
		parsed.RawPath = ""
	}
	return parsed.String(), nil
}

// ListingSummary is a row of the listings table view.
type ListingSummary struct {
	ID            uuid.UUID `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Domain        string    `json:"domain"`
	Location      *string   `json:"location,omitempty"`
	PostedDate    *Date     `json:"posted_date,omitempty"`
	CurrentStatus *Status   `json:"current_status,omitempty"`
	LastStatusAt  *Date     `json:"last_status_at,omitempty"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

func NewPage[T any](items []T, total, page, size int) Page[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}

type SortField string

const (
	SortNone         SortField = ""
	SortTitle        SortField = "title"
	SortCompany      SortField = "company"
	SortPostedAt     SortField = "posted_at"
	SortLastStatusAt SortField = "last_status_at"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// ListingQuery filters and pages the listings table.
type ListingQuery struct {
	Search   string
	Statuses []Status
	SortBy   SortField
	SortDir  SortDir
	Page     int
	Size     int
}

// Normalize applies defaults and rejects unsupported values.
func (q ListingQuery) Normalize() (ListingQuery, error) {
	out := q
	out.Search = strings.TrimSpace(q.Search)
	if out.Page == 0 {
		out.Page = 1
	}
	if out.Size == 0 {
		out.Size = DefaultPageSize
	}
	if out.Page < 1 {
		return ListingQuery{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	}
	if out.Size < 1 || out.Size > MaxPageSize {
		return ListingQuery{}, fmt.Errorf("%w: size must be within [1,%d]", ErrInvalidQuery, MaxPageSize)
	}
	switch out.SortBy {
	case SortNone, SortTitle, SortCompany, SortPostedAt, SortLastStatusAt:
	default:
		return ListingQuery{}, fmt.Errorf("%w: unsupported sort_by %q", ErrInvalidQuery, out.SortBy)
	}
	switch out.SortDir {
	case "":
		out.SortDir = SortDesc
	case SortAsc, SortDesc:
	default:
		return ListingQuery{}, fmt.Errorf("%w: unsupported sort_dir %q", ErrInvalidQuery, out.SortDir)
	}
	for _, status := range out.Statuses {
		if !status.Valid() {
			return ListingQuery{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
	}
	return out, nil
}

func (q ListingQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// DuplicateReason explains how a draft listing relates to stored ones.
type DuplicateReason string

const (
	DraftUnique           DuplicateReason = "unique"
	DraftDuplicateURL     DuplicateReason = "duplicate_url"
	DraftDuplicateContent DuplicateReason = "duplicate_content"
)

// DraftClassification is the outcome of checking a draft before creation.
type DraftClassification struct {
	Reason    DuplicateReason `json:"reason"`
	Duplicate *Listing        `json:"duplicate,omitempty"`
}
