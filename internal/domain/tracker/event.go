package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Person is a referral or an interviewer.
type Person struct {
	Name      string  `json:"name" yaml:"name" toml:"name"`
	Contact   *string `json:"contact,omitempty" yaml:"contact,omitempty" toml:"contact,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty" toml:"avatar_url,omitempty"`
}

// EventDetails is the status-specific part of a StatusEvent. The set of
// implementations is closed: AppliedDetails and InterviewDetails.
type EventDetails interface {
	detailsStatus() Status
	validate() error
}

type AppliedDetails struct {
	Referrals []Person `json:"referrals,omitempty"`
}

func (AppliedDetails) detailsStatus() Status { return StatusApplied }

func (d AppliedDetails) validate() error {
	return validatePeople("referrals", d.Referrals)
}

type InterviewDetails struct {
	Stage        int      `json:"stage"`
	Interviewers []Person `json:"interviewers,omitempty"`
}

func (InterviewDetails) detailsStatus() Status { return StatusInterview }

func (d InterviewDetails) validate() error {
	if d.Stage < 1 {
		return fmt.Errorf("%w: interview stage must be >= 1, got %d", ErrInvalidEvent, d.Stage)
	}
	return validatePeople("interviewers", d.Interviewers)
}

func validatePeople(field string, people []Person) error {
	for i, person := range people {
		if strings.TrimSpace(person.Name) == "" {
			return fmt.Errorf("%w: %s[%d].name is required", ErrInvalidEvent, field, i)
		}
	}
	return nil
}

// StatusEvent is one dated transition of an Application. Details is nil for
// statuses without a payload.
type StatusEvent struct {
	ID      uuid.UUID
	Status  Status
	Date    Date
	Notes   *string
	Details EventDetails
}

// NewSavedEvent builds the system-managed initial event.
func NewSavedEvent(now time.Time) StatusEvent {
	return StatusEvent{
		ID:     uuid.New(),
		Status: StatusSaved,
		Date:   DateOf(now),
	}
}

// Stage reports the interview stage when the event carries one.
func (e StatusEvent) Stage() (int, bool) {
	if details, ok := e.Details.(InterviewDetails); ok {
		return details.Stage, true
	}
	return 0, false
}

// Normalize returns e in its stored shape: applied details without referrals
// become nil, since they decode back as no details.
func (e StatusEvent) Normalize() StatusEvent {
	if details, ok := e.Details.(AppliedDetails); ok && len(details.Referrals) == 0 {
		e.Details = nil
	}
	return e
}

func (e StatusEvent) Validate() error {
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	switch e.Status {
	case StatusInterview:
		if _, ok := e.Details.(InterviewDetails); !ok {
			return fmt.Errorf("%w: interview event requires a stage", ErrInvalidEvent)
		}
	case StatusApplied:
		if e.Details == nil {
			return nil
		}
		if _, ok := e.Details.(AppliedDetails); !ok {
			return fmt.Errorf("%w: applied event has %T details", ErrInvalidEvent, e.Details)
		}
	default:
		if e.Details != nil {
			return fmt.Errorf("%w: %s event carries no details", ErrInvalidEvent, e.Status)
		}
	}
	if e.Details != nil {
		return e.Details.validate()
	}
	return nil
}

// Payload serialises every field except the stored columns id, date, notes and status.
func (e StatusEvent) Payload() ([]byte, error) {
	if e.Details == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Status, err)
	}
	return data, nil
}

// DecodeStoredEvent rebuilds an event from its stored columns and payload.
// Common columns win over payload keys with the same name; an empty or null
// payload counts as an empty object.
func DecodeStoredEvent(id, status, date string, notes *string, payload []byte) (StatusEvent, error) {
	merged := map[string]any{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &merged); err != nil {
			return StatusEvent{}, fmt.Errorf("%w: decode payload of event %s: %v", ErrInvalidEvent, id, err)
		}
		if merged == nil {
			merged = map[string]any{}
		}
	}

	merged["id"] = id
	merged["status"] = status
	merged["date"] = date
	if notes != nil {
		merged["notes"] = *notes
	} else {
		delete(merged, "notes")
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return StatusEvent{}, fmt.Errorf("encode stored event %s: %w", id, err)
	}

	var event StatusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return StatusEvent{}, err
	}
	if err := event.Validate(); err != nil {
		return StatusEvent{}, err
	}
	return event, nil
}

type eventCommon struct {
	ID     *uuid.UUID `json:"id,omitempty"`
	Status Status     `json:"status"`
	Date   Date       `json:"date"`
	Notes  *string    `json:"notes,omitempty"`
}

// MarshalJSON writes the flat wire form: common fields plus details fields.
func (e StatusEvent) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if e.Details != nil {
		data, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	}
	if e.ID != uuid.Nil {
		out["id"] = e.ID.String()
	}
	out["status"] = e.Status
	out["date"] = e.Date
	if e.Notes != nil {
		out["notes"] = *e.Notes
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat wire form. A missing id or date stays zero so
// callers can assign them; shape errors of the status payload are reported.
func (e *StatusEvent) UnmarshalJSON(data []byte) error {
	var common eventCommon
	if err := json.Unmarshal(data, &common); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	status, err := ParseStatus(string(common.Status))
	if err != nil {
		return err
	}

	event := StatusEvent{
		Status: status,
		Date:   common.Date,
		Notes:  common.Notes,
	}
	if common.ID != nil {
		event.ID = *common.ID
	}

	switch status {
	case StatusApplied:
		var details AppliedDetails
		if err := json.Unmarshal(data, &details); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		// An applied event without referrals has no details.
		if len(details.Referrals) > 0 {
			event.Details = details
		}
	case StatusInterview:
		var raw struct {
			Stage        *int     `json:"stage"`
			Interviewers []Person `json:"interviewers"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		if raw.Stage == nil {
			return fmt.Errorf("%w: interview event requires a stage", ErrInvalidEvent)
		}
		event.Details = InterviewDetails{Stage: *raw.Stage, Interviewers: raw.Interviewers}
	}

	*e = event
	return nil
}
