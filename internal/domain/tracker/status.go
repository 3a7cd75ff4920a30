package tracker

import (
	"fmt"
	"strings"
)

// Status is the tag of a StatusEvent.
type Status string

const (
	StatusSaved         Status = "saved"
	StatusApplied       Status = "applied"
	StatusScreening     Status = "screening"
	StatusInterview     Status = "interview"
	StatusOfferReceived Status = "offer_received"
	StatusAccepted      Status = "accepted"
	StatusRejected      Status = "rejected"
	StatusGhosted       Status = "ghosted"
	StatusWithdrawn     Status = "withdrawn"
	StatusRescinded     Status = "rescinded"
)

// UnknownPriority ranks statuses outside the canonical table.
const UnknownPriority = 999

// canonicalStatuses is the single priority table: priority is position + 1.
// Both the in-process comparator and the generated SQL read from it.
var canonicalStatuses = [...]Status{
	StatusSaved,
	StatusApplied,
	StatusScreening,
	StatusInterview,
	StatusOfferReceived,
	StatusAccepted,
	StatusRejected,
	StatusGhosted,
	StatusWithdrawn,
	StatusRescinded,
}

// Statuses returns every status in ascending priority.
func Statuses() []Status {
	out := make([]Status, len(canonicalStatuses))
	copy(out, canonicalStatuses[:])
	return out
}

func (s Status) Priority() int {
	return CanonicalOrdering().priority(s)
}

func (s Status) Valid() bool {
	return s.Priority() != UnknownPriority
}

func (s Status) String() string { return string(s) }

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// ParseStatuses parses a comma separated filter such as "applied,interview".
func ParseStatuses(raw string) ([]Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]Status, 0, len(parts))
	for _, part := range parts {
		status, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}
