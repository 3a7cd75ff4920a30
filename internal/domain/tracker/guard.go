package tracker

import "fmt"

type EventOp string

const (
	EventCreate EventOp = "create"
	EventUpdate EventOp = "update"
	EventDelete EventOp = "delete"
)

// GuardManagedEvent rejects direct manipulation of the saved event. existing
// is the stored status (empty on create), incoming the requested one (empty
// on delete).
func GuardManagedEvent(op EventOp, existing, incoming Status) error {
	switch op {
	case EventCreate:
		if incoming == StatusSaved {
			return fmt.Errorf("%w: cannot manually create a %q status event", ErrSavedEventExists, StatusSaved)
		}
	case EventUpdate:
		if existing == StatusSaved {
			return fmt.Errorf("%w: cannot update the %q status event", ErrManagedEvent, StatusSaved)
		}
	case EventDelete:
		if existing == StatusSaved {
			return fmt.Errorf("%w: cannot delete the %q status event", ErrManagedEvent, StatusSaved)
		}
	default:
		return fmt.Errorf("%w: unknown event operation %q", ErrInvalidEvent, op)
	}
	return nil
}
