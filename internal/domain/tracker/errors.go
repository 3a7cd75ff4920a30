package tracker

import (
	"fmt"

	"applytrack/internal/errs"
)

// Domain rule violations. Each one matches errs.ErrValidation through errors.Is.
var (
	ErrInvalidStatus    = fmt.Errorf("%w: invalid status", errs.ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", errs.ErrValidation)
	ErrInvalidEvent     = fmt.Errorf("%w: invalid status event", errs.ErrValidation)
	ErrInvalidListing   = fmt.Errorf("%w: invalid listing", errs.ErrValidation)
	ErrInvalidURL       = fmt.Errorf("%w: invalid listing url", errs.ErrValidation)
	ErrInvalidQuery     = fmt.Errorf("%w: invalid listing query", errs.ErrValidation)
	ErrManagedEvent     = fmt.Errorf("%w: saved status event is system-managed", errs.ErrValidation)
	ErrSavedEventExists = fmt.Errorf("%w: saved status event already exists", errs.ErrDuplicate)
)
