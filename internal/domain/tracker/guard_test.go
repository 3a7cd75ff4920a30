package tracker

import (
	"testing"

	"applytrack/internal/errs"
)

func TestGuardManagedEvent(t *testing.T) {
	testCases := []struct {
		name     string
		op       EventOp
		existing Status
		incoming Status
		want     errs.Kind
	}{
		{name: "create saved", op: EventCreate, incoming: StatusSaved, want: errs.KindDuplicate},
		{name: "create applied", op: EventCreate, incoming: StatusApplied, want: ""},
		{name: "update saved", op: EventUpdate, existing: StatusSaved, incoming: StatusApplied, want: errs.KindValidation},
		{name: "update applied", op: EventUpdate, existing: StatusApplied, incoming: StatusScreening, want: ""},
		{name: "delete saved", op: EventDelete, existing: StatusSaved, want: errs.KindValidation},
		{name: "delete interview", op: EventDelete, existing: StatusInterview, want: ""},
		{name: "unknown op", op: EventOp("merge"), want: errs.KindValidation},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := GuardManagedEvent(testCase.op, testCase.existing, testCase.incoming)
			if got := errs.KindOf(err); got != testCase.want {
				t.Fatalf("GuardManagedEvent() kind = %q (%v), want %q", got, err, testCase.want)
			}
		})
	}
}
