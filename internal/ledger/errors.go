package ledger

import (
	"errors"

	"weekbudget/internal/core"
)

// ErrRejected marks a mutation refused by validation. The ledger state is
// unchanged whenever an operation returns an error matching it.
var ErrRejected = errors.New("rejected")

// Rejection reasons. Every refusal matches both ErrRejected and one of these.
var (
	ErrAllowanceNotSet   = errors.New("weekly allowance is not set")
	ErrNegativeAllowance = errors.New("allowance cannot be negative")
	ErrWeekArchived      = errors.New("week is already archived")
	ErrInvalidAmount     = core.ErrInvalidAmount
	ErrEmptyDescription  = core.ErrEmptyDescription
	ErrInvalidCategory   = core.ErrInvalidCategory
	ErrInvalidWeekID     = core.ErrInvalidWeekKey
)

// Rejection is the error returned for a refused mutation.
type Rejection struct {
	Reason error
}

func reject(reason error) error {
	return &Rejection{Reason: reason}
}

func (r *Rejection) Error() string {
	return "rejected: " + r.Reason.Error()
}

func (r *Rejection) Is(target error) bool {
	return target == ErrRejected
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Reason returns the human-readable refusal reason of err, or "" when err is
// not a refusal.
func Reason(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason.Error()
	}
	return ""
}
