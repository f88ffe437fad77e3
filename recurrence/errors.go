package recurrence

import (
	"errors"
	"fmt"
)

// Mutation errors returned by the exception/override operations. The API
// layer maps these onto HTTP statuses and user-facing messages.
var (
	// ErrDuplicateException: the date is already in the exception set.
	ErrDuplicateException = errors.New("date is already excluded")
	// ErrOverrideConflict: the date carries an active override, so it
	// cannot also become an exception.
	ErrOverrideConflict = errors.New("date has an active override")
	// ErrExcludedInstance: the date is in the exception set, so there is
	// no visible instance to override or cancel.
	ErrExcludedInstance = errors.New("date is excluded from the series")
	// ErrMissingInstanceDate: the operation requires an instance date.
	ErrMissingInstanceDate = errors.New("instance date is required")
	// ErrPastInstance: instances strictly before today cannot be cancelled.
	ErrPastInstance = errors.New("past instances cannot be cancelled")
)

// MalformedRuleError reports a rule-text value that could not be coerced
// to its expected type. Raised by Parse only; expansion never raises it.
type MalformedRuleError struct {
	Key   string
	Value string
	Err   error
}

func (e *MalformedRuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed rule: %s=%s: %v", e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed rule: %s=%s", e.Key, e.Value)
}

func (e *MalformedRuleError) Unwrap() error { return e.Err }
