package booking

import (
	"fmt"

	"tidycrm/models"
)

// NotFoundError signals that a referenced booking, group or tier does not
// exist. It is never silently defaulted away, except for the documented
// pricing sentinel.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidTransitionError signals a status change outside the allowed set.
// Both ends of the rejected pair are named so the caller can render them.
type InvalidTransitionError struct {
	Field string // "status" or "payment_status"
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Field, e.From, e.To)
}

// InvalidScopeError signals a scoped edit/delete on a booking that cannot
// support it: not recurring, or group-wide scope without a group id.
type InvalidScopeError struct {
	BookingID string
	Scope     Scope
	Reason    string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("scope %q not applicable to booking %s: %s", e.Scope, e.BookingID, e.Reason)
}

// PartialFailureError signals that a multi-record operation failed after some
// records were written. The compensating rollback has already run by the time
// this error is returned; callers only ever observe total success or total
// failure.
type PartialFailureError struct {
	GroupID    string
	Attempted  int
	RolledBack int
	Cause      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("group %s creation failed mid-write, %d of %d records rolled back: %v",
		e.GroupID, e.RolledBack, e.Attempted, e.Cause)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// ConflictError signals that a candidate assignment overlaps existing active
// bookings. The colliding bookings are carried so the caller can render them.
type ConflictError struct {
	Conflicts []models.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("assignment conflicts with %d existing booking(s)", len(e.Conflicts))
}

// ValidationError signals malformed input detected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
