package models

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// PaymentStatus is the orthogonal payment sub-state of a booking.
type PaymentStatus string

const (
	PaymentUnpaid          PaymentStatus = "unpaid"
	PaymentPaid            PaymentStatus = "paid"
	PaymentRefundRequested PaymentStatus = "refund_requested"
	PaymentRefunded        PaymentStatus = "refunded"
)

// statusTransitions is the whitelist of legal booking status changes.
// Cancellation is only reachable before work starts; in-progress or finished
// work is not cancellable.
var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// paymentTransitions is the whitelist of legal payment status changes.
// A requested refund can be reversed back to either prior state.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid:          {PaymentPaid},
	PaymentPaid:            {PaymentRefundRequested},
	PaymentRefundRequested: {PaymentRefunded, PaymentPaid, PaymentUnpaid},
	PaymentRefunded:        {},
}

// IsValid reports whether s is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// AvailableTransitions returns the statuses reachable from s.
func (s BookingStatus) AvailableTransitions() []BookingStatus {
	return statusTransitions[s]
}

// CanTransitionTo reports whether the change from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s BookingStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// IsActive reports whether a booking in this status still occupies its time
// slot for conflict-detection purposes.
func (s BookingStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that count as occupying a time slot.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress}
}

// IsValid reports whether p is a recognized payment status.
func (p PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[p]
	return ok
}

// AvailableTransitions returns the payment statuses reachable from p.
func (p PaymentStatus) AvailableTransitions() []PaymentStatus {
	return paymentTransitions[p]
}

// CanTransitionTo reports whether the change from p to target is allowed.
func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range paymentTransitions[p] {
		if t == target {
			return true
		}
	}
	return false
}
