package models

import "time"

// History field names, identifying which sub-state a history entry tracks.
const (
	HistoryFieldStatus  = "status"
	HistoryFieldPayment = "payment_status"
)

// StatusHistory is one immutable audit-trail entry recording a status or
// payment-status transition. Entries are append-only and never mutated or
// deleted once written.
type StatusHistory struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"booking_id" json:"booking_id"`
	Field     string    `bson:"field" json:"field"` // "status" or "payment_status"
	OldStatus string    `bson:"old_status" json:"old_status"`
	NewStatus string    `bson:"new_status" json:"new_status"`
	ChangedBy string    `bson:"changed_by" json:"changed_by"` // Opaque acting-user id
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
