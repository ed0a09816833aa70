package models

import "time"

// Recurrence patterns supported for recurring groups.
const (
	PatternAutoWeekly   = "auto-weekly"
	PatternAutoBiweekly = "auto-biweekly"
	PatternCustom       = "custom"
)

// Booking represents one scheduled occurrence of a service.
type Booking struct {
	ID          string `bson:"id" json:"id"`                                 // Unique booking identifier (UUID)
	CustomerID  string `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	PackageID   string `bson:"package_id" json:"package_id"`                 // Service package being booked
	StaffID     string `bson:"staff_id,omitempty" json:"staff_id,omitempty"` // Assigned staff member, if any
	TeamID      string `bson:"team_id,omitempty" json:"team_id,omitempty"`   // Assigned team, if any
	BookingDate string `bson:"booking_date" json:"booking_date"`             // "YYYY-MM-DD"
	EndDate     string `bson:"end_date,omitempty" json:"end_date,omitempty"` // "YYYY-MM-DD"; empty means single-day
	StartTime   int    `bson:"start_time" json:"start_time"`                 // Minutes from midnight
	EndTime     int    `bson:"end_time" json:"end_time"`                     // Minutes from midnight

	AreaSqm       *float64 `bson:"area_sqm,omitempty" json:"area_sqm,omitempty"` // Only set for tiered packages
	Frequency     int      `bson:"frequency" json:"frequency"`                   // Occurrences per cycle: 1, 2, 4 or 8
	TotalPrice    float64  `bson:"total_price" json:"total_price"`               // Price snapshot taken at creation/edit time
	RequiredStaff int      `bson:"required_staff" json:"required_staff"`

	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`

	IsRecurring       bool   `bson:"is_recurring" json:"is_recurring"`
	RecurringGroupID  string `bson:"recurring_group_id,omitempty" json:"recurring_group_id,omitempty"`
	RecurringSequence int    `bson:"recurring_sequence,omitempty" json:"recurring_sequence,omitempty"` // 1-based position within the group
	RecurringTotal    int    `bson:"recurring_total,omitempty" json:"recurring_total,omitempty"`
	RecurringPattern  string `bson:"recurring_pattern,omitempty" json:"recurring_pattern,omitempty"`
	ParentBookingID   string `bson:"parent_booking_id,omitempty" json:"parent_booking_id,omitempty"` // Empty on the sequence-1 booking

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RecurringGroup is the computed view over all bookings sharing one group id.
// It has no stored header record; the member rows are the only source of truth.
type RecurringGroup struct {
	GroupID        string    `json:"group_id"`
	Bookings       []Booking `json:"bookings"` // Ordered by recurring_sequence
	TotalCount     int       `json:"total_count"`
	CompletedCount int       `json:"completed_count"`
	CancelledCount int       `json:"cancelled_count"`
	UpcomingCount  int       `json:"upcoming_count"`
}
