package booking

import (
	"context"
	"fmt"

	bookingRepo "tidycrm/database/repository/booking"
	"tidycrm/models"
)

// Candidate describes an assignment to be checked for collisions: a staff
// member and/or team, a (possibly multi-day) date span, and a time-of-day
// interval. ExcludeBookingID skips a booking's own prior state when conflict
// checking an edit.
type Candidate struct {
	StaffID          string `json:"staff_id,omitempty"`
	TeamID           string `json:"team_id,omitempty"`
	Date             string `json:"date"`               // "YYYY-MM-DD"
	EndDate          string `json:"end_date,omitempty"` // empty means single-day
	StartTime        int    `json:"start_time"`         // minutes from midnight
	EndTime          int    `json:"end_time"`           // minutes from midnight
	ExcludeBookingID string `json:"exclude_booking_id,omitempty"`
}

// effectiveEnd mirrors Booking.EffectiveEnd for the candidate's span.
func (c Candidate) effectiveEnd() string {
	if c.EndDate != "" {
		return c.EndDate
	}
	return c.Date
}

// assignmentsCollide reports whether two bookings occupy the same staff
// member or team over an overlapping date span and time interval. Bookings
// with no shared assignment never collide.
func assignmentsCollide(a, b *models.Booking) bool {
	identity := (a.StaffID != "" && a.StaffID == b.StaffID) ||
		(a.TeamID != "" && a.TeamID == b.TeamID)
	if !identity {
		return false
	}
	return a.OverlapsRange(b.BookingDate, b.EffectiveEnd()) &&
		models.TimesOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// ConflictDetector finds existing active bookings colliding with a candidate
// assignment.
type ConflictDetector interface {
	FindConflicts(ctx context.Context, cand Candidate) ([]models.Booking, error)
}

// DefaultConflictDetector implements ConflictDetector over the booking
// repository.
type DefaultConflictDetector struct {
	Repo bookingRepo.Repository
}

// FindConflicts returns every active booking whose staff or team matches the
// candidate and whose date span and time interval both overlap it. The full
// conflicting set is returned, not a boolean, so callers can render which
// bookings collide. A storage failure propagates as an error; it is never
// reported as "no conflicts", since that would allow double-booking.
func (d *DefaultConflictDetector) FindConflicts(ctx context.Context, cand Candidate) ([]models.Booking, error) {
	if cand.StaffID == "" && cand.TeamID == "" {
		return nil, nil
	}
	if _, err := models.ParseDate(cand.Date); err != nil {
		return nil, &ValidationError{Field: "date", Reason: fmt.Sprintf("not a valid date: %q", cand.Date)}
	}
	if cand.EndDate != "" {
		if _, err := models.ParseDate(cand.EndDate); err != nil {
			return nil, &ValidationError{Field: "end_date", Reason: fmt.Sprintf("not a valid date: %q", cand.EndDate)}
		}
	}

	candidates, err := d.Repo.FindActive(ctx, bookingRepo.AssignmentQuery{
		StaffID:    cand.StaffID,
		TeamID:     cand.TeamID,
		RangeStart: cand.Date,
		RangeEnd:   cand.effectiveEnd(),
		ExcludeID:  cand.ExcludeBookingID,
	})
	if err != nil {
		return nil, fmt.Errorf("conflict scan failed: %w", err)
	}

	var conflicts []models.Booking
	for i := range candidates {
		b := &candidates[i]
		// Re-verify the date overlap in-process: the repository filter is a
		// coarse index scan and fakes may over-return.
		if !b.OverlapsRange(cand.Date, cand.effectiveEnd()) {
			continue
		}
		if !models.TimesOverlap(cand.StartTime, cand.EndTime, b.StartTime, b.EndTime) {
			continue
		}
		conflicts = append(conflicts, *b)
	}
	return conflicts, nil
}
