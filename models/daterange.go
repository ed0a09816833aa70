package models

import "time"

// DateLayout is the wire format for all date-only values.
const DateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" string as a local calendar date. Date-only
// values must never be parsed as UTC midnight: in locales behind UTC that
// shifts the displayed date back by a day, so the local midnight anchor is
// mandatory here.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDate renders t as a "YYYY-MM-DD" string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DatesBetween enumerates every calendar date from start through end,
// inclusive. A start after end yields an empty slice; callers must not rely
// on this for ranges they know to be invalid.
func DatesBetween(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// EffectiveEnd returns the normalized terminal day of the booking's span:
// end_date when present, otherwise booking_date.
func (b *Booking) EffectiveEnd() string {
	if b.EndDate != "" {
		return b.EndDate
	}
	return b.BookingDate
}

// OverlapsDate reports whether the booking's span covers the given date.
// ISO dates compare correctly as strings, so no parsing is needed.
func (b *Booking) OverlapsDate(date string) bool {
	return b.BookingDate <= date && date <= b.EffectiveEnd()
}

// OverlapsRange reports whether the booking's span intersects the inclusive
// range [rangeStart, rangeEnd]. A booking ending on day D and a range starting
// on day D+1 do not overlap.
func (b *Booking) OverlapsRange(rangeStart, rangeEnd string) bool {
	return b.BookingDate <= rangeEnd && b.EffectiveEnd() >= rangeStart
}

// DurationDays returns the inclusive day count of the booking's span, or 1
// for a single-day booking. Malformed dates count as single-day.
func (b *Booking) DurationDays() int {
	if b.EndDate == "" || b.EndDate == b.BookingDate {
		return 1
	}
	start, err := ParseDate(b.BookingDate)
	if err != nil {
		return 1
	}
	end, err := ParseDate(b.EndDate)
	if err != nil {
		return 1
	}
	if end.Before(start) {
		return 1
	}
	// Re-anchor both days in UTC so DST shifts in the local zone cannot make
	// the difference a non-multiple of 24h.
	su := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	eu := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(eu.Sub(su).Hours()/24) + 1
}

// TimesOverlap reports whether two time-of-day intervals, in minutes from
// midnight, intersect. Back-to-back intervals do not overlap.
func TimesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}
