package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateUsesLocalMidnight(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)

	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 9, d.Day())
	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, time.Local, d.Location())
	// Formatting must round-trip without a day shift.
	assert.Equal(t, "2025-03-09", FormatDate(d))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2025-13-01", "15/01/2025", "2025-01-15T00:00:00Z"} {
		_, err := ParseDate(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDatesBetween(t *testing.T) {
	start, _ := ParseDate("2025-01-30")
	end, _ := ParseDate("2025-02-02")

	dates := DatesBetween(start, end)
	require.Len(t, dates, 4)
	assert.Equal(t, "2025-01-30", FormatDate(dates[0]))
	assert.Equal(t, "2025-02-02", FormatDate(dates[3]))

	// Inverted range yields nothing.
	assert.Empty(t, DatesBetween(end, start))

	// Single day.
	assert.Len(t, DatesBetween(start, start), 1)
}

func TestEffectiveEnd(t *testing.T) {
	b := Booking{BookingDate: "2025-01-15"}
	assert.Equal(t, "2025-01-15", b.EffectiveEnd())

	b.EndDate = "2025-01-17"
	assert.Equal(t, "2025-01-17", b.EffectiveEnd())
}

func TestOverlapsDate(t *testing.T) {
	multi := Booking{BookingDate: "2025-01-15", EndDate: "2025-01-17"}
	assert.False(t, multi.OverlapsDate("2025-01-14"))
	assert.True(t, multi.OverlapsDate("2025-01-15"))
	assert.True(t, multi.OverlapsDate("2025-01-16"))
	assert.True(t, multi.OverlapsDate("2025-01-17"))
	assert.False(t, multi.OverlapsDate("2025-01-18"))

	single := Booking{BookingDate: "2025-01-15"}
	assert.True(t, single.OverlapsDate("2025-01-15"))
	assert.False(t, single.OverlapsDate("2025-01-16"))
}

func TestAdjacentRangesDoNotOverlap(t *testing.T) {
	// A booking ending on day D and a range starting on D+1 must not collide.
	b := Booking{BookingDate: "2025-01-10", EndDate: "2025-01-15"}
	assert.False(t, b.OverlapsRange("2025-01-16", "2025-01-20"))
	assert.False(t, b.OverlapsRange("2025-01-05", "2025-01-09"))

	// Sharing the boundary day does overlap.
	assert.True(t, b.OverlapsRange("2025-01-15", "2025-01-20"))
	assert.True(t, b.OverlapsRange("2025-01-05", "2025-01-10"))
}

// TestOverlapSymmetry cross-checks the interval fast path against brute-force
// day enumeration for randomized ranges, including cross-month and cross-year
// spans. The two must never disagree.
func TestOverlapSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base, _ := ParseDate("2024-11-20") // close to a year boundary on purpose

	randDate := func() time.Time {
		return base.AddDate(0, 0, rng.Intn(120))
	}

	for i := 0; i < 2000; i++ {
		bStart := randDate()
		bEnd := bStart.AddDate(0, 0, rng.Intn(6))
		rStart := randDate()
		rEnd := rStart.AddDate(0, 0, rng.Intn(6))

		b := Booking{BookingDate: FormatDate(bStart)}
		if !bEnd.Equal(bStart) {
			b.EndDate = FormatDate(bEnd)
		}

		fast := b.OverlapsRange(FormatDate(rStart), FormatDate(rEnd))

		brute := false
		for _, d := range DatesBetween(bStart, bEnd) {
			if !d.Before(rStart) && !d.After(rEnd) {
				brute = true
				break
			}
		}

		require.Equal(t, brute, fast,
			"booking %s..%s vs range %s..%s", b.BookingDate, b.EffectiveEnd(), FormatDate(rStart), FormatDate(rEnd))
	}
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name string
		b    Booking
		want int
	}{
		{"single day", Booking{BookingDate: "2025-01-15"}, 1},
		{"end equals start", Booking{BookingDate: "2025-01-15", EndDate: "2025-01-15"}, 1},
		{"three days", Booking{BookingDate: "2025-01-15", EndDate: "2025-01-17"}, 3},
		{"cross month", Booking{BookingDate: "2025-01-30", EndDate: "2025-02-02"}, 4},
		{"cross year", Booking{BookingDate: "2024-12-30", EndDate: "2025-01-02"}, 4},
		{"inverted", Booking{BookingDate: "2025-01-17", EndDate: "2025-01-15"}, 1},
		{"malformed end", Booking{BookingDate: "2025-01-15", EndDate: "bogus"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.DurationDays())
		})
	}
}

func TestTimesOverlap(t *testing.T) {
	// 09:00-12:00 vs 11:00-13:00 overlap.
	assert.True(t, TimesOverlap(540, 720, 660, 780))
	// Back-to-back intervals do not.
	assert.False(t, TimesOverlap(540, 720, 720, 780))
	assert.False(t, TimesOverlap(720, 780, 540, 720))
	// Containment.
	assert.True(t, TimesOverlap(540, 720, 600, 660))
}
