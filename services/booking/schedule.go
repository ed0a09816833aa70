package booking

import (
	"fmt"

	"tidycrm/models"
)

// patternSteps maps auto patterns to their day step between occurrences.
var patternSteps = map[string]int{
	models.PatternAutoWeekly:   7,
	models.PatternAutoBiweekly: 14,
}

// GenerateOccurrenceDates expands a start date into total occurrence dates
// following the given auto pattern. The first date is the start date itself.
func GenerateOccurrenceDates(start, pattern string, total int) ([]string, error) {
	step, ok := patternSteps[pattern]
	if !ok {
		return nil, &ValidationError{Field: "pattern", Reason: fmt.Sprintf("pattern %q has no generation rule", pattern)}
	}
	if total < 1 {
		return nil, &ValidationError{Field: "total_occurrences", Reason: "must be at least 1"}
	}

	first, err := models.ParseDate(start)
	if err != nil {
		return nil, &ValidationError{Field: "booking_date", Reason: fmt.Sprintf("not a valid date: %q", start)}
	}

	dates := make([]string, 0, total)
	for i := 0; i < total; i++ {
		dates = append(dates, models.FormatDate(first.AddDate(0, 0, i*step)))
	}
	return dates, nil
}

// shiftedEnd returns the end date of an occurrence starting on date with the
// given inclusive span, or "" for single-day occurrences.
func shiftedEnd(date string, spanDays int) string {
	if spanDays <= 1 {
		return ""
	}
	start, err := models.ParseDate(date)
	if err != nil {
		return ""
	}
	return models.FormatDate(start.AddDate(0, 0, spanDays-1))
}
