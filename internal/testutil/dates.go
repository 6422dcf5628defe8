package testutil

import "github.com/bensuskins/planner/internal/recurrence"

// MustDate parses a YYYY-MM-DD literal and panics on a malformed one.
func MustDate(value string) recurrence.Date {
	date, err := recurrence.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return date
}
