package core

import (
	"math"
	"time"
)

const hoursPerDay = 24

// ToRecordedAt normalizes a timestamp to UTC with microsecond precision, which is what PostgreSQL stores.
func ToRecordedAt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// daysBetween returns the number of days from "from" until "to", rounded up.
// Any started day counts as a full day; the result is negative when "to" lies before "from".
func daysBetween(from, to time.Time) int {
	days := math.Ceil(to.Sub(from).Hours() / hoursPerDay)

	return int(days)
}
