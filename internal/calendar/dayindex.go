// Package calendar is the single place where the day-of-week convention is
// decided: stored schedules index days 1..7 with Monday=1 and Sunday=7, while
// time.Weekday is 0-indexed from Sunday. Nothing outside this package may do
// that conversion.
package calendar

import (
	"fmt"
	"time"

	"slotbook/pkg/response"
)

const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// DayIndex maps a date to the stored day-of-week index (Monday=1..Sunday=7).
func DayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return wd
}

// Weekday is the reverse mapping, used when rendering the weekly schedule. A
// stored index outside 1..7 is corrupt data, reported as a configuration
// error.
func Weekday(index int) (time.Weekday, error) {
	if index < Monday || index > Sunday {
		return 0, fmt.Errorf("day index out of range: %d: %w", index, response.ErrConfiguration)
	}
	if index == Sunday {
		return time.Sunday, nil
	}
	return time.Weekday(index), nil
}
