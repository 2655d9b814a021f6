package calendar

import (
	"errors"
	"testing"
	"time"

	"slotbook/pkg/response"
)

func TestDayIndex(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"sunday maps to 7", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 7},
		{"monday maps to 1", time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), 1},
		{"wednesday maps to 3", time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC), 3},
		{"saturday maps to 6", time.Date(2024, 6, 22, 0, 0, 0, 0, time.UTC), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayIndex(tt.date); got != tt.want {
				t.Errorf("DayIndex(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestWeekdayRoundTrip(t *testing.T) {
	// A full week starting on a Monday.
	base := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		date := base.AddDate(0, 0, i)
		idx := DayIndex(date)

		wd, err := Weekday(idx)
		if err != nil {
			t.Fatalf("Weekday(%d): %v", idx, err)
		}
		if wd != date.Weekday() {
			t.Errorf("round trip for %s: got %s, want %s", date.Format("2006-01-02"), wd, date.Weekday())
		}
	}
}

func TestWeekdayOutOfRange(t *testing.T) {
	for _, idx := range []int{0, 8, -1} {
		_, err := Weekday(idx)
		if err == nil {
			t.Errorf("Weekday(%d) should fail", idx)
			continue
		}
		if !errors.Is(err, response.ErrConfiguration) {
			t.Errorf("Weekday(%d) error = %v, want configuration error", idx, err)
		}
	}
}
