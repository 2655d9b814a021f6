package models

import (
	"fmt"
	"time"
)

// TimeOfDay is a minute-precision local time of day (minutes since midnight).
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts "15:04" and "15:04:05" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}

	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

type WorkingHours struct {
	ProviderID string    `db:"provider_id"`
	DayOfWeek  int       `db:"day_of_week"` // 1=Monday .. 7=Sunday
	StartTime  TimeOfDay `db:"start_time"`
	EndTime    TimeOfDay `db:"end_time"`
	IsWorking  bool      `db:"is_working"`
}

type AvailabilityException struct {
	ID          string    `db:"id"`
	ProviderID  string    `db:"provider_id"`
	Date        time.Time `db:"date"`
	IsAvailable bool      `db:"is_available"`
	Reason      string    `db:"reason"`
}

type CustomTimeSlot struct {
	ID          string    `db:"id"`
	ProviderID  string    `db:"provider_id"`
	Date        time.Time `db:"date"`
	StartTime   TimeOfDay `db:"start_time"`
	EndTime     TimeOfDay `db:"end_time"`
	IsAvailable bool      `db:"is_available"`
}

type AvailabilitySettings struct {
	ProviderID          string `db:"provider_id"`
	SlotDurationMinutes int    `db:"slot_duration_minutes"`
	TimeFormat12h       bool   `db:"time_format_12h"`
	Timezone            string `db:"timezone"`
}

const DefaultSlotDurationMinutes = 60

// DefaultSettings is what resolution falls back to when a provider never
// saved settings.
func DefaultSettings(providerID string) *AvailabilitySettings {
	return &AvailabilitySettings{
		ProviderID:          providerID,
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		TimeFormat12h:       false,
		Timezone:            "UTC",
	}
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}

// bookingTransitions is the full lifecycle table. cancelled and completed are
// terminal. A no-show can still be cancelled by the provider.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingNoShow},
	BookingConfirmed: {BookingCompleted, BookingCancelled, BookingNoShow},
	BookingNoShow:    {BookingCancelled},
}

func CanTransition(from, to BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// Occupying reports whether a booking in this status still holds its slot.
func (s BookingStatus) Occupying() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID          string        `db:"id"`
	ProviderID  string        `db:"provider_id"`
	Date        time.Time     `db:"date"`
	StartTime   TimeOfDay     `db:"start_time"`
	EndTime     TimeOfDay     `db:"end_time"`
	ClientName  string        `db:"client_name"`
	ClientEmail string        `db:"client_email"`
	ClientPhone string        `db:"client_phone"`
	Notes       string        `db:"notes"`
	Status      BookingStatus `db:"status"`
	AccessToken string        `db:"access_token"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
