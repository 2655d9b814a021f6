package api

import "time"

// Availability

type Slot struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAvailable bool   `json:"is_available"`
	IsBooked    bool   `json:"is_booked"`
}

type AvailabilityResponse struct {
	ProviderID   string `json:"provider_id"`
	Date         string `json:"date"`
	IsWorkingDay bool   `json:"is_working_day"`
	Slots        []Slot `json:"slots"`
}

// Bookings

type BookingCreateRequest struct {
	ProviderID  string `json:"provider_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
	ClientName  string `json:"client_name" validate:"required,min=2,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	ClientPhone string `json:"client_phone,omitempty" validate:"omitempty,max=40"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// BookingResponse never carries the access token; it is issued exactly once
// in BookingCreatedResponse.
type BookingResponse struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	Date        string    `json:"date"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone string    `json:"client_phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BookingCreatedResponse struct {
	Booking     BookingResponse `json:"booking"`
	AccessToken string          `json:"access_token"`
}

type BookingUpdateRequest struct {
	ClientName  *string `json:"client_name,omitempty" validate:"omitempty,min=2,max=200"`
	ClientEmail *string `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone *string `json:"client_phone,omitempty" validate:"omitempty,max=40"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Working hours

type WorkingHoursDay struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	DayName   string `json:"day_name,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	IsWorking bool   `json:"is_working"`
}

type WorkingHoursSetRequest struct {
	ProviderID string            `json:"provider_id" validate:"required"`
	Days       []WorkingHoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

type WorkingHoursResponse struct {
	ProviderID string            `json:"provider_id"`
	Days       []WorkingHoursDay `json:"days"`
}

type WorkingHoursBootstrapRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

// Exceptions

type ExceptionCreateRequest struct {
	ProviderID  string `json:"provider_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ExceptionResponse struct {
	ID          string `json:"id"`
	ProviderID  string `json:"provider_id"`
	Date        string `json:"date"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
}

type RecurringExceptionRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Day        int    `json:"day" validate:"required,min=1,max=31"`
	Reason     string `json:"reason,omitempty" validate:"omitempty,max=500"`
	FromYear   int    `json:"from_year" validate:"required,min=1970"`
	ToYear     int    `json:"to_year" validate:"required,min=1970"`
}

type SeedHolidaysRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	Region     string `json:"region" validate:"required,len=2"`
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required"`
}

// Custom slots

type CustomSlotCreateRequest struct {
	ProviderID  string `json:"provider_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

type CustomSlotUpdateRequest struct {
	IsAvailable bool `json:"is_available"`
}

type CustomSlotResponse struct {
	ID          string `json:"id"`
	ProviderID  string `json:"provider_id"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAvailable bool   `json:"is_available"`
}

// Settings

type SettingsRequest struct {
	ProviderID          string `json:"provider_id" validate:"required"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"required,min=5,max=720"`
	TimeFormat12h       bool   `json:"time_format_12h"`
	Timezone            string `json:"timezone" validate:"omitempty,max=64"`
}

type SettingsResponse struct {
	ProviderID          string `json:"provider_id"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	TimeFormat12h       bool   `json:"time_format_12h"`
	Timezone            string `json:"timezone"`
}
