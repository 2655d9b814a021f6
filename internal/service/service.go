package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotbook/api"
	"slotbook/internal/calendar"
	"slotbook/internal/holidays"
	"slotbook/internal/lock"
	"slotbook/internal/models"
	"slotbook/internal/storage"
	"slotbook/pkg/response"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// recurring exception inserts are bounded so a typo'd year range cannot
// flood the table
const maxRecurringYears = 50

type Service struct {
	store    Store
	locker   lock.Locker
	holidays holidays.Provider
}

func NewService(store Store, locker lock.Locker, holidayProvider holidays.Provider) *Service {
	return &Service{store: store, locker: locker, holidays: holidayProvider}
}

type Store interface {
	BeginTx(ctx context.Context) (storage.Tx, error)

	// Working hours
	GetWorkingHours(ctx context.Context, providerID string) ([]*models.WorkingHours, error)
	GetWorkingHoursForDay(ctx context.Context, providerID string, dayOfWeek int) (*models.WorkingHours, error)
	UpsertWorkingHours(ctx context.Context, wh *models.WorkingHours) error
	BootstrapWorkingHours(ctx context.Context, defaults []*models.WorkingHours) (int64, error)

	// Availability exceptions
	GetExceptionForDate(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityException, error)
	ListExceptions(ctx context.Context, providerID string, from, to *time.Time) ([]*models.AvailabilityException, error)
	UpsertException(ctx context.Context, e *models.AvailabilityException) (string, error)
	DeleteException(ctx context.Context, id string) error

	// Custom time slots
	ListCustomSlotsForDate(ctx context.Context, providerID string, date time.Time) ([]*models.CustomTimeSlot, error)
	GetCustomSlot(ctx context.Context, id string) (*models.CustomTimeSlot, error)
	CreateCustomSlot(ctx context.Context, cs *models.CustomTimeSlot) (string, error)
	UpdateCustomSlotAvailability(ctx context.Context, id string, isAvailable bool) error
	SetCustomSlotAvailabilityTx(ctx context.Context, tx storage.Tx, providerID string, date time.Time, start, end models.TimeOfDay, isAvailable bool) error
	DeleteCustomSlot(ctx context.Context, id string) error

	// Bookings
	CreateBookingTx(ctx context.Context, tx storage.Tx, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByToken(ctx context.Context, token string) (*models.Booking, error)
	ListBookingsForDate(ctx context.Context, providerID string, date time.Time, statuses []models.BookingStatus) ([]*models.Booking, error)
	ListBookings(ctx context.Context, providerID string, from, to *time.Time, status *models.BookingStatus) ([]*models.Booking, error)
	UpdateBookingContact(ctx context.Context, id, name, email, phone, notes string) error
	UpdateBookingStatusTx(ctx context.Context, tx storage.Tx, id string, from, to models.BookingStatus) error

	// Availability settings
	GetSettings(ctx context.Context, providerID string) (*models.AvailabilitySettings, error)
	UpsertSettings(ctx context.Context, st *models.AvailabilitySettings) error
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, response.ErrValidation)
	}
	return d, nil
}

func parseWindow(startStr, endStr string) (models.TimeOfDay, models.TimeOfDay, error) {
	start, err := models.ParseTimeOfDay(startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start %q: %w", startStr, response.ErrValidation)
	}
	end, err := models.ParseTimeOfDay(endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end %q: %w", endStr, response.ErrValidation)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("end %s must be after start %s: %w", end, start, response.ErrValidation)
	}
	return start, end, nil
}

// settingsOrDefault never fails availability resolution on a missing
// settings row.
func (s *Service) settingsOrDefault(ctx context.Context, providerID string) (*models.AvailabilitySettings, error) {
	settings, err := s.store.GetSettings(ctx, providerID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return models.DefaultSettings(providerID), nil
		}
		return nil, err
	}
	return settings, nil
}

// Working hours

func (s *Service) GetWorkingHours(ctx context.Context, providerID string) (*api.WorkingHoursResponse, error) {
	const op = "service.GetWorkingHours"

	rows, err := s.store.GetWorkingHours(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	days := make([]api.WorkingHoursDay, 0, len(rows))
	for _, wh := range rows {
		wd, err := calendar.Weekday(wh.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		days = append(days, api.WorkingHoursDay{
			DayOfWeek: wh.DayOfWeek,
			DayName:   wd.String(),
			Start:     wh.StartTime.String(),
			End:       wh.EndTime.String(),
			IsWorking: wh.IsWorking,
		})
	}

	return &api.WorkingHoursResponse{ProviderID: providerID, Days: days}, nil
}

func (s *Service) SetWorkingHours(ctx context.Context, req *api.WorkingHoursSetRequest) (*api.WorkingHoursResponse, error) {
	const op = "service.SetWorkingHours"

	seen := make(map[int]bool, len(req.Days))
	rows := make([]*models.WorkingHours, 0, len(req.Days))

	for _, day := range req.Days {
		if seen[day.DayOfWeek] {
			return nil, fmt.Errorf("%s: duplicate day_of_week %d: %w", op, day.DayOfWeek, response.ErrValidation)
		}
		seen[day.DayOfWeek] = true

		wh := &models.WorkingHours{
			ProviderID: req.ProviderID,
			DayOfWeek:  day.DayOfWeek,
			IsWorking:  day.IsWorking,
		}

		// start/end are ignored on non-working days
		if day.IsWorking {
			start, end, err := parseWindow(day.Start, day.End)
			if err != nil {
				return nil, fmt.Errorf("%s: day %d: %w", op, day.DayOfWeek, err)
			}
			wh.StartTime = start
			wh.EndTime = end
		}

		rows = append(rows, wh)
	}

	for _, wh := range rows {
		if err := s.store.UpsertWorkingHours(ctx, wh); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.GetWorkingHours(ctx, req.ProviderID)
}

// BootstrapWorkingHours seeds the default weekly schedule (Mon-Fri
// 09:00-17:00 working, weekend off) without touching days the provider has
// already configured. Returns the number of days inserted.
func (s *Service) BootstrapWorkingHours(ctx context.Context, providerID string) (int64, error) {
	const op = "service.BootstrapWorkingHours"

	defaults := make([]*models.WorkingHours, 0, 7)
	for day := calendar.Monday; day <= calendar.Sunday; day++ {
		defaults = append(defaults, &models.WorkingHours{
			ProviderID: providerID,
			DayOfWeek:  day,
			StartTime:  models.NewTimeOfDay(9, 0),
			EndTime:    models.NewTimeOfDay(17, 0),
			IsWorking:  day < calendar.Saturday,
		})
	}

	inserted, err := s.store.BootstrapWorkingHours(ctx, defaults)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return inserted, nil
}

// Availability exceptions

func exceptionToResponse(e *models.AvailabilityException) *api.ExceptionResponse {
	return &api.ExceptionResponse{
		ID:          e.ID,
		ProviderID:  e.ProviderID,
		Date:        e.Date.Format(dateLayout),
		IsAvailable: e.IsAvailable,
		Reason:      e.Reason,
	}
}

func (s *Service) CreateException(ctx context.Context, req *api.ExceptionCreateRequest) (*api.ExceptionResponse, error) {
	const op = "service.CreateException"

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e := &models.AvailabilityException{
		ID:          uuid.NewString(),
		ProviderID:  req.ProviderID,
		Date:        date,
		IsAvailable: req.IsAvailable,
		Reason:      req.Reason,
	}

	id, err := s.store.UpsertException(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.ID = id

	return exceptionToResponse(e), nil
}

func (s *Service) ListExceptions(ctx context.Context, providerID string, from, to *time.Time) ([]*api.ExceptionResponse, error) {
	const op = "service.ListExceptions"

	exceptions, err := s.store.ListExceptions(ctx, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ExceptionResponse, 0, len(exceptions))
	for _, e := range exceptions {
		result = append(result, exceptionToResponse(e))
	}

	return result, nil
}

func (s *Service) DeleteException(ctx context.Context, id string) error {
	const op = "service.DeleteException"

	if err := s.store.DeleteException(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CreateRecurringExceptions inserts one unavailable exception per year over
// an explicit year range. Years where the date does not exist (Feb 29 on a
// non-leap year) are skipped.
func (s *Service) CreateRecurringExceptions(ctx context.Context, req *api.RecurringExceptionRequest) ([]*api.ExceptionResponse, error) {
	const op = "service.CreateRecurringExceptions"

	if req.ToYear < req.FromYear {
		return nil, fmt.Errorf("%s: to_year before from_year: %w", op, response.ErrValidation)
	}
	if req.ToYear-req.FromYear+1 > maxRecurringYears {
		return nil, fmt.Errorf("%s: year range exceeds %d years: %w", op, maxRecurringYears, response.ErrValidation)
	}

	var created []*api.ExceptionResponse
	for year := req.FromYear; year <= req.ToYear; year++ {
		date := time.Date(year, time.Month(req.Month), req.Day, 0, 0, 0, 0, time.UTC)
		if int(date.Month()) != req.Month || date.Day() != req.Day {
			continue
		}

		e := &models.AvailabilityException{
			ID:          uuid.NewString(),
			ProviderID:  req.ProviderID,
			Date:        date,
			IsAvailable: false,
			Reason:      req.Reason,
		}

		id, err := s.store.UpsertException(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("%s: year %d: %w", op, year, err)
		}
		e.ID = id

		created = append(created, exceptionToResponse(e))
	}

	return created, nil
}

// SeedHolidayExceptions walks [from, to] and inserts an unavailable
// exception for every date the holiday collaborator marks non-working.
// The collaborator is never consulted at resolution time.
func (s *Service) SeedHolidayExceptions(ctx context.Context, req *api.SeedHolidaysRequest) ([]*api.ExceptionResponse, error) {
	const op = "service.SeedHolidayExceptions"

	from, err := parseDate(req.From)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%s: to before from: %w", op, response.ErrValidation)
	}

	var created []*api.ExceptionResponse
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		nonWorking, name, err := s.holidays.IsNonWorkingDate(ctx, d, req.Region)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !nonWorking {
			continue
		}

		e := &models.AvailabilityException{
			ID:          uuid.NewString(),
			ProviderID:  req.ProviderID,
			Date:        d,
			IsAvailable: false,
			Reason:      name,
		}

		id, err := s.store.UpsertException(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.ID = id

		created = append(created, exceptionToResponse(e))
	}

	return created, nil
}

// Custom time slots

func customSlotToResponse(cs *models.CustomTimeSlot) *api.CustomSlotResponse {
	return &api.CustomSlotResponse{
		ID:          cs.ID,
		ProviderID:  cs.ProviderID,
		Date:        cs.Date.Format(dateLayout),
		Start:       cs.StartTime.String(),
		End:         cs.EndTime.String(),
		IsAvailable: cs.IsAvailable,
	}
}

func (s *Service) ListCustomSlots(ctx context.Context, providerID string, dateStr string) ([]*api.CustomSlotResponse, error) {
	const op = "service.ListCustomSlots"

	date, err := parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.store.ListCustomSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.CustomSlotResponse, 0, len(slots))
	for _, cs := range slots {
		result = append(result, customSlotToResponse(cs))
	}

	return result, nil
}

func (s *Service) CreateCustomSlot(ctx context.Context, req *api.CustomSlotCreateRequest) (*api.CustomSlotResponse, error) {
	const op = "service.CreateCustomSlot"

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	cs := &models.CustomTimeSlot{
		ID:          uuid.NewString(),
		ProviderID:  req.ProviderID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: isAvailable,
	}

	if _, err := s.store.CreateCustomSlot(ctx, cs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return customSlotToResponse(cs), nil
}

func (s *Service) UpdateCustomSlot(ctx context.Context, id string, req *api.CustomSlotUpdateRequest) (*api.CustomSlotResponse, error) {
	const op = "service.UpdateCustomSlot"

	cs, err := s.store.GetCustomSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Re-opening a slot that a live booking occupies would double-book it.
	if req.IsAvailable && !cs.IsAvailable {
		occupied, err := s.slotOccupied(ctx, cs.ProviderID, cs.Date, cs.StartTime, cs.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if occupied {
			return nil, fmt.Errorf("%s: slot has a live booking: %w", op, response.ErrConflict)
		}
	}

	if err := s.store.UpdateCustomSlotAvailability(ctx, id, req.IsAvailable); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cs.IsAvailable = req.IsAvailable

	return customSlotToResponse(cs), nil
}

func (s *Service) DeleteCustomSlot(ctx context.Context, id string) error {
	const op = "service.DeleteCustomSlot"

	cs, err := s.store.GetCustomSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Deleting the slot under a live booking would orphan the booking's
	// window; the provider must cancel the booking first.
	occupied, err := s.slotOccupied(ctx, cs.ProviderID, cs.Date, cs.StartTime, cs.EndTime)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if occupied {
		return fmt.Errorf("%s: slot has a live booking: %w", op, response.ErrConflict)
	}

	if err := s.store.DeleteCustomSlot(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// slotOccupied reports whether a non-terminal booking exactly occupies the
// window.
func (s *Service) slotOccupied(ctx context.Context, providerID string, date time.Time, start, end models.TimeOfDay) (bool, error) {
	bookings, err := s.store.ListBookingsForDate(ctx, providerID, date,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed})
	if err != nil {
		return false, err
	}

	for _, b := range bookings {
		if b.StartTime == start && b.EndTime == end {
			return true, nil
		}
	}

	return false, nil
}

// Availability settings

func (s *Service) GetSettings(ctx context.Context, providerID string) (*api.SettingsResponse, error) {
	const op = "service.GetSettings"

	settings, err := s.settingsOrDefault(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.SettingsResponse{
		ProviderID:          settings.ProviderID,
		SlotDurationMinutes: settings.SlotDurationMinutes,
		TimeFormat12h:       settings.TimeFormat12h,
		Timezone:            settings.Timezone,
	}, nil
}

func (s *Service) SetSettings(ctx context.Context, req *api.SettingsRequest) (*api.SettingsResponse, error) {
	const op = "service.SetSettings"

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%s: unknown timezone %q: %w", op, timezone, response.ErrValidation)
	}

	settings := &models.AvailabilitySettings{
		ProviderID:          req.ProviderID,
		SlotDurationMinutes: req.SlotDurationMinutes,
		TimeFormat12h:       req.TimeFormat12h,
		Timezone:            timezone,
	}

	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSettings(ctx, req.ProviderID)
}
