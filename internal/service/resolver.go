package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotbook/api"
	"slotbook/internal/calendar"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/slots"
	"slotbook/pkg/response"
)

// Basis source names, also used as the metrics label.
const (
	basisException = "exception"
	basisCustom    = "custom"
	basisGenerated = "generated"
	basisClosed    = "closed"
)

// candidateSlot is one window of the authoritative slot basis before live
// bookings are applied.
type candidateSlot struct {
	start     models.TimeOfDay
	end       models.TimeOfDay
	available bool
}

// slotBasis is the authoritative answer of the precedence chain for a date.
type slotBasis struct {
	isWorkingDay bool
	source       string
	slots        []candidateSlot
}

// basisSource inspects one precedence level. A nil basis means "defer to the
// next source"; a non-nil basis is authoritative and short-circuits the
// chain.
type basisSource func(ctx context.Context, providerID string, date time.Time, forceWorking bool) (*slotBasis, error)

// resolveBasis merges the differently-precedenced schedule sources:
// exceptions dominate everything, explicit custom slots replace generation,
// and the weekly working-hours default is the fallback.
func (s *Service) resolveBasis(ctx context.Context, providerID string, date time.Time) (*slotBasis, error) {
	forceWorking := false

	exception, err := s.store.GetExceptionForDate(ctx, providerID, date)
	if err != nil && !errors.Is(err, response.ErrNotFound) {
		return nil, err
	}
	if err == nil {
		if !exception.IsAvailable {
			return &slotBasis{isWorkingDay: false, source: basisException}, nil
		}
		// An available exception keeps the date open even if the weekly
		// schedule says otherwise.
		forceWorking = true
	}

	for _, source := range []basisSource{s.customSlotBasis, s.generatedBasis} {
		basis, err := source(ctx, providerID, date, forceWorking)
		if err != nil {
			return nil, err
		}
		if basis != nil {
			return basis, nil
		}
	}

	return &slotBasis{isWorkingDay: false, source: basisClosed}, nil
}

// customSlotBasis is authoritative whenever the provider listed explicit
// slots for the date: they fully replace generation, with their own
// availability flag as the starting availability.
func (s *Service) customSlotBasis(ctx context.Context, providerID string, date time.Time, _ bool) (*slotBasis, error) {
	customSlots, err := s.store.ListCustomSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(customSlots) == 0 {
		return nil, nil
	}

	basis := &slotBasis{isWorkingDay: true, source: basisCustom}
	for _, cs := range customSlots {
		basis.slots = append(basis.slots, candidateSlot{
			start:     cs.StartTime,
			end:       cs.EndTime,
			available: cs.IsAvailable,
		})
	}

	return basis, nil
}

// generatedBasis derives candidate windows from the weekly working hours and
// the provider's slot duration. It is the last source and always answers.
func (s *Service) generatedBasis(ctx context.Context, providerID string, date time.Time, forceWorking bool) (*slotBasis, error) {
	wh, err := s.store.GetWorkingHoursForDay(ctx, providerID, calendar.DayIndex(date))
	if err != nil && !errors.Is(err, response.ErrNotFound) {
		return nil, err
	}

	open := models.NewTimeOfDay(9, 0)
	close := models.NewTimeOfDay(17, 0)

	switch {
	case wh != nil && wh.IsWorking:
		open = wh.StartTime
		close = wh.EndTime
	case forceWorking:
		// Exception opened a day the weekly schedule closes. A non-working
		// row's stored window is ignored (it may never have been set), so
		// the bootstrap default window applies, same as a missing row.
	default:
		return &slotBasis{isWorkingDay: false, source: basisClosed}, nil
	}

	settings, err := s.settingsOrDefault(ctx, providerID)
	if err != nil {
		return nil, err
	}

	windows, err := slots.Generate(open, close, settings.SlotDurationMinutes)
	if err != nil {
		return nil, err
	}

	basis := &slotBasis{isWorkingDay: true, source: basisGenerated}
	for _, w := range windows {
		basis.slots = append(basis.slots, candidateSlot{start: w.Start, end: w.End, available: true})
	}

	return basis, nil
}

// ResolveAvailability computes the bookable windows for a provider and date:
// the authoritative basis from the precedence chain, cross-referenced with
// live (pending or confirmed) bookings by exact-interval equality.
func (s *Service) ResolveAvailability(ctx context.Context, providerID string, dateStr string) (*api.AvailabilityResponse, error) {
	const op = "service.ResolveAvailability"

	date, err := parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	basis, err := s.resolveBasis(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.AvailabilityResponse{
		ProviderID:   providerID,
		Date:         dateStr,
		IsWorkingDay: basis.isWorkingDay,
		Slots:        []api.Slot{},
	}

	if !basis.isWorkingDay {
		metrics.IncAvailabilityResolved(basis.source)
		return resp, nil
	}

	booked, err := s.bookedWindows(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, cs := range basis.slots {
		isBooked := booked[window{cs.start, cs.end}]
		resp.Slots = append(resp.Slots, api.Slot{
			Start:       cs.start.String(),
			End:         cs.end.String(),
			IsAvailable: cs.available && !isBooked,
			IsBooked:    isBooked,
		})
	}

	metrics.IncAvailabilityResolved(basis.source)

	return resp, nil
}

type window struct {
	start models.TimeOfDay
	end   models.TimeOfDay
}

// bookedWindows collects the exact windows occupied by non-terminal bookings
// on a date. Matching is exact-interval equality, never overlap.
func (s *Service) bookedWindows(ctx context.Context, providerID string, date time.Time) (map[window]bool, error) {
	bookings, err := s.store.ListBookingsForDate(ctx, providerID, date,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed})
	if err != nil {
		return nil, err
	}

	booked := make(map[window]bool, len(bookings))
	for _, b := range bookings {
		booked[window{b.StartTime, b.EndTime}] = true
	}

	return booked, nil
}
