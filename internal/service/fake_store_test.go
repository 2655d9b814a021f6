package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"slotbook/internal/models"
	"slotbook/internal/storage"
	"slotbook/pkg/response"
)

// fakeStore is an in-memory Store with the same conflict semantics the
// database enforces: one non-terminal booking per exact slot, status updates
// predicated on the current status.
type fakeStore struct {
	mu sync.Mutex

	workingHours map[string]map[int]models.WorkingHours
	exceptions   map[string]models.AvailabilityException
	customSlots  map[string]models.CustomTimeSlot
	bookings     map[string]models.Booking
	settings     map[string]models.AvailabilitySettings
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workingHours: make(map[string]map[int]models.WorkingHours),
		exceptions:   make(map[string]models.AvailabilityException),
		customSlots:  make(map[string]models.CustomTimeSlot),
		bookings:     make(map[string]models.Booking),
		settings:     make(map[string]models.AvailabilitySettings),
	}
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func (f *fakeStore) BeginTx(_ context.Context) (storage.Tx, error) {
	return fakeTx{}, nil
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}

// #### working hours ####

func (f *fakeStore) GetWorkingHours(_ context.Context, providerID string) ([]*models.WorkingHours, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.WorkingHours
	for _, wh := range f.workingHours[providerID] {
		cp := wh
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayOfWeek < result[j].DayOfWeek })

	return result, nil
}

func (f *fakeStore) GetWorkingHoursForDay(_ context.Context, providerID string, dayOfWeek int) (*models.WorkingHours, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wh, ok := f.workingHours[providerID][dayOfWeek]
	if !ok {
		return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	cp := wh

	return &cp, nil
}

func (f *fakeStore) UpsertWorkingHours(_ context.Context, wh *models.WorkingHours) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.workingHours[wh.ProviderID] == nil {
		f.workingHours[wh.ProviderID] = make(map[int]models.WorkingHours)
	}
	f.workingHours[wh.ProviderID][wh.DayOfWeek] = *wh

	return nil
}

func (f *fakeStore) BootstrapWorkingHours(_ context.Context, defaults []*models.WorkingHours) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var inserted int64
	for _, wh := range defaults {
		if f.workingHours[wh.ProviderID] == nil {
			f.workingHours[wh.ProviderID] = make(map[int]models.WorkingHours)
		}
		if _, ok := f.workingHours[wh.ProviderID][wh.DayOfWeek]; ok {
			continue
		}
		f.workingHours[wh.ProviderID][wh.DayOfWeek] = *wh
		inserted++
	}

	return inserted, nil
}

// #### availability exceptions ####

func (f *fakeStore) GetExceptionForDate(_ context.Context, providerID string, date time.Time) (*models.AvailabilityException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.exceptions {
		if e.ProviderID == providerID && dateKey(e.Date) == dateKey(date) {
			cp := e
			return &cp, nil
		}
	}

	return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
}

func (f *fakeStore) ListExceptions(_ context.Context, providerID string, from, to *time.Time) ([]*models.AvailabilityException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.AvailabilityException
	for _, e := range f.exceptions {
		if e.ProviderID != providerID {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		cp := e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })

	return result, nil
}

func (f *fakeStore) UpsertException(_ context.Context, e *models.AvailabilityException) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, existing := range f.exceptions {
		if existing.ProviderID == e.ProviderID && dateKey(existing.Date) == dateKey(e.Date) {
			existing.IsAvailable = e.IsAvailable
			existing.Reason = e.Reason
			f.exceptions[id] = existing
			return id, nil
		}
	}

	f.exceptions[e.ID] = *e

	return e.ID, nil
}

func (f *fakeStore) DeleteException(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.exceptions[id]; !ok {
		return fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	delete(f.exceptions, id)

	return nil
}

// #### custom time slots ####

func (f *fakeStore) ListCustomSlotsForDate(_ context.Context, providerID string, date time.Time) ([]*models.CustomTimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.CustomTimeSlot
	for _, cs := range f.customSlots {
		if cs.ProviderID == providerID && dateKey(cs.Date) == dateKey(date) {
			cp := cs
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })

	return result, nil
}

func (f *fakeStore) GetCustomSlot(_ context.Context, id string) (*models.CustomTimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cs, ok := f.customSlots[id]
	if !ok {
		return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	cp := cs

	return &cp, nil
}

func (f *fakeStore) CreateCustomSlot(_ context.Context, cs *models.CustomTimeSlot) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.customSlots {
		if existing.ProviderID == cs.ProviderID &&
			dateKey(existing.Date) == dateKey(cs.Date) &&
			existing.StartTime == cs.StartTime &&
			existing.EndTime == cs.EndTime {
			return "", fmt.Errorf("fakeStore: %w", response.ErrConflict)
		}
	}

	f.customSlots[cs.ID] = *cs

	return cs.ID, nil
}

func (f *fakeStore) UpdateCustomSlotAvailability(_ context.Context, id string, isAvailable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cs, ok := f.customSlots[id]
	if !ok {
		return fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	cs.IsAvailable = isAvailable
	f.customSlots[id] = cs

	return nil
}

func (f *fakeStore) SetCustomSlotAvailabilityTx(_ context.Context, _ storage.Tx, providerID string, date time.Time, start, end models.TimeOfDay, isAvailable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, cs := range f.customSlots {
		if cs.ProviderID == providerID &&
			dateKey(cs.Date) == dateKey(date) &&
			cs.StartTime == start && cs.EndTime == end {
			cs.IsAvailable = isAvailable
			f.customSlots[id] = cs
		}
	}

	return nil
}

func (f *fakeStore) DeleteCustomSlot(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.customSlots[id]; !ok {
		return fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	delete(f.customSlots, id)

	return nil
}

// #### bookings ####

func (f *fakeStore) CreateBookingTx(_ context.Context, _ storage.Tx, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.bookings {
		if existing.ProviderID == b.ProviderID &&
			dateKey(existing.Date) == dateKey(b.Date) &&
			existing.StartTime == b.StartTime &&
			existing.EndTime == b.EndTime &&
			existing.Status.Occupying() {
			return fmt.Errorf("fakeStore: %w", response.ErrSlotTaken)
		}
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	f.bookings[b.ID] = *b

	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	cp := b

	return &cp, nil
}

func (f *fakeStore) GetBookingByToken(_ context.Context, token string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.AccessToken == token {
			cp := b
			return &cp, nil
		}
	}

	return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
}

func (f *fakeStore) ListBookingsForDate(_ context.Context, providerID string, date time.Time, statuses []models.BookingStatus) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match := make(map[models.BookingStatus]bool, len(statuses))
	for _, st := range statuses {
		match[st] = true
	}

	var result []*models.Booking
	for _, b := range f.bookings {
		if b.ProviderID == providerID && dateKey(b.Date) == dateKey(date) && match[b.Status] {
			cp := b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })

	return result, nil
}

func (f *fakeStore) ListBookings(_ context.Context, providerID string, from, to *time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.Booking
	for _, b := range f.bookings {
		if b.ProviderID != providerID {
			continue
		}
		if from != nil && b.Date.Before(*from) {
			continue
		}
		if to != nil && b.Date.After(*to) {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		cp := b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})

	return result, nil
}

func (f *fakeStore) UpdateBookingContact(_ context.Context, id, name, email, phone, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok || !b.Status.Occupying() {
		return fmt.Errorf("fakeStore: %w", response.ErrInvalidState)
	}
	b.ClientName = name
	b.ClientEmail = email
	b.ClientPhone = phone
	b.Notes = notes
	b.UpdatedAt = time.Now()
	f.bookings[id] = b

	return nil
}

func (f *fakeStore) UpdateBookingStatusTx(_ context.Context, _ storage.Tx, id string, from, to models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return fmt.Errorf("fakeStore: %w", response.ErrInvalidState)
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	f.bookings[id] = b

	return nil
}

// #### availability settings ####

func (f *fakeStore) GetSettings(_ context.Context, providerID string) (*models.AvailabilitySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.settings[providerID]
	if !ok {
		return nil, fmt.Errorf("fakeStore: %w", response.ErrNotFound)
	}
	cp := st

	return &cp, nil
}

func (f *fakeStore) UpsertSettings(_ context.Context, st *models.AvailabilitySettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.settings[st.ProviderID] = *st

	return nil
}

// fakeLocker grants every lock unless deny is set.
type fakeLocker struct {
	deny bool
}

func (l *fakeLocker) Lock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return !l.deny, nil
}

func (l *fakeLocker) Unlock(_ context.Context, _ string) error {
	return nil
}

// fakeHolidays marks the configured dates as non-working.
type fakeHolidays struct {
	dates map[string]string
}

func (h *fakeHolidays) IsNonWorkingDate(_ context.Context, date time.Time, _ string) (bool, string, error) {
	name, ok := h.dates[dateKey(date)]
	return ok, name, nil
}
