package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotbook/api"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/pkg/response"

	"github.com/google/uuid"
)

const slotLockTTL = 10 * time.Second

func bookingToResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:          b.ID,
		ProviderID:  b.ProviderID,
		Date:        b.Date.Format(dateLayout),
		Start:       b.StartTime.String(),
		End:         b.EndTime.String(),
		ClientName:  b.ClientName,
		ClientEmail: b.ClientEmail,
		ClientPhone: b.ClientPhone,
		Notes:       b.Notes,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// CreateBooking places a pending booking on a currently-available slot. The
// advisory lock narrows the race window; the partial unique index over
// non-terminal bookings decides it. The access token appears only in this
// response.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingCreatedResponse, error) {
	const op = "service.CreateBooking"

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockKey := fmt.Sprintf("slot:%s:%s:%s-%s", req.ProviderID, req.Date, start, end)

	locked, err := s.locker.Lock(ctx, lockKey, slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	basis, err := s.resolveBasis(ctx, req.ProviderID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !basis.isWorkingDay {
		metrics.IncBookingConflict()
		return nil, fmt.Errorf("%s: not a working day: %w", op, response.ErrSlotTaken)
	}

	candidateOpen := false
	for _, cs := range basis.slots {
		if cs.start == start && cs.end == end {
			candidateOpen = cs.available
			break
		}
	}
	if !candidateOpen {
		metrics.IncBookingConflict()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
	}

	booked, err := s.bookedWindows(ctx, req.ProviderID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if booked[window{start, end}] {
		metrics.IncBookingConflict()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
	}

	token, err := newAccessToken()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking := &models.Booking{
		ID:          uuid.NewString(),
		ProviderID:  req.ProviderID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
		Status:      models.BookingPending,
		AccessToken: token,
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.CreateBookingTx(ctx, tx, booking); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotTaken) {
			metrics.IncBookingConflict()
		}
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	// A booked custom slot is closed explicitly; generated slots need no
	// marker since resolution recomputes booked state from live bookings.
	if basis.source == basisCustom {
		if err := s.store.SetCustomSlotAvailabilityTx(ctx, tx, req.ProviderID, date, start, end, false); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: close custom slot: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	metrics.IncBookingCreated()

	return &api.BookingCreatedResponse{
		Booking:     *bookingToResponse(booking),
		AccessToken: token,
	}, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingToResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, providerID string, from, to *time.Time, statusStr *string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	var status *models.BookingStatus
	if statusStr != nil {
		st := models.BookingStatus(*statusStr)
		if !models.ValidBookingStatus(st) {
			return nil, fmt.Errorf("%s: unknown status %q: %w", op, *statusStr, response.ErrValidation)
		}
		status = &st
	}

	bookings, err := s.store.ListBookings(ctx, providerID, from, to, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, bookingToResponse(b))
	}

	return result, nil
}

// UpdateBookingByToken edits client contact fields only. Possession of the
// access token is the sole authorization.
func (s *Service) UpdateBookingByToken(ctx context.Context, token string, req *api.BookingUpdateRequest) (*api.BookingResponse, error) {
	const op = "service.UpdateBookingByToken"

	booking, err := s.store.GetBookingByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !booking.Status.Occupying() {
		return nil, fmt.Errorf("%s: status %s: %w", op, booking.Status, response.ErrInvalidState)
	}

	if req.ClientName != nil {
		booking.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		booking.ClientEmail = *req.ClientEmail
	}
	if req.ClientPhone != nil {
		booking.ClientPhone = *req.ClientPhone
	}
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}

	err = s.store.UpdateBookingContact(ctx, booking.ID,
		booking.ClientName, booking.ClientEmail, booking.ClientPhone, booking.Notes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, booking.ID)
}

// CancelBookingByToken is the client self-service cancellation path.
func (s *Service) CancelBookingByToken(ctx context.Context, token string) (*api.BookingResponse, error) {
	const op = "service.CancelBookingByToken"

	booking, err := s.store.GetBookingByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.cancel(ctx, op, booking)
}

// CancelBooking is the provider-side cancellation path.
func (s *Service) CancelBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.cancel(ctx, op, booking)
}

func (s *Service) cancel(ctx context.Context, op string, booking *models.Booking) (*api.BookingResponse, error) {
	switch booking.Status {
	case models.BookingCancelled:
		return nil, fmt.Errorf("%s: %w", op, response.ErrAlreadyCancelled)
	case models.BookingCompleted:
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	// The custom slot was already released if the booking left its
	// occupying status earlier (no-show).
	releaseSlot := booking.Status.Occupying()

	if err := s.transition(ctx, booking, models.BookingCancelled, releaseSlot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, booking.ID)
}

// TransitionBooking is the authenticated-provider status transition
// (confirm, complete, mark no-show).
func (s *Service) TransitionBooking(ctx context.Context, id string, target models.BookingStatus) (*api.BookingResponse, error) {
	const op = "service.TransitionBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !models.CanTransition(booking.Status, target) {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, booking.Status, target, response.ErrInvalidState)
	}

	// A no-show frees its slot for rebooking; completion does not.
	releaseSlot := booking.Status.Occupying() && target == models.BookingNoShow

	if err := s.transition(ctx, booking, target, releaseSlot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}

// transition applies a status change and, when the slot is being given back
// and the date's basis is a custom slot, re-opens that slot in the same
// transaction. A failed release fails the whole transition; the caller never
// sees a cancellation that silently leaked its slot.
func (s *Service) transition(ctx context.Context, booking *models.Booking, target models.BookingStatus, releaseSlot bool) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.UpdateBookingStatusTx(ctx, tx, booking.ID, booking.Status, target); err != nil {
		_ = tx.Rollback()
		return err
	}

	if releaseSlot {
		// Matches zero rows when the date's basis is generated; only an
		// explicit custom slot carries a booked marker to clear.
		err := s.store.SetCustomSlotAvailabilityTx(ctx, tx, booking.ProviderID,
			booking.Date, booking.StartTime, booking.EndTime, true)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("release slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	metrics.IncBookingTransition(string(target))

	return nil
}
