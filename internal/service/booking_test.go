package service

import (
	"context"
	"sync"
	"testing"

	"slotbook/api"
	"slotbook/internal/models"
	"slotbook/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(start, end string) *api.BookingCreateRequest {
	return &api.BookingCreateRequest{
		ProviderID:  testProvider,
		Date:        mondayDate,
		Start:       start,
		End:         end,
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}
}

func TestCreateBooking_Succeeds(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	resp, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, string(models.BookingPending), resp.Booking.Status)
	assert.Len(t, resp.AccessToken, 64)
	assert.NotEmpty(t, resp.Booking.ID)

	got, err := svc.GetBooking(context.Background(), resp.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.ClientName)
}

func TestCreateBooking_TokensAreUnique(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	first, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)
	second, err := svc.CreateBooking(context.Background(), createRequest("10:00", "11:00"))
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestCreateBooking_SlotTakenOnSecondAttempt(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	_, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.ErrorIs(t, err, response.ErrSlotTaken)
}

func TestCreateBooking_ConcurrentExactlyOneWins(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, response.ErrSlotTaken)
			conflicted++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestCreateBooking_RejectsClosedDay(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.ErrorIs(t, err, response.ErrSlotTaken)
}

func TestCreateBooking_RejectsMisalignedWindow(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	_, err := svc.CreateBooking(context.Background(), createRequest("09:30", "10:30"))
	require.ErrorIs(t, err, response.ErrSlotTaken)
}

func TestCreateBooking_RejectsInvertedWindow(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	_, err := svc.CreateBooking(context.Background(), createRequest("10:00", "09:00"))
	require.ErrorIs(t, err, response.ErrValidation)
}

func TestCreateBooking_LockDenied(t *testing.T) {
	svc, store, locker := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)
	locker.deny = true

	_, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateBooking_ClosesCustomSlot(t *testing.T) {
	svc, store, _ := newTestService(nil)
	slotID := seedCustomSlot(t, store, mondayDate, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), true)

	_, err := svc.CreateBooking(context.Background(), createRequest("10:00", "11:00"))
	require.NoError(t, err)

	cs, err := store.GetCustomSlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.False(t, cs.IsAvailable)
}

func TestCancelBooking_ReopensCustomSlot(t *testing.T) {
	svc, store, _ := newTestService(nil)
	slotID := seedCustomSlot(t, store, mondayDate, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("10:00", "11:00"))
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingCancelled), cancelled.Status)

	cs, err := store.GetCustomSlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.True(t, cs.IsAvailable)
}

func TestCancelBooking_SlotBecomesBookableAgain(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)

	resp, err := svc.ResolveAvailability(context.Background(), testProvider, mondayDate)
	require.NoError(t, err)
	assert.True(t, resp.Slots[0].IsAvailable)

	_, err = svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)
}

func TestCancelBooking_TwiceReportsAlreadyCancelled(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)
	require.ErrorIs(t, err, response.ErrAlreadyCancelled)
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestCancelBooking_CompletedIsNotCancellable(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingConfirmed)
	require.NoError(t, err)
	_, err = svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingCompleted)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)
	require.ErrorIs(t, err, response.ErrInvalidState)
	assert.NotErrorIs(t, err, response.ErrAlreadyCancelled)
}

func TestTransitionBooking_Lifecycle(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	confirmed, err := svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingConfirmed), confirmed.Status)

	completed, err := svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingCompleted), completed.Status)
}

func TestTransitionBooking_PendingCannotComplete(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingCompleted)
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestTransitionBooking_NoShowReopensCustomSlot(t *testing.T) {
	svc, store, _ := newTestService(nil)
	slotID := seedCustomSlot(t, store, mondayDate, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("10:00", "11:00"))
	require.NoError(t, err)

	noShow, err := svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingNoShow)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingNoShow), noShow.Status)

	cs, err := store.GetCustomSlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.True(t, cs.IsAvailable)
}

func TestTransitionBooking_NoShowIsStillCancellable(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.TransitionBooking(context.Background(), created.Booking.ID, models.BookingNoShow)
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingCancelled), cancelled.Status)
}

func TestUpdateBookingByToken_EditsContactFields(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	name := "Grace Hopper"
	notes := "please call ahead"
	updated, err := svc.UpdateBookingByToken(context.Background(), created.AccessToken, &api.BookingUpdateRequest{
		ClientName: &name,
		Notes:      &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", updated.ClientName)
	assert.Equal(t, "please call ahead", updated.Notes)
	assert.Equal(t, "ada@example.com", updated.ClientEmail)
}

func TestUpdateBookingByToken_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(nil)

	name := "Grace Hopper"
	_, err := svc.UpdateBookingByToken(context.Background(), "no-such-token", &api.BookingUpdateRequest{ClientName: &name})
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestUpdateBookingByToken_RejectsTerminalBooking(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)

	name := "Grace Hopper"
	_, err = svc.UpdateBookingByToken(context.Background(), created.AccessToken, &api.BookingUpdateRequest{ClientName: &name})
	require.ErrorIs(t, err, response.ErrInvalidState)

	got, err := svc.GetBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.ClientName)
}

// The datastore itself must refuse contact edits on a terminal booking, even
// when a cancel commits after the service's status read.
func TestUpdateBookingContact_TerminalGuardHeldAtStore(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	// a concurrent cancel lands between the read and the write
	err = store.UpdateBookingStatusTx(context.Background(), fakeTx{},
		created.Booking.ID, models.BookingPending, models.BookingCancelled)
	require.NoError(t, err)

	err = store.UpdateBookingContact(context.Background(),
		created.Booking.ID, "Mallory", "mallory@example.com", "", "")
	require.ErrorIs(t, err, response.ErrInvalidState)

	got, err := svc.GetBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.ClientName)
	assert.Equal(t, "ada@example.com", got.ClientEmail)
}

func TestCancelBookingByToken(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	created, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)

	cancelled, err := svc.CancelBookingByToken(context.Background(), created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingCancelled), cancelled.Status)
}

func TestListBookings_FilterByStatus(t *testing.T) {
	svc, store, _ := newTestService(nil)
	seedWorkingDay(t, store, 1, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(17, 0), true)

	first, err := svc.CreateBooking(context.Background(), createRequest("09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.CreateBooking(context.Background(), createRequest("10:00", "11:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), first.Booking.ID)
	require.NoError(t, err)

	status := string(models.BookingCancelled)
	cancelled, err := svc.ListBookings(context.Background(), testProvider, nil, nil, &status)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.Booking.ID, cancelled[0].ID)

	all, err := svc.ListBookings(context.Background(), testProvider, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListBookings_UnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(nil)

	status := "tentative"
	_, err := svc.ListBookings(context.Background(), testProvider, nil, nil, &status)
	require.ErrorIs(t, err, response.ErrValidation)
}
