package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BookingCanceller interface {
	CancelBooking(ctx context.Context, id string) (*api.BookingResponse, error)
	CancelBookingByToken(ctx context.Context, token string) (*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking *api.BookingResponse `json:"booking,omitempty"`
}

// New cancels by booking id (provider side).
func New(log *slog.Logger, canceller BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		booking, err := canceller.CancelBooking(r.Context(), id)
		respond(w, r, log, booking, err)
	}
}

// NewByToken cancels via the client's access token (self-service).
func NewByToken(log *slog.Logger, canceller BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.NewByToken"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := r.URL.Query().Get("token")
		if token == "" {
			log.Error("token is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "token is required"))
			return
		}

		booking, err := canceller.CancelBookingByToken(r.Context(), token)
		respond(w, r, log, booking, err)
	}
}

func respond(w http.ResponseWriter, r *http.Request, log *slog.Logger, booking *api.BookingResponse, err error) {
	if errors.Is(err, response.ErrNotFound) {
		log.Error("booking not found")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(string(response.NOT_FOUND), "booking not found"))
		return
	}

	if errors.Is(err, response.ErrAlreadyCancelled) {
		log.Info("booking is already cancelled")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.ALREADY_CANCELLED), "booking is already cancelled"))
		return
	}

	if errors.Is(err, response.ErrInvalidState) {
		log.Error("booking state does not allow cancellation")
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error(string(response.INVALID_STATE), "completed booking cannot be cancelled"))
		return
	}

	if err != nil {
		log.Error("Failed to cancel booking", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel booking"))
		return
	}

	log.Info("Booking cancelled", slog.String("booking_id", booking.ID))
	render.JSON(w, r, Response{Booking: booking})
}
