package transition

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/api"
	"slotbook/internal/models"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BookingTransitioner interface {
	TransitionBooking(ctx context.Context, id string, target models.BookingStatus) (*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking *api.BookingResponse `json:"booking,omitempty"`
}

// New returns a handler moving a booking to the fixed target status
// (confirm, complete, mark no-show). One route per target, provider only.
func New(log *slog.Logger, transitioner BookingTransitioner, target models.BookingStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.transition.New"

		log = log.With(
			slog.String("op", op),
			slog.String("target", string(target)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		booking, err := transitioner.TransitionBooking(r.Context(), id, target)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("booking not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "booking not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidState) {
			log.Error("transition not allowed from current status")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_STATE), "transition not allowed from current status"))
			return
		}

		if err != nil {
			log.Error("Failed to transition booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update booking status"))
			return
		}

		log.Info("Booking status updated",
			slog.String("booking_id", booking.ID),
			slog.String("status", booking.Status),
		)
		render.JSON(w, r, Response{Booking: booking})
	}
}
