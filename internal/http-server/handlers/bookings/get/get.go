package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BookingGetter interface {
	GetBooking(ctx context.Context, id string) (*api.BookingResponse, error)
	ListBookings(ctx context.Context, providerID string, from, to *time.Time, status *string) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings,omitempty"`
	Booking  *api.BookingResponse  `json:"booking,omitempty"`
}

func New(log *slog.Logger, getter BookingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			booking, err := getter.GetBooking(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("booking not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "booking not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get booking", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get booking"))
				return
			}

			log.Info("Booking retrieved", slog.String("booking_id", booking.ID))
			render.JSON(w, r, Response{Booking: booking})
			return
		}

		providerID := r.URL.Query().Get("provider_id")
		if providerID == "" {
			log.Error("provider_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "provider_id is required"))
			return
		}

		var from, to *time.Time
		if fromStr := r.URL.Query().Get("from"); fromStr != "" {
			t, err := time.Parse("2006-01-02", fromStr)
			if err == nil {
				from = &t
			}
		}
		if toStr := r.URL.Query().Get("to"); toStr != "" {
			t, err := time.Parse("2006-01-02", toStr)
			if err == nil {
				to = &t
			}
		}

		var status *string
		if statusStr := r.URL.Query().Get("status"); statusStr != "" {
			status = &statusStr
		}

		bookings, err := getter.ListBookings(r.Context(), providerID, from, to, status)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid list query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "unknown status filter"))
			return
		}

		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		log.Info("Bookings retrieved", slog.Int("count", len(bookings)))
		result := make([]api.BookingResponse, len(bookings))
		for i, b := range bookings {
			result[i] = *b
		}
		render.JSON(w, r, Response{Bookings: result})
	}
}
