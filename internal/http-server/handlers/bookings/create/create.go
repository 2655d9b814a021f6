package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingCreatedResponse, error)
}

type Request struct {
	api.BookingCreateRequest
}

type Response struct {
	response.Response
	Booking     *api.BookingResponse `json:"booking,omitempty"`
	AccessToken string               `json:"access_token,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := validate.Struct(req.BookingCreateRequest); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				log.Error("invalid request", sl.Err(err))
				w.WriteHeader(http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ValidationError(validateErrs))
				return
			}

			log.Error("Failed to validate request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid request"))
			return
		}

		created, err := creator.CreateBooking(r.Context(), &req.BookingCreateRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid booking request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid date or time window"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked by another request")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is locked, retry"))
			return
		}

		if errors.Is(err, response.ErrSlotTaken) {
			log.Info("slot is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available, pick another time"))
			return
		}

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("datastore unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), "temporarily unavailable, retry"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		// The access token is deliberately kept out of the log record.
		log.Info("Booking created",
			slog.String("booking_id", created.Booking.ID),
			slog.String("provider_id", created.Booking.ProviderID),
			slog.String("date", created.Booking.Date),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Booking:     &created.Booking,
			AccessToken: created.AccessToken,
		})
	}
}
