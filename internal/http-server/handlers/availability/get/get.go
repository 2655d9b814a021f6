package get

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
)

type AvailabilityResolver interface {
	ResolveAvailability(ctx context.Context, providerID string, date string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, resolver AvailabilityResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		providerID := r.URL.Query().Get("provider_id")
		date := r.URL.Query().Get("date")

		if providerID == "" {
			log.Error("provider_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "provider_id is required"))
			return
		}

		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		availability, err := resolver.ResolveAvailability(r.Context(), providerID, date)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid availability query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid date"))
			return
		}

		if errors.Is(err, response.ErrConfiguration) {
			log.Error("provider schedule is misconfigured", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.MISCONFIGURED), "provider schedule is misconfigured"))
			return
		}

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("datastore unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), "temporarily unavailable, retry"))
			return
		}

		if err != nil {
			log.Error("Failed to resolve availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve availability"))
			return
		}

		log.Info("Availability resolved",
			slog.String("provider_id", providerID),
			slog.String("date", date),
			slog.Bool("is_working_day", availability.IsWorkingDay),
			slog.Int("slots", len(availability.Slots)),
		)

		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
