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

type WorkingHoursGetter interface {
	GetWorkingHours(ctx context.Context, providerID string) (*api.WorkingHoursResponse, error)
}

type Response struct {
	response.Response
	WorkingHours *api.WorkingHoursResponse `json:"working_hours,omitempty"`
}

func New(log *slog.Logger, getter WorkingHoursGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.working_hours.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		providerID := r.URL.Query().Get("provider_id")
		if providerID == "" {
			log.Error("provider_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "provider_id is required"))
			return
		}

		workingHours, err := getter.GetWorkingHours(r.Context(), providerID)

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("datastore unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), "temporarily unavailable, retry"))
			return
		}

		if err != nil {
			log.Error("Failed to get working hours", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get working hours"))
			return
		}

		log.Info("Working hours retrieved",
			slog.String("provider_id", providerID),
			slog.Int("days", len(workingHours.Days)),
		)
		render.JSON(w, r, Response{WorkingHours: workingHours})
	}
}
