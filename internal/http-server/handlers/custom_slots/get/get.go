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

type CustomSlotLister interface {
	ListCustomSlots(ctx context.Context, providerID string, date string) ([]*api.CustomSlotResponse, error)
}

type Response struct {
	response.Response
	Slots []api.CustomSlotResponse `json:"slots,omitempty"`
}

func New(log *slog.Logger, lister CustomSlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.custom_slots.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		providerID := r.URL.Query().Get("provider_id")
		date := r.URL.Query().Get("date")
		if providerID == "" || date == "" {
			log.Error("provider_id or date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "provider_id and date are required"))
			return
		}

		slots, err := lister.ListCustomSlots(r.Context(), providerID, date)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to list custom slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list custom slots"))
			return
		}

		log.Info("Custom slots retrieved", slog.Int("count", len(slots)))
		result := make([]api.CustomSlotResponse, len(slots))
		for i, s := range slots {
			result[i] = *s
		}
		render.JSON(w, r, Response{Slots: result})
	}
}
