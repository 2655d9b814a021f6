package get

import (
	"context"
	"log/slog"
	"net/http"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SettingsGetter interface {
	GetSettings(ctx context.Context, providerID string) (*api.SettingsResponse, error)
}

type Response struct {
	response.Response
	Settings *api.SettingsResponse `json:"settings,omitempty"`
}

func New(log *slog.Logger, getter SettingsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.get.New"

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

		settings, err := getter.GetSettings(r.Context(), providerID)

		if err != nil {
			log.Error("Failed to get settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get settings"))
			return
		}

		log.Info("Settings retrieved", slog.String("provider_id", providerID))
		render.JSON(w, r, Response{Settings: settings})
	}
}
