package set

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

type SettingsSetter interface {
	SetSettings(ctx context.Context, req *api.SettingsRequest) (*api.SettingsResponse, error)
}

type Request struct {
	api.SettingsRequest
}

type Response struct {
	response.Response
	Settings *api.SettingsResponse `json:"settings,omitempty"`
}

func New(log *slog.Logger, setter SettingsSetter) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.set.New"

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

		if err := validate.Struct(req.SettingsRequest); err != nil {
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

		settings, err := setter.SetSettings(r.Context(), &req.SettingsRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid settings", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid timezone or slot duration"))
			return
		}

		if err != nil {
			log.Error("Failed to set settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set settings"))
			return
		}

		log.Info("Settings updated",
			slog.String("provider_id", req.ProviderID),
			slog.Int("slot_duration_minutes", settings.SlotDurationMinutes),
		)

		render.JSON(w, r, Response{Settings: settings})
	}
}
