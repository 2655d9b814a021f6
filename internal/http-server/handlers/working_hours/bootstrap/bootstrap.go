package bootstrap

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

type WorkingHoursBootstrapper interface {
	BootstrapWorkingHours(ctx context.Context, providerID string) (int64, error)
}

type Request struct {
	api.WorkingHoursBootstrapRequest
}

type Response struct {
	response.Response
	DaysInserted int64 `json:"days_inserted"`
}

func New(log *slog.Logger, bootstrapper WorkingHoursBootstrapper) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.working_hours.bootstrap.New"

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

		if err := validate.Struct(req.WorkingHoursBootstrapRequest); err != nil {
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

		inserted, err := bootstrapper.BootstrapWorkingHours(r.Context(), req.ProviderID)

		if err != nil {
			log.Error("Failed to bootstrap working hours", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to bootstrap working hours"))
			return
		}

		log.Info("Working hours bootstrapped",
			slog.String("provider_id", req.ProviderID),
			slog.Int64("days_inserted", inserted),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{DaysInserted: inserted})
	}
}
