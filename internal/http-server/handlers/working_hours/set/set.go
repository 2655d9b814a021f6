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

type WorkingHoursSetter interface {
	SetWorkingHours(ctx context.Context, req *api.WorkingHoursSetRequest) (*api.WorkingHoursResponse, error)
}

type Request struct {
	api.WorkingHoursSetRequest
}

type Response struct {
	response.Response
	WorkingHours *api.WorkingHoursResponse `json:"working_hours,omitempty"`
}

func New(log *slog.Logger, setter WorkingHoursSetter) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.working_hours.set.New"

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

		if err := validate.Struct(req.WorkingHoursSetRequest); err != nil {
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

		workingHours, err := setter.SetWorkingHours(r.Context(), &req.WorkingHoursSetRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid working hours", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid working hours window"))
			return
		}

		if err != nil {
			log.Error("Failed to set working hours", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set working hours"))
			return
		}

		log.Info("Working hours updated", slog.String("provider_id", req.ProviderID))
		render.JSON(w, r, Response{WorkingHours: workingHours})
	}
}
