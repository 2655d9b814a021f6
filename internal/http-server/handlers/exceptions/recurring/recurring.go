package recurring

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

type RecurringExceptionCreator interface {
	CreateRecurringExceptions(ctx context.Context, req *api.RecurringExceptionRequest) ([]*api.ExceptionResponse, error)
}

type Request struct {
	api.RecurringExceptionRequest
}

type Response struct {
	response.Response
	Exceptions []api.ExceptionResponse `json:"exceptions,omitempty"`
}

func New(log *slog.Logger, creator RecurringExceptionCreator) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.exceptions.recurring.New"

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

		if err := validate.Struct(req.RecurringExceptionRequest); err != nil {
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

		exceptions, err := creator.CreateRecurringExceptions(r.Context(), &req.RecurringExceptionRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid recurrence", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid recurrence range"))
			return
		}

		if err != nil {
			log.Error("Failed to create recurring exceptions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create recurring exceptions"))
			return
		}

		log.Info("Recurring exceptions created",
			slog.String("provider_id", req.ProviderID),
			slog.Int("count", len(exceptions)),
		)

		result := make([]api.ExceptionResponse, len(exceptions))
		for i, e := range exceptions {
			result[i] = *e
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Exceptions: result})
	}
}
