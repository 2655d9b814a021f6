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

type ExceptionCreator interface {
	CreateException(ctx context.Context, req *api.ExceptionCreateRequest) (*api.ExceptionResponse, error)
}

type Request struct {
	api.ExceptionCreateRequest
}

type Response struct {
	response.Response
	Exception *api.ExceptionResponse `json:"exception,omitempty"`
}

func New(log *slog.Logger, creator ExceptionCreator) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.exceptions.create.New"

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

		if err := validate.Struct(req.ExceptionCreateRequest); err != nil {
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

		exception, err := creator.CreateException(r.Context(), &req.ExceptionCreateRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid exception", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to create exception", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create exception"))
			return
		}

		log.Info("Exception created",
			slog.String("provider_id", exception.ProviderID),
			slog.String("date", exception.Date),
			slog.Bool("is_available", exception.IsAvailable),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Exception: exception})
	}
}
