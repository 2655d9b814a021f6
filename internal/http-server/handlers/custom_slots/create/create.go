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

type CustomSlotCreator interface {
	CreateCustomSlot(ctx context.Context, req *api.CustomSlotCreateRequest) (*api.CustomSlotResponse, error)
}

type Request struct {
	api.CustomSlotCreateRequest
}

type Response struct {
	response.Response
	Slot *api.CustomSlotResponse `json:"slot,omitempty"`
}

func New(log *slog.Logger, creator CustomSlotCreator) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.custom_slots.create.New"

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

		if err := validate.Struct(req.CustomSlotCreateRequest); err != nil {
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

		slot, err := creator.CreateCustomSlot(r.Context(), &req.CustomSlotCreateRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid slot window", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), "invalid slot window"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("slot already exists", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "a custom slot already exists for this window"))
			return
		}

		if err != nil {
			log.Error("Failed to create custom slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create custom slot"))
			return
		}

		log.Info("Custom slot created",
			slog.String("provider_id", slot.ProviderID),
			slog.String("date", slot.Date),
			slog.String("start", slot.Start),
			slog.String("end", slot.End),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Slot: slot})
	}
}
