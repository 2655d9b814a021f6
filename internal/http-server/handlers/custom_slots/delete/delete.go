package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type CustomSlotDeleter interface {
	DeleteCustomSlot(ctx context.Context, id string) error
}

func New(log *slog.Logger, deleter CustomSlotDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.custom_slots.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		err := deleter.DeleteCustomSlot(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("custom slot not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "custom slot not found"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("slot is occupied by a booking", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "slot is occupied by an active booking"))
			return
		}

		if err != nil {
			log.Error("Failed to delete custom slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete custom slot"))
			return
		}

		log.Info("Custom slot deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
