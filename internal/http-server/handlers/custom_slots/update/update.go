package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type CustomSlotUpdater interface {
	UpdateCustomSlot(ctx context.Context, id string, req *api.CustomSlotUpdateRequest) (*api.CustomSlotResponse, error)
}

type Request struct {
	api.CustomSlotUpdateRequest
}

type Response struct {
	response.Response
	Slot *api.CustomSlotResponse `json:"slot,omitempty"`
}

func New(log *slog.Logger, updater CustomSlotUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.custom_slots.update.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		slot, err := updater.UpdateCustomSlot(r.Context(), id, &req.CustomSlotUpdateRequest)

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
			log.Error("Failed to update custom slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update custom slot"))
			return
		}

		log.Info("Custom slot updated",
			slog.String("id", id),
			slog.Bool("is_available", slot.IsAvailable),
		)

		render.JSON(w, r, Response{Slot: slot})
	}
}
