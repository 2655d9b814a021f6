package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"slotbook/api"
	"slotbook/pkg/response"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ExceptionLister interface {
	ListExceptions(ctx context.Context, providerID string, from, to *time.Time) ([]*api.ExceptionResponse, error)
}

type Response struct {
	response.Response
	Exceptions []api.ExceptionResponse `json:"exceptions,omitempty"`
}

func New(log *slog.Logger, lister ExceptionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.exceptions.get.New"

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

		var from, to *time.Time
		if fromStr := r.URL.Query().Get("from"); fromStr != "" {
			t, err := time.Parse("2006-01-02", fromStr)
			if err == nil {
				from = &t
			}
		}
		if toStr := r.URL.Query().Get("to"); toStr != "" {
			t, err := time.Parse("2006-01-02", toStr)
			if err == nil {
				to = &t
			}
		}

		exceptions, err := lister.ListExceptions(r.Context(), providerID, from, to)

		if err != nil {
			log.Error("Failed to list exceptions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list exceptions"))
			return
		}

		log.Info("Exceptions retrieved", slog.Int("count", len(exceptions)))
		result := make([]api.ExceptionResponse, len(exceptions))
		for i, e := range exceptions {
			result[i] = *e
		}
		render.JSON(w, r, Response{Exceptions: result})
	}
}
