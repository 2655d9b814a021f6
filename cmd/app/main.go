package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"slotbook/internal/config"
	"slotbook/internal/holidays"
	availabilityGet "slotbook/internal/http-server/handlers/availability/get"
	bookingCancel "slotbook/internal/http-server/handlers/bookings/cancel"
	bookingCreate "slotbook/internal/http-server/handlers/bookings/create"
	bookingGet "slotbook/internal/http-server/handlers/bookings/get"
	bookingTransition "slotbook/internal/http-server/handlers/bookings/transition"
	bookingUpdate "slotbook/internal/http-server/handlers/bookings/update"
	customSlotCreate "slotbook/internal/http-server/handlers/custom_slots/create"
	customSlotDelete "slotbook/internal/http-server/handlers/custom_slots/delete"
	customSlotGet "slotbook/internal/http-server/handlers/custom_slots/get"
	customSlotUpdate "slotbook/internal/http-server/handlers/custom_slots/update"
	exceptionCreate "slotbook/internal/http-server/handlers/exceptions/create"
	exceptionDelete "slotbook/internal/http-server/handlers/exceptions/delete"
	exceptionGet "slotbook/internal/http-server/handlers/exceptions/get"
	exceptionRecurring "slotbook/internal/http-server/handlers/exceptions/recurring"
	exceptionSeed "slotbook/internal/http-server/handlers/exceptions/seed"
	settingsGet "slotbook/internal/http-server/handlers/settings/get"
	settingsSet "slotbook/internal/http-server/handlers/settings/set"
	workingHoursBootstrap "slotbook/internal/http-server/handlers/working_hours/bootstrap"
	workingHoursGet "slotbook/internal/http-server/handlers/working_hours/get"
	workingHoursSet "slotbook/internal/http-server/handlers/working_hours/set"
	"slotbook/internal/lock"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	svc "slotbook/internal/service"
	"slotbook/internal/storage/postgres"
	slogpretty "slotbook/pkg/handlers/slogPretty"
	"slotbook/pkg/middleware/mwLogger"
	"slotbook/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	metrics.Register()

	service := svc.NewService(storage, locker, holidays.NewStaticProvider())

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Availability
	router.Get("/availability", availabilityGet.New(log, service))

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings", bookingGet.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Patch("/bookings", bookingUpdate.New(log, service))
	router.Delete("/bookings", bookingCancel.NewByToken(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))
	router.Post("/bookings/{id}/confirm", bookingTransition.New(log, service, models.BookingConfirmed))
	router.Post("/bookings/{id}/complete", bookingTransition.New(log, service, models.BookingCompleted))
	router.Post("/bookings/{id}/no_show", bookingTransition.New(log, service, models.BookingNoShow))

	// Working hours
	router.Get("/working_hours", workingHoursGet.New(log, service))
	router.Put("/working_hours", workingHoursSet.New(log, service))
	router.Post("/working_hours/bootstrap", workingHoursBootstrap.New(log, service))

	// Exceptions
	router.Get("/exceptions", exceptionGet.New(log, service))
	router.Post("/exceptions", exceptionCreate.New(log, service))
	router.Delete("/exceptions/{id}", exceptionDelete.New(log, service))
	router.Post("/exceptions/recurring", exceptionRecurring.New(log, service))
	router.Post("/exceptions/seed_holidays", exceptionSeed.New(log, service))

	// Custom slots
	router.Get("/custom_slots", customSlotGet.New(log, service))
	router.Post("/custom_slots", customSlotCreate.New(log, service))
	router.Put("/custom_slots/{id}", customSlotUpdate.New(log, service))
	router.Delete("/custom_slots/{id}", customSlotDelete.New(log, service))

	// Settings
	router.Get("/settings", settingsGet.New(log, service))
	router.Put("/settings", settingsSet.New(log, service))

	router.Handle("/metrics", promhttp.Handler())

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
