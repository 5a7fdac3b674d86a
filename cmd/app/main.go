package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calendar-service/internal/config"
	bookingslotsService "calendar-service/internal/http-server/handlers/bookingslots/service"
	bookingslotsUser "calendar-service/internal/http-server/handlers/bookingslots/user"
	calendarCreate "calendar-service/internal/http-server/handlers/calendars/create"
	calendarGet "calendar-service/internal/http-server/handlers/calendars/get"
	calendarRemove "calendar-service/internal/http-server/handlers/calendars/remove"
	eventCreate "calendar-service/internal/http-server/handlers/events/create"
	eventGet "calendar-service/internal/http-server/handlers/events/get"
	eventInstances "calendar-service/internal/http-server/handlers/events/instances"
	eventRemove "calendar-service/internal/http-server/handlers/events/remove"
	eventUpdate "calendar-service/internal/http-server/handlers/events/update"
	freebusyGet "calendar-service/internal/http-server/handlers/freebusy/get"
	intentCreate "calendar-service/internal/http-server/handlers/intents/create"
	intentRemove "calendar-service/internal/http-server/handlers/intents/remove"
	scheduleCreate "calendar-service/internal/http-server/handlers/schedules/create"
	scheduleGet "calendar-service/internal/http-server/handlers/schedules/get"
	scheduleRemove "calendar-service/internal/http-server/handlers/schedules/remove"
	scheduleUpdate "calendar-service/internal/http-server/handlers/schedules/update"
	serviceCreate "calendar-service/internal/http-server/handlers/services/create"
	serviceGet "calendar-service/internal/http-server/handlers/services/get"
	serviceRemove "calendar-service/internal/http-server/handlers/services/remove"
	serviceUserAdd "calendar-service/internal/http-server/handlers/services/users/add"
	serviceUserRemove "calendar-service/internal/http-server/handlers/services/users/remove"
	"calendar-service/internal/lock"
	"calendar-service/internal/providers"
	svc "calendar-service/internal/service"
	"calendar-service/internal/storage/postgres"
	slogpretty "calendar-service/pkg/handlers/slogPretty"
	"calendar-service/pkg/middleware/mwLogger"
	"calendar-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
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

	if err := storage.Migrate(context.Background()); err != nil {
		log.Error("Failed to migrate storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	// external calendar providers are registered here when configured
	registry := providers.NewRegistry()

	service := svc.NewService(storage, locker, registry, svc.Limits{
		EventInstancesQueryLimit: cfg.Limits.EventInstancesQueryLimit.Milliseconds(),
		BookingSlotsQueryLimit:   cfg.Limits.BookingSlotsQueryLimit.Milliseconds(),
	})

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Calendars
	router.Post("/calendars", calendarCreate.New(log, service))
	router.Get("/calendars/{calendarID}", calendarGet.New(log, service))
	router.Delete("/calendars/{calendarID}", calendarRemove.New(log, service))

	// Events
	router.Post("/events", eventCreate.New(log, service))
	router.Get("/events/{eventID}", eventGet.New(log, service))
	router.Put("/events/{eventID}", eventUpdate.New(log, service))
	router.Delete("/events/{eventID}", eventRemove.New(log, service))
	router.Get("/events/{eventID}/instances", eventInstances.New(log, service))

	// Schedules
	router.Post("/schedules", scheduleCreate.New(log, service))
	router.Get("/schedules/{scheduleID}", scheduleGet.New(log, service))
	router.Put("/schedules/{scheduleID}", scheduleUpdate.New(log, service))
	router.Delete("/schedules/{scheduleID}", scheduleRemove.New(log, service))

	// Users
	router.Get("/users/{userID}/freebusy", freebusyGet.New(log, service))
	router.Get("/users/{userID}/booking-slots", bookingslotsUser.New(log, service))

	// Services
	router.Post("/services", serviceCreate.New(log, service))
	router.Get("/services/{serviceID}", serviceGet.New(log, service))
	router.Delete("/services/{serviceID}", serviceRemove.New(log, service))
	router.Post("/services/{serviceID}/users", serviceUserAdd.New(log, service))
	router.Delete("/services/{serviceID}/users/{userID}", serviceUserRemove.New(log, service))
	router.Get("/services/{serviceID}/booking-slots", bookingslotsService.New(log, service))
	router.Post("/services/{serviceID}/booking-intents", intentCreate.New(log, service))
	router.Delete("/services/{serviceID}/booking-intents", intentRemove.New(log, service))

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

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
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
	default:
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
