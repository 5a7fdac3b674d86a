package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/api"
	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type IntentCreator interface {
	CreateBookingIntent(ctx context.Context, serviceID string, req *api.BookingIntentRequest) (*api.BookingIntentResponse, error)
}

type Response struct {
	response.Response
	*api.BookingIntentResponse
}

func New(log *slog.Logger, creator IntentCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.intents.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serviceID := chi.URLParam(r, "serviceID")

		var req api.BookingIntentRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.AccountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		intent, err := creator.CreateBookingIntent(r.Context(), serviceID, &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to create booking intent", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to create booking intent")))
			return
		}

		log.Info("booking intent created",
			slog.String("service_id", serviceID),
			slog.String("selected_user_id", intent.SelectedUserID),
			slog.Int64("timestamp", intent.Timestamp),
		)
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{BookingIntentResponse: intent})
	}
}
