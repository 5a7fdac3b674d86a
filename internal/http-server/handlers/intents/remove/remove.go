package remove

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

type IntentRemover interface {
	RemoveBookingIntent(ctx context.Context, serviceID, accountID string, timestamp int64) error
}

func New(log *slog.Logger, remover IntentRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.intents.remove.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serviceID := chi.URLParam(r, "serviceID")

		var req api.BookingIntentRemoveRequest
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

		if err := remover.RemoveBookingIntent(r.Context(), serviceID, req.AccountID, req.Timestamp); err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to remove booking intent", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to remove booking intent")))
			return
		}

		log.Info("booking intent removed",
			slog.String("service_id", serviceID),
			slog.Int64("timestamp", req.Timestamp),
		)
		render.JSON(w, r, response.Response{})
	}
}
