package get

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

type ScheduleGetter interface {
	GetSchedule(ctx context.Context, id, accountID string) (*api.ScheduleResponse, error)
}

type Response struct {
	response.Response
	*api.ScheduleResponse
}

func New(log *slog.Logger, getter ScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "scheduleID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		schedule, err := getter.GetSchedule(r.Context(), id, accountID)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get schedule", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get schedule")))
			return
		}

		render.JSON(w, r, Response{ScheduleResponse: schedule})
	}
}
