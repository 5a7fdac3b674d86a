package update

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

type ScheduleUpdater interface {
	UpdateSchedule(ctx context.Context, id string, req *api.ScheduleUpdateRequest) (*api.ScheduleResponse, error)
}

type Response struct {
	response.Response
	*api.ScheduleResponse
}

func New(log *slog.Logger, updater ScheduleUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "scheduleID")

		var req api.ScheduleUpdateRequest
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

		schedule, err := updater.UpdateSchedule(r.Context(), id, &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to update schedule", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to update schedule")))
			return
		}

		log.Info("schedule updated", slog.String("schedule_id", id))
		render.JSON(w, r, Response{ScheduleResponse: schedule})
	}
}
