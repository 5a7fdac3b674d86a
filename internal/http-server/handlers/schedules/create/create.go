package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/api"
	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type ScheduleCreator interface {
	CreateSchedule(ctx context.Context, req *api.ScheduleRequest) (*api.ScheduleResponse, error)
}

type Response struct {
	response.Response
	*api.ScheduleResponse
}

func New(log *slog.Logger, creator ScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.ScheduleRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.UserID == "" || req.AccountID == "" || req.Timezone == "" {
			log.Error("user_id, account_id or timezone is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "user_id, account_id and timezone are required"))
			return
		}

		schedule, err := creator.CreateSchedule(r.Context(), &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to create schedule", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to create schedule")))
			return
		}

		log.Info("schedule created", slog.String("schedule_id", schedule.Schedule.ID))
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{ScheduleResponse: schedule})
	}
}
