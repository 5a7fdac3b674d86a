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

type CalendarCreator interface {
	CreateCalendar(ctx context.Context, req *api.CalendarRequest) (*api.CalendarResponse, error)
}

type Response struct {
	response.Response
	Calendar *api.CalendarResponse `json:"calendar,omitempty"`
}

func New(log *slog.Logger, creator CalendarCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendars.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.CalendarRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.UserID == "" || req.AccountID == "" {
			log.Error("user_id or account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "user_id and account_id are required"))
			return
		}

		cal, err := creator.CreateCalendar(r.Context(), &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to create calendar", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to create calendar")))
			return
		}

		log.Info("calendar created", slog.String("calendar_id", cal.ID))
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Calendar: cal})
	}
}
