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

type CalendarGetter interface {
	GetCalendar(ctx context.Context, id, accountID string) (*api.CalendarResponse, error)
}

type Response struct {
	response.Response
	Calendar *api.CalendarResponse `json:"calendar,omitempty"`
}

func New(log *slog.Logger, getter CalendarGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendars.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "calendarID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		cal, err := getter.GetCalendar(r.Context(), id, accountID)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get calendar", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get calendar")))
			return
		}

		render.JSON(w, r, Response{Calendar: cal})
	}
}
