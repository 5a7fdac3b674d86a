package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type CalendarRemover interface {
	DeleteCalendar(ctx context.Context, id, accountID string) error
}

func New(log *slog.Logger, remover CalendarRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendars.remove.New"

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

		if err := remover.DeleteCalendar(r.Context(), id, accountID); err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to delete calendar", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to delete calendar")))
			return
		}

		log.Info("calendar deleted", slog.String("calendar_id", id))
		render.JSON(w, r, response.Response{})
	}
}
