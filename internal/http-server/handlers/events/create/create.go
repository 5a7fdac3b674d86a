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

type EventCreator interface {
	CreateEvent(ctx context.Context, req *api.EventRequest) (*api.EventResponse, error)
}

type Response struct {
	response.Response
	*api.EventResponse
}

func New(log *slog.Logger, creator EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.EventRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.CalendarID == "" || req.UserID == "" || req.AccountID == "" {
			log.Error("calendar_id, user_id or account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "calendar_id, user_id and account_id are required"))
			return
		}

		ev, err := creator.CreateEvent(r.Context(), &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to create event", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to create event")))
			return
		}

		log.Info("event created", slog.String("event_id", ev.Event.ID))
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{EventResponse: ev})
	}
}
