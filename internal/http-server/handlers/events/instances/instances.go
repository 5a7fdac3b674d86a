package instances

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/api"
	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type InstancesGetter interface {
	GetEventInstances(ctx context.Context, id, accountID string, startTs, endTs int64) (*api.EventInstancesResponse, error)
}

type Response struct {
	response.Response
	*api.EventInstancesResponse
}

func New(log *slog.Logger, getter InstancesGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.instances.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "eventID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		startTs, err1 := strconv.ParseInt(r.URL.Query().Get("start_ts"), 10, 64)
		endTs, err2 := strconv.ParseInt(r.URL.Query().Get("end_ts"), 10, 64)
		if err1 != nil || err2 != nil {
			log.Error("bad start_ts or end_ts")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "start_ts and end_ts must be unix millisecond timestamps"))
			return
		}

		resp, err := getter.GetEventInstances(r.Context(), id, accountID, startTs, endTs)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to expand event", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to expand event")))
			return
		}

		log.Info("event expanded", slog.String("event_id", id), slog.Int("instances", len(resp.Instances)))
		render.JSON(w, r, Response{EventInstancesResponse: resp})
	}
}
