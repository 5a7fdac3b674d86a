package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/api"
	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type FreeBusyGetter interface {
	GetUserFreeBusy(ctx context.Context, userID, accountID string, startTs, endTs int64, calendarIDs []string) (*api.FreeBusyResponse, error)
}

type Response struct {
	response.Response
	*api.FreeBusyResponse
}

func New(log *slog.Logger, getter FreeBusyGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.freebusy.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := chi.URLParam(r, "userID")
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

		var calendarIDs []string
		if raw := r.URL.Query().Get("calendar_ids"); raw != "" {
			calendarIDs = strings.Split(raw, ",")
		}

		fb, err := getter.GetUserFreeBusy(r.Context(), userID, accountID, startTs, endTs, calendarIDs)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get freebusy", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get freebusy")))
			return
		}

		log.Info("freebusy computed",
			slog.String("user_id", userID),
			slog.Int("busy", len(fb.Busy)),
		)
		render.JSON(w, r, Response{FreeBusyResponse: fb})
	}
}
