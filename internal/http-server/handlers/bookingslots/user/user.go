package user

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"calendar-service/api"
	"calendar-service/internal/models"
	"calendar-service/pkg/response"
	"calendar-service/pkg/sl"
)

type UserSlotsGetter interface {
	GetUserBookingSlots(ctx context.Context, userID, accountID string, q models.BookingSlotsQuery) (*api.UserBookingSlotsResponse, error)
}

type Response struct {
	response.Response
	*api.UserBookingSlotsResponse
}

func New(log *slog.Logger, getter UserSlotsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookingslots.user.New"

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

		q, ok := decodeSlotsQuery(w, r, log)
		if !ok {
			return
		}

		slots, err := getter.GetUserBookingSlots(r.Context(), userID, accountID, q)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get booking slots", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get booking slots")))
			return
		}

		log.Info("booking slots computed",
			slog.String("user_id", userID),
			slog.Int("slots", len(slots.Slots)),
		)
		render.JSON(w, r, Response{UserBookingSlotsResponse: slots})
	}
}

// decodeSlotsQuery parses the shared date/timezone/duration/interval query
// parameters, rendering a validation error itself when they are malformed.
func decodeSlotsQuery(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.BookingSlotsQuery, bool) {
	duration, err1 := strconv.ParseInt(r.URL.Query().Get("duration"), 10, 64)
	interval, err2 := strconv.ParseInt(r.URL.Query().Get("interval"), 10, 64)
	if err1 != nil || err2 != nil {
		log.Error("bad duration or interval")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.VALIDATION), "duration and interval must be milliseconds"))
		return models.BookingSlotsQuery{}, false
	}

	q := models.BookingSlotsQuery{
		Date:     r.URL.Query().Get("date"),
		Timezone: r.URL.Query().Get("timezone"),
		Duration: duration,
		Interval: interval,
	}
	if q.Timezone == "" {
		q.Timezone = "UTC"
	}
	return q, true
}
