package service

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

type ServiceSlotsGetter interface {
	GetServiceBookingSlots(ctx context.Context, serviceID, accountID string, q models.BookingSlotsQuery) (*api.BookingSlotsResponse, error)
}

type Response struct {
	response.Response
	*api.BookingSlotsResponse
}

func New(log *slog.Logger, getter ServiceSlotsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookingslots.service.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serviceID := chi.URLParam(r, "serviceID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		duration, err1 := strconv.ParseInt(r.URL.Query().Get("duration"), 10, 64)
		interval, err2 := strconv.ParseInt(r.URL.Query().Get("interval"), 10, 64)
		if err1 != nil || err2 != nil {
			log.Error("bad duration or interval")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "duration and interval must be milliseconds"))
			return
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

		slots, err := getter.GetServiceBookingSlots(r.Context(), serviceID, accountID, q)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get service booking slots", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get service booking slots")))
			return
		}

		log.Info("service booking slots computed",
			slog.String("service_id", serviceID),
			slog.Int("dates", len(slots.Dates)),
		)
		render.JSON(w, r, Response{BookingSlotsResponse: slots})
	}
}
