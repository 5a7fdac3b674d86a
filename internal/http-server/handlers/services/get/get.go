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

type ServiceGetter interface {
	GetService(ctx context.Context, id, accountID string) (*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	*api.ServiceResponse
}

func New(log *slog.Logger, getter ServiceGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "serviceID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		svc, err := getter.GetService(r.Context(), id, accountID)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to get service", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to get service")))
			return
		}

		render.JSON(w, r, Response{ServiceResponse: svc})
	}
}
