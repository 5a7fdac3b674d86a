package remove

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

type ServiceUserRemover interface {
	RemoveServiceUser(ctx context.Context, serviceID, userID, accountID string) (*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	*api.ServiceResponse
}

func New(log *slog.Logger, remover ServiceUserRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.users.remove.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serviceID := chi.URLParam(r, "serviceID")
		userID := chi.URLParam(r, "userID")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		svc, err := remover.RemoveServiceUser(r.Context(), serviceID, userID, accountID)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to remove service user", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to remove service user")))
			return
		}

		log.Info("service user removed",
			slog.String("service_id", serviceID),
			slog.String("user_id", userID),
		)
		render.JSON(w, r, Response{ServiceResponse: svc})
	}
}
