package add

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

type ServiceUserAdder interface {
	AddServiceUser(ctx context.Context, serviceID string, req *api.ServiceResourceRequest) (*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	*api.ServiceResponse
}

func New(log *slog.Logger, adder ServiceUserAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.users.add.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		serviceID := chi.URLParam(r, "serviceID")

		var req api.ServiceResourceRequest
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

		svc, err := adder.AddServiceUser(r.Context(), serviceID, &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to add service user", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to add service user")))
			return
		}

		log.Info("service user added",
			slog.String("service_id", serviceID),
			slog.String("user_id", req.UserID),
		)
		render.JSON(w, r, Response{ServiceResponse: svc})
	}
}
