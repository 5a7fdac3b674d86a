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

type ServiceCreator interface {
	CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	*api.ServiceResponse
}

func New(log *slog.Logger, creator ServiceCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.ServiceRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.AccountID == "" {
			log.Error("account_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "account_id is required"))
			return
		}

		svc, err := creator.CreateService(r.Context(), &req)
		if err != nil {
			status, code := response.HTTPStatus(err)
			log.Error("failed to create service", sl.Err(err))
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), response.Message(err, "failed to create service")))
			return
		}

		log.Info("service created", slog.String("service_id", svc.Service.ID))
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{ServiceResponse: svc})
	}
}
