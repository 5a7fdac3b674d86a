package response

import (
	"errors"
	"net/http"
	"strings"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST ErrCode = "REQUEST_FAILED"
	BAD_REQUEST    ErrCode = "FAILED_TO_DECODE"
	VALIDATION     ErrCode = "VALIDATION_FAILED"
	NOT_FOUND      ErrCode = "NOT_FOUND"
	LOCKED         ErrCode = "LOCKED"
	CONFLICT       ErrCode = "CONFLICT"
	NOT_AVAILABLE  ErrCode = "USER_NOT_AVAILABLE"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("resource not found")
	ErrLocked       = errors.New("resource is locked")
	ErrConflict     = errors.New("conflict")
	ErrNotAvailable = errors.New("user is not available")
)

// HTTPStatus maps a service-layer error to its status and error code.
func HTTPStatus(err error) (int, ErrCode) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, NOT_FOUND
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, VALIDATION
	case errors.Is(err, ErrLocked):
		return http.StatusLocked, LOCKED
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, CONFLICT
	case errors.Is(err, ErrNotAvailable):
		return http.StatusUnprocessableEntity, NOT_AVAILABLE
	default:
		return http.StatusInternalServerError, FAILED_REQUEST
	}
}

// Message picks the client-facing message: validation failures carry their
// own text naming the offending field, everything else collapses to the
// fallback.
func Message(err error, fallback string) string {
	if errors.Is(err, ErrBadRequest) {
		return strings.TrimSuffix(err.Error(), ": "+ErrBadRequest.Error())
	}
	return fallback
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
