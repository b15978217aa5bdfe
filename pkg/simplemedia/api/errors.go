package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/upload"
)

// ErrorBody is the payload of an error response
type ErrorBody struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Fields  []simplemedia.FieldError `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	var (
		verr *simplemedia.ValidationError
		berr *simplemedia.BindError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.As(err, &berr):
		return http.StatusBadRequest, "invalid_upload"
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, upload.ErrTooManyFiles),
		errors.Is(err, upload.ErrUnknownField),
		errors.Is(err, upload.ErrMalformedForm):
		return http.StatusBadRequest, "invalid_upload"
	case errors.Is(err, simplemedia.ErrNotFound), errors.Is(err, simplemedia.ErrInvalidKind):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, simplemedia.ErrSingletonKind), errors.Is(err, simplemedia.ErrNotSingletonKind):
		return http.StatusBadRequest, "unsupported_operation"
	case errors.Is(err, simplemedia.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	body := ErrorBody{Code: code, Message: err.Error()}
	var verr *simplemedia.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Message = "An internal server error occurred"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: body})
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}
