// AngelaMos | 2026
// response.go

package core

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Message writes {"msg": msg} merged with the optional extra fields.
func Message(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["msg"] = msg
	JSON(w, status, body)
}

func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		writeInternalError(context.Background(), w, err)
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		writeInternalError(context.Background(), w, appErr.Err)
		return
	}

	JSON(w, appErr.StatusCode, ErrorBody{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

// InternalServerError logs err, records it on the request's span and
// reports it to Sentry. The client only sees a generic body.
func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	writeInternalError(r.Context(), w, err)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "internal server error", "error", err)

	if err != nil {
		SetSpanError(ctx, err)

		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureException(err)
	}

	JSON(w, http.StatusInternalServerError, ErrorBody{
		Error: "internal server error",
		Code:  "INTERNAL_ERROR",
	})
}
