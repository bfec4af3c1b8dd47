// AngelaMos | 2026
// handler_test.go

package otp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(f.svc).RegisterRoutes(r, passthrough)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec, out
}

func TestHandlerOTPFlow(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	rec, body := doJSON(t, h, "/api/sendOtp", `{"email":"a@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusSent, body["status"])

	rec, body = doJSON(t, h, "/api/sendOtp", `{"email":"a@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusInProgress, body["status"])

	code := f.gateway.last("a@example.com")
	rec, body = doJSON(t, h, "/api/verifyOtp", `{"email":"a@example.com","otp":"`+code+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully.", body["msg"])
}

func TestHandlerSendOTPConflict(t *testing.T) {
	f := newFixture(t, "taken@example.com")

	rec, body := doJSON(t, newTestRouter(f), "/api/sendOtp", `{"email":"taken@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestHandlerVerifyOTPInvalid(t *testing.T) {
	f := newFixture(t)

	rec, body := doJSON(t, newTestRouter(f), "/api/verifyOtp", `{"email":"a@example.com","otp":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OR_EXPIRED", body["code"])
}

func TestHandlerResendOTPNotFoundIsBadRequest(t *testing.T) {
	f := newFixture(t)

	rec, body := doJSON(t, newTestRouter(f), "/api/resendOtp", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestHandlerValidation(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	rec, body := doJSON(t, h, "/api/sendOtp", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	rec, _ = doJSON(t, h, "/api/verifyOtp", `{"email":"a@example.com","otp":"12ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, "/api/sendOtp", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
