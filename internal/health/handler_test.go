// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func get(t *testing.T, h *Handler, path string) (int, map[string]any) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		deps   []Dependency
		code   int
		status string
	}{
		{
			name: "all healthy",
			deps: []Dependency{
				{Name: "database", Checker: CheckerFunc(ok)},
				{Name: "redis", Checker: CheckerFunc(ok)},
			},
			code:   http.StatusOK,
			status: "ok",
		},
		{
			name: "required dependency down",
			deps: []Dependency{
				{Name: "database", Checker: CheckerFunc(failing)},
				{Name: "redis", Checker: CheckerFunc(ok)},
			},
			code:   http.StatusServiceUnavailable,
			status: "degraded",
		},
		{
			name: "optional dependency down",
			deps: []Dependency{
				{Name: "database", Checker: CheckerFunc(ok)},
				{Name: "nats", Checker: CheckerFunc(failing), Optional: true},
			},
			code:   http.StatusOK,
			status: "ok",
		},
		{
			name:   "unconfigured checker",
			deps:   []Dependency{{Name: "database"}},
			code:   http.StatusServiceUnavailable,
			status: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, NewHandler(tt.deps...), "/readyz")

			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body["status"])

			checks, isList := body["checks"].([]any)
			require.True(t, isList)
			assert.Len(t, checks, len(tt.deps))
		})
	}
}

func TestShutdownFlipsProbes(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: CheckerFunc(ok)})

	code, _ := get(t, h, "/livez")
	assert.Equal(t, http.StatusOK, code)

	h.SetShutdown(true)

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", body["status"])

	code, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestNotReady(t *testing.T) {
	h := NewHandler()
	h.SetReady(false)

	code, body := get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
}
