// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salexim/directory-backend/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
	got    string
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*AccessTokenClaims, error) {
	s.got = token
	return s.claims, s.err
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{
		"id":   GetUserID(r.Context()),
		"type": GetUserType(r.Context()),
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticator(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		h := Authenticator(&stubVerifier{})(http.HandlerFunc(echoIdentity))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeBody(t, rec)["code"])
	})

	t.Run("valid token populates context", func(t *testing.T) {
		v := &stubVerifier{claims: &AccessTokenClaims{UserID: "u-1", UserType: "admin"}}
		h := Authenticator(v)(http.HandlerFunc(echoIdentity))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc.def", v.got)
		body := decodeBody(t, rec)
		assert.Equal(t, "u-1", body["id"])
		assert.Equal(t, "admin", body["type"])
	})

	t.Run("revoked token", func(t *testing.T) {
		v := &stubVerifier{err: core.ErrTokenRevoked}
		h := Authenticator(v)(http.HandlerFunc(echoIdentity))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_REVOKED", decodeBody(t, rec)["code"])
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		userType string
		want     int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"plain user", "user", http.StatusForbidden},
		{"added user", "added", http.StatusForbidden},
		{"admin", "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAdmin(http.HandlerFunc(echoIdentity))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userType != "" {
				req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{
					UserID:   "u-1",
					UserType: tt.userType,
				}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"Bearer":         "",
		"Basic dXNlcg==": "",
		"Bearer  tok ":   "tok",
		"BEARER a.b.c":   "a.b.c",
	}

	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractToken(req), "header %q", header)
	}
}
