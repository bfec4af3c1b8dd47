// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salexim/directory-backend/internal/config"
	"github.com/salexim/directory-backend/internal/core"
)

func testJWTConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "keys", "public.pem"),
		AccessTokenExpire: time.Hour,
		Issuer:            "directory-test",
		Audience:          "directory-clients",
	}

	created, err := EnsureKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	require.NoError(t, err)
	require.True(t, created)

	return cfg
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(testJWTConfig(t))
	require.NoError(t, err)
	return m
}

func TestEnsureKeyPairKeepsExistingKeys(t *testing.T) {
	cfg := testJWTConfig(t)

	created, err := EnsureKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t)

	signed, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		UserType:     "admin",
		TokenVersion: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, signed.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), signed.ExpiresAt, 5*time.Second)

	claims, err := m.ParseAccessToken(signed.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.UserType)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, signed.JTI, claims.JTI)
}

func TestParseAccessTokenRejects(t *testing.T) {
	m := newTestJWTManager(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseAccessToken("not-a-token")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("other key", func(t *testing.T) {
		other := newTestJWTManager(t)
		signed, err := other.CreateAccessToken(AccessTokenClaims{UserID: "u"})
		require.NoError(t, err)

		_, err = m.ParseAccessToken(signed.Token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		cfg := testJWTConfig(t)
		verifier, err := NewJWTManager(cfg)
		require.NoError(t, err)

		cfg.Audience = "someone-else"
		issuer, err := NewJWTManager(cfg)
		require.NoError(t, err)

		signed, err := issuer.CreateAccessToken(AccessTokenClaims{UserID: "u"})
		require.NoError(t, err)

		_, err = verifier.ParseAccessToken(signed.Token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		cfg := testJWTConfig(t)
		cfg.AccessTokenExpire = -time.Minute
		expired, err := NewJWTManager(cfg)
		require.NoError(t, err)

		signed, err := expired.CreateAccessToken(AccessTokenClaims{UserID: "u"})
		require.NoError(t, err)

		_, err = expired.ParseAccessToken(signed.Token)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})
}

func TestJWKSHandler(t *testing.T) {
	m := newTestJWTManager(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	assert.NotContains(t, body.Keys[0], "d")
}
