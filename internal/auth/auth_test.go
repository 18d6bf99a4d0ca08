package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestParseReadsUserIDFromKnownClaims(t *testing.T) {
	for _, key := range []string{"sub", "userId", "user_id", "id"} {
		t.Run(key, func(t *testing.T) {
			token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{key: "user-42"})
			claims, err := Parse(token, Config{Secret: testSecret})
			require.NoError(t, err)
			require.Equal(t, "user-42", claims.UserID)
			require.True(t, claims.ExpiresAt.IsZero())
		})
	}
}

func TestParseRejectsInvalidTokens(t *testing.T) {
	expired := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongSecret := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user-1"})
	noUser := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "admin"})
	wrongIssuer := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-1", "iss": "someone-else"})

	cases := map[string]struct {
		token string
		cfg   Config
	}{
		"expired":      {expired, Config{Secret: testSecret}},
		"wrong secret": {wrongSecret, Config{Secret: testSecret}},
		"no user":      {noUser, Config{Secret: testSecret}},
		"wrong issuer": {wrongIssuer, Config{Secret: testSecret, Issuer: "progress"}},
		"garbage":      {"not-a-jwt", Config{Secret: testSecret}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.token, tc.cfg)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := Parse("  ", Config{Secret: testSecret})
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareStoresClaims(t *testing.T) {
	mw := NewMiddleware(Config{Secret: testSecret}, zerolog.Nop())
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	var seen string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/progress/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-7", seen)
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	mw := NewMiddleware(Config{Secret: testSecret}, zerolog.Nop())
	handler := mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Basic abc", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/progress/today", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"Please authenticate"}`, rec.Body.String())
	}
}
