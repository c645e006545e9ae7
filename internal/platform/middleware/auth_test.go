package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

const testKey = "test-signing-key"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestHMACValidator(t *testing.T) {
	v := NewHMACValidator(testKey, "hr-portal")
	valid := jwt.RegisteredClaims{
		Subject:   "ops@example.com",
		Issuer:    "hr-portal",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(testKey), valid))
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", claims.Subject)
	})

	t.Run("expired token", func(t *testing.T) {
		c := valid
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(testKey), c))
		assert.ErrorContains(t, err, "token has expired")
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("other"), valid))
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := valid
		c.Issuer = "someone-else"
		_, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(testKey), c))
		assert.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := valid
		c.ExpiresAt = nil
		_, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(testKey), c))
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := valid
		c.Subject = ""
		_, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(testKey), c))
		assert.ErrorContains(t, err, "invalid token claims")
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewHMACValidator(testKey, "")
	var subject, trigger string
	h := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = requestcontext.Subject(r.Context())
		trigger = requestcontext.Trigger(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/ad", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
	})

	t.Run("bad token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/sync/ad", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets subject and trigger", func(t *testing.T) {
		tok := sign(t, jwt.SigningMethodHS256, []byte(testKey), jwt.RegisteredClaims{
			Subject:   "scheduler-bot",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/sync/ad", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "scheduler-bot", subject)
		assert.Equal(t, TriggerAPI, trigger)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("propagates caller id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		h.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
