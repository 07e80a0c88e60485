package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercio/m/domain"
	"comercio/m/internal/logger"
)

func testHandler() *Handler {
	return &Handler{secret: "test-secret", log: logger.NewNop()}
}

func protectedProbe(h *Handler, capture *int64) http.Handler {
	return h.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*capture = userIDFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthTokenRoundTrip(t *testing.T) {
	h := testHandler()
	token, err := h.generateToken(domain.User{ID: 7, Correo: "ana@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var captured int64
	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedProbe(h, &captured).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), captured)
}

func TestAuthTokenViaQueryParam(t *testing.T) {
	h := testHandler()
	token, err := h.generateToken(domain.User{ID: 3, Correo: "luis@example.com"})
	require.NoError(t, err)

	var captured int64
	req := httptest.NewRequest(http.MethodGet, "/ventas?token="+token, nil)
	rec := httptest.NewRecorder()
	protectedProbe(h, &captured).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), captured)
}

func TestAuthMissingToken(t *testing.T) {
	h := testHandler()
	var captured int64
	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	rec := httptest.NewRecorder()
	protectedProbe(h, &captured).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token de autenticacion requerido")
	assert.Zero(t, captured)
}

func TestAuthExpiredToken(t *testing.T) {
	h := testHandler()
	claims := authClaims{
		UserID: 7,
		Correo: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	require.NoError(t, err)

	var captured int64
	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedProbe(h, &captured).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token invalido o expirado")
}

func TestAuthWrongSecret(t *testing.T) {
	other := &Handler{secret: "another-secret", log: logger.NewNop()}
	token, err := other.generateToken(domain.User{ID: 7, Correo: "ana@example.com"})
	require.NoError(t, err)

	h := testHandler()
	var captured int64
	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedProbe(h, &captured).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
