package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
)

// blacklist is a RevocationChecker over a fixed set of token ids.
type blacklist struct {
	jtis map[string]bool
	err  error
}

func (b blacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return b.jtis[jti], b.err
}

func jtiOf(t *testing.T, token string) string {
	t.Helper()
	c, err := auth.ValidateToken(token)
	require.NoError(t, err)
	return c.JTI()
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Message
}

// whoami echoes the user id the middleware attached.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserIDFromCtx(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	role, _ := middleware.RoleFromCtx(r)
	_ = json.NewEncoder(w).Encode(map[string]any{"uid": id, "role": role})
})

func TestAuth(t *testing.T) {
	access, err := auth.GenerateToken(7, "customer")
	require.NoError(t, err)
	refresh, err := auth.GenerateRefreshToken(7, "customer")
	require.NoError(t, err)
	revoked, err := auth.GenerateToken(7, "customer")
	require.NoError(t, err)
	checker := blacklist{jtis: map[string]bool{jtiOf(t, revoked): true}}

	cases := []struct {
		name    string
		header  string
		checker middleware.RevocationChecker
		code    int
		message string
	}{
		{name: "no header", code: http.StatusUnauthorized, message: "Missing authorization token"},
		{name: "not a bearer", header: "Token " + access, code: http.StatusUnauthorized, message: "Missing authorization token"},
		{name: "garbage", header: "Bearer not.a.jwt", code: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "refresh token", header: "Bearer " + refresh, code: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "revoked", header: "Bearer " + revoked, checker: checker, code: http.StatusUnauthorized, message: "Token has been revoked"},
		{name: "lookup fails", header: "Bearer " + access, checker: blacklist{err: errors.New("db down")}, code: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "valid", header: "Bearer " + access, checker: checker, code: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + access, code: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			middleware.Auth(tc.checker)(whoami).ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, message(t, rec))
				return
			}
			assert.JSONEq(t, `{"uid":7,"role":"customer"}`, rec.Body.String())
		})
	}
}

func TestAuthQueryTokenOnlyForStreams(t *testing.T) {
	access, err := auth.GenerateToken(1, "admin")
	require.NoError(t, err)
	h := middleware.Auth(nil)(whoami)

	plain := httptest.NewRequest(http.MethodGet, "/live?access_token="+access, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sse := httptest.NewRequest(http.MethodGet, "/live?access_token="+access, nil)
	sse.Header.Set("Accept", "text/event-stream")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sse)
	assert.Equal(t, http.StatusOK, rec.Code)

	ws := httptest.NewRequest(http.MethodGet, "/live?access_token="+access, nil)
	ws.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, ws)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	access, err := auth.GenerateToken(3, "customer")
	require.NoError(t, err)
	h := middleware.OptionalAuth(blacklist{jtis: map[string]bool{jtiOf(t, access): true}})(whoami)

	guest := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guest)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	withRevoked := httptest.NewRequest(http.MethodPost, "/orders", nil)
	withRevoked.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withRevoked)
	assert.Equal(t, http.StatusNoContent, rec.Code, "a revoked token is treated as a guest")

	fresh, err := auth.GenerateToken(3, "customer")
	require.NoError(t, err)
	signedIn := httptest.NewRequest(http.MethodPost, "/orders", nil)
	signedIn.Header.Set("Authorization", "Bearer "+fresh)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedIn)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", message(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions("https://shop.example.com"))(whoami)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitFallsBackToLocalWindow(t *testing.T) {
	h := middleware.RateLimit(2, time.Minute)(whoami)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "other clients keep their own window")
}
