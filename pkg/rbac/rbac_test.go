package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
)

var pass = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func bearer(t *testing.T, uid uint, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(uid, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAdminOnly(t *testing.T) {
	h := middleware.Auth(nil)(rbac.AdminOnly(pass))
	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"anonymous", "", http.StatusUnauthorized, "Missing authorization token"},
		{"customer", bearer(t, 2, rbac.Customer), http.StatusForbidden, "Admin access required"},
		{"admin", bearer(t, 1, rbac.Admin), http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestHasRoleWithoutAuthIsUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	rbac.HasRole(rbac.Admin, rbac.Customer)(pass).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuest(t *testing.T) {
	h := middleware.OptionalAuth(nil)(rbac.Guest(pass))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	req.Header.Set("Authorization", bearer(t, 2, rbac.Customer))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
