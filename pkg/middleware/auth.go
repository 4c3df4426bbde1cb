package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// RevocationChecker reports whether a token id has been blacklisted.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// bearer reads the Authorization header. Browsers cannot set headers on
// websocket and EventSource requests, so those may pass access_token in
// the query string instead.
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// authenticate returns the access-token claims for r, or a client-facing
// error message.
func authenticate(r *http.Request, rc RevocationChecker) (*auth.Claims, string) {
	token := bearer(r)
	if token == "" {
		return nil, "Missing authorization token"
	}

	claims, err := auth.ValidateTyped(token, auth.TypeAccess)
	if err != nil {
		return nil, "Invalid or expired token"
	}

	if rc != nil {
		revoked, err := rc.IsRevoked(r.Context(), claims.JTI())
		if err != nil {
			logger.WithCtx(r.Context()).Error("token revocation lookup failed", "error", err)
			return nil, "Invalid or expired token"
		}
		if revoked {
			return nil, "Token has been revoked"
		}
	}
	return claims, ""
}

// Auth requires a valid, unrevoked access token and stores its claims in
// the request context.
func Auth(rc RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, msg := authenticate(r, rc)
			if claims == nil {
				response.Error(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through as a guest.
func OptionalAuth(rc RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer(r) != "" {
				if claims, _ := authenticate(r, rc); claims != nil {
					r = r.WithContext(auth.WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromCtx returns the authenticated user's id.
func UserIDFromCtx(r *http.Request) (uint, bool) {
	c, ok := auth.FromContext(r.Context())
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	c, ok := auth.FromContext(r.Context())
	if !ok {
		return "", false
	}
	return c.Role, true
}
