package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/realmadmin/internal/models"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
)

type contextKey string

// ClientContextKey holds the *models.TokenClaims of the authenticated client.
const ClientContextKey contextKey = "client"

// AuthMiddleware validates bearer tokens and injects their claims into context
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				challenge(w, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				challenge(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				challenge(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClientContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func challenge(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	pkghttp.WriteUnauthorized(w, message)
}

// RequireRole enforces the role carried by the token (must be used after AuthMiddleware)
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			if claims.Role != role {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext extracts token claims from request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ClientContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
