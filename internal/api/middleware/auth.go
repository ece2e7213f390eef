package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/jumbah-travel/internal/service"
	"github.com/google/uuid"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Identity is the authenticated caller, taken from the access token.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// TokenValidator is implemented by *service.AuthService.
type TokenValidator interface {
	ValidateToken(token string) (*service.TokenClaims, error)
}

func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				slog.Warn("middleware.Auth: missing authorization header", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				slog.Warn("middleware.Auth: invalid authorization header format", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				slog.Warn("middleware.Auth: token validation failed", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				slog.Warn("middleware.Auth: failed to parse user ID", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: userID, Username: claims.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
