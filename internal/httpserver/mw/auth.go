package mw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/logger"
)

type ctxKey int

const ownerKey ctxKey = iota

// OwnerID returns the authenticated owner identity injected by Auth.
func OwnerID(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey).(string)
	return owner, ok && owner != ""
}

// WithOwner injects an owner identity into the context. Exposed for tests.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// Auth verifies the bearer token and injects the owner identity into the
// request context. Authentication failure is terminal for the request:
// the middleware responds 401 and the handler never runs.
func Auth(secret []byte, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				unauthorized(w, "Missing bearer token")
				return
			}

			owner, err := auth.OwnerFromToken(strings.TrimSpace(token), secret)
			if err != nil {
				log.Debug("token verification failed", logger.Error(err))
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}
