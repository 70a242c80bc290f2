package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hcollier/todo-api/internal/metrics"
	"github.com/hcollier/todo-api/internal/token"
)

type key string

const UserIDKey key = "user_id"

// Auth gates every protected route. The token is read from the Authorization
// header, either verbatim or with a "Bearer " prefix. Invalid and missing
// tokens are rejected with 401 before any handler or repository runs.
func Auth(verifier *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.IncAuthFailure("missing")
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := verifier.Verify(tokenStr)
			if err != nil {
				metrics.IncAuthFailure("invalid")
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user id stored by Auth.
func GetUserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
