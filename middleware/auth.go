package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"tripRecapAPI/internal/auth"
	"tripRecapAPI/internal/logging"
)

type contextKey string

const UserIDKey contextKey = "userID"

// OptionalAuthMiddleware reads a bearer token when one is sent and records the
// user on the request context and log. Requests without a valid token pass through.
func OptionalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if authHeader == "" || token == authHeader {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.GetUserIDFromToken(token, key)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("ignoring invalid bearer token")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			l := logging.Ctx(ctx).With().Str("user_id", userID).Logger()
			ctx = logging.WithContext(ctx, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user id from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}
