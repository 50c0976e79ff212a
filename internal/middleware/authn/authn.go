package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "tutor_lms/internal/lib/api/response"
	jwtlib "tutor_lms/internal/lib/jwt"
	sl "tutor_lms/internal/lib/logger"

	"github.com/go-chi/render"
)

type ctxKey int

const userIDKey ctxKey = 0

// New verifies the bearer access token and stashes the subject user id
// in the request context. Refresh tokens do not pass.
func New(log *slog.Logger, tokens *jwtlib.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing authorization header"))

				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("malformed authorization header"))

				return
			}

			userID, err := tokens.UserID(token, jwtlib.TypeAccess)
			if err != nil {
				log.Warn("rejected access token", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id placed by New.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
