package identify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tutor_lms/internal/auth"
	resp "tutor_lms/internal/lib/api/response"
	"tutor_lms/internal/lib/api/view"
	sl "tutor_lms/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	User view.UserView `json:"user"`
}

// New resolves the bearer access token to the caller's profile. The
// token is verified in full here rather than by the authn middleware so
// the auth group stays self-contained.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.identify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing bearer token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := authService.Identify(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to identify user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     view.User(user),
		})
	}
}
