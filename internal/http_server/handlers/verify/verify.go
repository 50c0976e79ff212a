package verify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/users"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

func New(
	log *slog.Logger,
	userService *users.Service,
	tokenSecret string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := r.URL.Query().Get("token")
		if token == "" {
			log.Warn("missing verification token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := userService.VerifyEmail(ctx, token, tokenSecret); err != nil {
			log.Warn("verification failed", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid or expired token"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
