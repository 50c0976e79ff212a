package stats

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/middleware/authn"
	"tutor_lms/internal/models"
	"tutor_lms/internal/users"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Stats models.UserStats `json:"stats"`
}

func New(
	log *slog.Logger,
	userService *users.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.stats.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("unauthorized"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		userStats, err := userService.Stats(ctx, userID)
		if err != nil {
			log.Error("failed to load stats", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Stats:    userStats,
		})
	}
}
