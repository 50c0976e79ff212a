package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	"tutor_lms/internal/lib/api/view"
	"tutor_lms/internal/models"
	"tutor_lms/internal/sessions"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Pause, Resume, Complete and Abandon share one shape: resolve ids,
// run the transition, return the updated session.
func Pause(log *slog.Logger, svc *sessions.Service) http.HandlerFunc {
	return transition(log, "handlers.session.Pause", svc.Pause)
}

func Resume(log *slog.Logger, svc *sessions.Service) http.HandlerFunc {
	return transition(log, "handlers.session.Resume", svc.Resume)
}

func Complete(log *slog.Logger, svc *sessions.Service) http.HandlerFunc {
	return transition(log, "handlers.session.Complete", svc.Complete)
}

func Abandon(log *slog.Logger, svc *sessions.Service) http.HandlerFunc {
	return transition(log, "handlers.session.Abandon", svc.Abandon)
}

func transition(
	log *slog.Logger,
	op string,
	apply func(ctx context.Context, userID, sessionID int64) (models.TestSession, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, sessionID, ok := requestIDs(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s, err := apply(ctx, userID, sessionID)
		if err != nil {
			writeSessionError(log, w, r, err)
			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Session:  view.Session(s),
		})
	}
}
