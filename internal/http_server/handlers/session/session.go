package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	"tutor_lms/internal/lib/api/view"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/middleware/authn"
	"tutor_lms/internal/models"
	"tutor_lms/internal/sessions"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type StartRequest struct {
	Type          string  `json:"session_type" validate:"required"`
	Subject       *string `json:"subject"`
	Difficulty    *string `json:"difficulty"`
	QuestionCount int     `json:"question_count"`
	TimeLimit     *int    `json:"time_limit"`
}

type Response struct {
	resp.Response
	Session view.SessionView `json:"session"`
}

type ListResponse struct {
	resp.Response
	Sessions []view.SessionView `json:"sessions"`
}

func Start(
	log *slog.Logger,
	validate *validator.Validate,
	svc *sessions.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.Start"

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

		var req StartRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		params := sessions.StartParams{
			Type:          models.SessionType(req.Type),
			QuestionCount: req.QuestionCount,
			TimeLimit:     req.TimeLimit,
		}
		if req.Subject != nil {
			subject := models.Subject(*req.Subject)
			params.Subject = &subject
		}
		if req.Difficulty != nil {
			difficulty := models.Difficulty(*req.Difficulty)
			params.Difficulty = &difficulty
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s, err := svc.Start(ctx, userID, params)
		if err != nil {
			if errors.Is(err, sessions.ErrNoQuestions) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("No questions available for the requested filters"))

				return
			}

			log.Error("failed to start session", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Session:  view.Session(s),
		})
	}
}

func Get(
	log *slog.Logger,
	svc *sessions.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.Get"

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

		s, err := svc.Get(ctx, userID, sessionID)
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

func List(
	log *slog.Logger,
	svc *sessions.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.List"

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

		list, err := svc.ListByUser(ctx, userID)
		if err != nil {
			log.Error("failed to list sessions", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Sessions: view.Sessions(list),
		})
	}
}

func requestIDs(w http.ResponseWriter, r *http.Request) (userID, sessionID int64, ok bool) {
	userID, hasUser := authn.UserID(r.Context())
	if !hasUser {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("unauthorized"))

		return 0, 0, false
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("invalid session id"))

		return 0, 0, false
	}

	return userID, sessionID, true
}

func writeSessionError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Session not found"))
	case errors.Is(err, sessions.ErrNotOwner):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Session belongs to another user"))
	case errors.Is(err, sessions.ErrSessionNotActive):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("Session is not active"))
	case errors.Is(err, sessions.ErrSessionFinished):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("Session is already finished"))
	case errors.Is(err, sessions.ErrQuestionNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Question not found"))
	case errors.Is(err, sessions.ErrQuestionNotInSession):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Question is not part of this session"))
	case errors.Is(err, sessions.ErrAlreadyAnswered):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("Question already answered"))
	default:
		log.Error("session operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}
