package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	"tutor_lms/internal/lib/api/view"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/sessions"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type AnswerRequest struct {
	QuestionID int64  `json:"question_id" validate:"required"`
	UserAnswer string `json:"user_answer" validate:"required"`
	TimeSpent  int    `json:"time_spent"`
}

type AnswerResponse struct {
	resp.Response
	AnswerID  int64 `json:"answer_id"`
	IsCorrect bool  `json:"is_correct"`
}

type AnswerListResponse struct {
	resp.Response
	Answers []view.AnswerView `json:"answers"`
}

func SubmitAnswer(
	log *slog.Logger,
	validate *validator.Validate,
	svc *sessions.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.SubmitAnswer"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, sessionID, ok := requestIDs(w, r)
		if !ok {
			return
		}

		var req AnswerRequest

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		answer, err := svc.SubmitAnswer(ctx, userID, sessionID, req.QuestionID, req.UserAnswer, req.TimeSpent)
		if err != nil {
			writeSessionError(log, w, r, err)
			return
		}

		render.JSON(w, r, AnswerResponse{
			Response:  resp.OK(),
			AnswerID:  answer.ID,
			IsCorrect: answer.IsCorrect,
		})
	}
}

func ListAnswers(
	log *slog.Logger,
	svc *sessions.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.ListAnswers"

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

		answers, err := svc.Answers(ctx, userID, sessionID)
		if err != nil {
			writeSessionError(log, w, r, err)
			return
		}

		render.JSON(w, r, AnswerListResponse{
			Response: resp.OK(),
			Answers:  view.Answers(answers),
		})
	}
}
