package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "tutor_lms/internal/lib/api/response"
	"tutor_lms/internal/lib/api/view"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/middleware/authn"
	"tutor_lms/internal/models"
	"tutor_lms/internal/users"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type QuestionSaver interface {
	SaveQuestion(ctx context.Context, q *models.Question) (int64, error)
}

type ListResponse struct {
	resp.Response
	Users []view.UserView `json:"users"`
}

type CountsResponse struct {
	resp.Response
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	InactiveUsers int `json:"inactive_users"`
}

type CreateQuestionRequest struct {
	QuestionText  string   `json:"question_text" validate:"required"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Explanation   string   `json:"explanation"`
	Type          string   `json:"question_type" validate:"required"`
	Difficulty    string   `json:"difficulty_level" validate:"required"`
	Subject       string   `json:"subject" validate:"required"`
	Topic         string   `json:"topic" validate:"required"`
	EstimatedTime *int     `json:"estimated_time"`
}

type CreateQuestionResponse struct {
	resp.Response
	QuestionID int64 `json:"question_id"`
}

// requireAdmin loads the caller and gates on role. The switch is
// exhaustive over the closed role set.
func requireAdmin(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	userService *users.Service,
) bool {
	userID, ok := authn.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("unauthorized"))

		return false
	}

	user, err := userService.Profile(ctx, userID)
	if err != nil {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Admin access required"))

		return false
	}

	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent, models.RoleInstructor:
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Admin access required"))

		return false
	default:
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Admin access required"))

		return false
	}
}

func ListUsers(
	log *slog.Logger,
	userService *users.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ListUsers"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if !requireAdmin(ctx, w, r, userService) {
			return
		}

		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil {
			limit = 100
		}
		activeOnly := r.URL.Query().Get("active_only") != "false"

		list, err := userService.List(ctx, skip, limit, activeOnly)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Users:    view.Users(list),
		})
	}
}

// CreateQuestion adds a question to the pool. New questions start
// active and become eligible for session selection immediately.
func CreateQuestion(
	log *slog.Logger,
	validate *validator.Validate,
	userService *users.Service,
	questions QuestionSaver,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CreateQuestion"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if !requireAdmin(ctx, w, r, userService) {
			return
		}

		var req CreateQuestionRequest

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

		question := models.Question{
			Content: models.QuestionContent{
				QuestionText:  req.QuestionText,
				Choices:       req.Choices,
				CorrectAnswer: req.CorrectAnswer,
				Explanation:   req.Explanation,
			},
			Type:          models.QuestionType(req.Type),
			Difficulty:    models.Difficulty(req.Difficulty),
			Subject:       models.Subject(req.Subject),
			Topic:         req.Topic,
			EstimatedTime: req.EstimatedTime,
			IsActive:      true,
		}

		if !question.Type.IsValid() || !question.Difficulty.IsValid() || !question.Subject.IsValid() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Unknown question type, difficulty or subject"))

			return
		}

		id, err := questions.SaveQuestion(ctx, &question)
		if err != nil {
			log.Error("failed to save question", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("question created", slog.Int64("id", id))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateQuestionResponse{
			Response:   resp.OK(),
			QuestionID: id,
		})
	}
}

func UserCounts(
	log *slog.Logger,
	userService *users.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UserCounts"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if !requireAdmin(ctx, w, r, userService) {
			return
		}

		total, active, err := userService.Counts(ctx)
		if err != nil {
			log.Error("failed to count users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, CountsResponse{
			Response:      resp.OK(),
			TotalUsers:    total,
			ActiveUsers:   active,
			InactiveUsers: total - active,
		})
	}
}
