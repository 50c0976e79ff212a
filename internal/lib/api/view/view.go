package view

import (
	"time"

	"tutor_lms/internal/models"
)

// UserView is the public shape of a user. The password hash never
// leaves the server.
type UserView struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func User(u models.User) UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       string(u.Role),
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		LastLogin:  u.LastLogin,
	}
}

func Users(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, User(u))
	}
	return out
}

type SessionView struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	Type                 string     `json:"session_type"`
	Status               string     `json:"status"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	PausedAt             *time.Time `json:"paused_at,omitempty"`
	TimeLimit            *int       `json:"time_limit,omitempty"`
	TimeSpent            int        `json:"time_spent"`
	TotalQuestions       int        `json:"total_questions"`
	AnsweredQuestions    int        `json:"answered_questions"`
	CorrectAnswers       int        `json:"correct_answers"`
	TotalScore           *int       `json:"total_score,omitempty"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	QuestionOrder        []int64    `json:"question_order,omitempty"`
	Accuracy             float64    `json:"accuracy_percentage"`
	Completion           float64    `json:"completion_percentage"`
}

func Session(s models.TestSession) SessionView {
	return SessionView{
		ID:                   s.ID,
		UserID:               s.UserID,
		Type:                 string(s.Type),
		Status:               string(s.Status),
		StartedAt:            s.StartedAt,
		CompletedAt:          s.CompletedAt,
		PausedAt:             s.PausedAt,
		TimeLimit:            s.TimeLimit,
		TimeSpent:            s.TimeSpent,
		TotalQuestions:       s.TotalQuestions,
		AnsweredQuestions:    s.AnsweredQuestions,
		CorrectAnswers:       s.CorrectAnswers,
		TotalScore:           s.TotalScore,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		QuestionOrder:        s.QuestionOrder,
		Accuracy:             s.Accuracy(),
		Completion:           s.Completion(),
	}
}

func Sessions(sessions []models.TestSession) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, Session(s))
	}
	return out
}

type AnswerView struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserAnswer string    `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	TimeSpent  int       `json:"time_spent"`
	CreatedAt  time.Time `json:"created_at"`
}

func Answer(a models.Answer) AnswerView {
	return AnswerView{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		UserAnswer: a.UserAnswer,
		IsCorrect:  a.IsCorrect,
		TimeSpent:  a.TimeSpent,
		CreatedAt:  a.CreatedAt,
	}
}

func Answers(answers []models.Answer) []AnswerView {
	out := make([]AnswerView, 0, len(answers))
	for _, a := range answers {
		out = append(out, Answer(a))
	}
	return out
}
