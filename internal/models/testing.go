package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type SessionType string

const (
	SessionPractice      SessionType = "practice"
	SessionFullTest      SessionType = "full_test"
	SessionAdaptiveTest  SessionType = "adaptive_test"
	SessionTopicPractice SessionType = "topic_practice"
)

func (s SessionType) IsValid() bool {
	switch s {
	case SessionPractice, SessionFullTest, SessionAdaptiveTest, SessionTopicPractice:
		return true
	}
	return false
}

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

type TestSession struct {
	ID     int64
	UserID int64

	Type   SessionType
	Status SessionStatus

	StartedAt   time.Time
	CompletedAt *time.Time
	PausedAt    *time.Time
	TimeLimit   *int // minutes
	TimeSpent   int  // seconds

	TotalQuestions       int
	AnsweredQuestions    int
	CorrectAnswers       int
	TotalScore           *int
	CurrentQuestionIndex int
	QuestionOrder        []int64

	// Adaptive-testing snapshots are carried opaquely; nothing in the
	// backend interprets them yet.
	EstimatedAbility      json.RawMessage
	DifficultyProgression json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *TestSession) Accuracy() float64 {
	if s.AnsweredQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.AnsweredQuestions) * 100
}

func (s *TestSession) Completion() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.AnsweredQuestions) / float64(s.TotalQuestions) * 100
}

func (s *TestSession) CanResume() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionGridIn         QuestionType = "grid_in"
	QuestionEssay          QuestionType = "essay"
	QuestionReading        QuestionType = "reading_comprehension"
)

func (q QuestionType) IsValid() bool {
	switch q {
	case QuestionMultipleChoice, QuestionGridIn, QuestionEssay, QuestionReading:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Subject string

const (
	SubjectReading Subject = "reading"
	SubjectWriting Subject = "writing"
	SubjectMath    Subject = "math"
)

func (s Subject) IsValid() bool {
	switch s {
	case SubjectReading, SubjectWriting, SubjectMath:
		return true
	}
	return false
}

// QuestionContent is the flexible question payload. Choices and
// Explanation are only meaningful for some question types.
type QuestionContent struct {
	QuestionText  string   `json:"question_text"`
	Choices       []string `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type Question struct {
	ID            int64
	Content       QuestionContent
	Type          QuestionType
	Difficulty    Difficulty
	Subject       Subject
	Topic         string
	EstimatedTime *int // seconds
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCorrectAnswer grades a raw user answer against the stored key.
// Grid-in answers compare numerically so "0.5" matches ".5".
func (q *Question) IsCorrectAnswer(userAnswer string) bool {
	want := strings.TrimSpace(q.Content.CorrectAnswer)
	got := strings.TrimSpace(userAnswer)

	switch q.Type {
	case QuestionGridIn:
		wantNum, err1 := strconv.ParseFloat(want, 64)
		gotNum, err2 := strconv.ParseFloat(got, 64)
		if err1 == nil && err2 == nil {
			return wantNum == gotNum
		}
		return strings.EqualFold(got, want)
	default:
		return strings.EqualFold(got, want)
	}
}

type Answer struct {
	ID         int64
	SessionID  int64
	UserID     int64
	QuestionID int64
	UserAnswer string
	IsCorrect  bool
	TimeSpent  int // seconds
	CreatedAt  time.Time
}
