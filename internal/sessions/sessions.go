package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"
)

var (
	ErrSessionNotFound      = errors.New("test session not found")
	ErrNotOwner             = errors.New("session belongs to another user")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrSessionFinished      = errors.New("session is already finished")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionNotInSession = errors.New("question is not part of the session")
	ErrAlreadyAnswered      = errors.New("question already answered in this session")
	ErrNoQuestions          = errors.New("no questions match the requested filters")
)

type SessionStore interface {
	SaveSession(ctx context.Context, s *models.TestSession) (int64, error)
	SessionByID(ctx context.Context, id int64) (models.TestSession, error)
	SessionsByUser(ctx context.Context, userID int64) ([]models.TestSession, error)
	UpdateSession(ctx context.Context, s *models.TestSession) error
}

type QuestionProvider interface {
	QuestionByID(ctx context.Context, id int64) (models.Question, error)
	ActiveQuestionIDs(ctx context.Context, subject *models.Subject, difficulty *models.Difficulty, limit int) ([]int64, error)
}

type AnswerStore interface {
	SaveAnswer(ctx context.Context, a *models.Answer) (int64, error)
	AnswersBySession(ctx context.Context, sessionID int64) ([]models.Answer, error)
}

type StatsInvalidator interface {
	InvalidateUserStats(ctx context.Context, userID int64) error
}

type Service struct {
	log       *slog.Logger
	store     SessionStore
	questions QuestionProvider
	answers   AnswerStore
	stats     StatsInvalidator
}

func New(
	log *slog.Logger,
	store SessionStore,
	questions QuestionProvider,
	answers AnswerStore,
	stats StatsInvalidator,
) *Service {
	return &Service{
		log:       log,
		store:     store,
		questions: questions,
		answers:   answers,
		stats:     stats,
	}
}

type StartParams struct {
	Type          models.SessionType
	Subject       *models.Subject
	Difficulty    *models.Difficulty
	QuestionCount int
	TimeLimit     *int // minutes
}

// Start opens a new session with a randomized question order. Adaptive
// selection is not implemented; adaptive sessions get the same random
// order and carry their estimation fields untouched.
func (s *Service) Start(ctx context.Context, userID int64, p StartParams) (models.TestSession, error) {
	const op = "sessions.Start"

	log := s.log.With(slog.String("op", op), slog.Int64("uid", userID))

	if !p.Type.IsValid() {
		return models.TestSession{}, fmt.Errorf("%s: unknown session type %q", op, p.Type)
	}
	if p.QuestionCount <= 0 {
		p.QuestionCount = 10
	}

	ids, err := s.questions.ActiveQuestionIDs(ctx, p.Subject, p.Difficulty, p.QuestionCount)
	if err != nil {
		log.Error("failed to select questions", sl.Err(err))
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return models.TestSession{}, ErrNoQuestions
	}

	session := models.TestSession{
		UserID:         userID,
		Type:           p.Type,
		Status:         models.StatusActive,
		TimeLimit:      p.TimeLimit,
		TotalQuestions: len(ids),
		QuestionOrder:  ids,
	}

	id, err := s.store.SaveSession(ctx, &session)
	if err != nil {
		log.Error("failed to save session", sl.Err(err))
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.store.SessionByID(ctx, id)
	if err != nil {
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("session started", slog.Int64("session_id", id), slog.Int("questions", len(ids)))

	return saved, nil
}

func (s *Service) Get(ctx context.Context, userID, sessionID int64) (models.TestSession, error) {
	const op = "sessions.Get"

	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return models.TestSession{}, ErrSessionNotFound
		}

		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	if session.UserID != userID {
		return models.TestSession{}, ErrNotOwner
	}

	return session, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.TestSession, error) {
	const op = "sessions.ListByUser"

	sessions, err := s.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// SubmitAnswer grades one answer against the question key and advances
// the session counters. Only questions from the session's order are
// accepted, and each question only once, so AnsweredQuestions never
// exceeds TotalQuestions.
func (s *Service) SubmitAnswer(
	ctx context.Context,
	userID, sessionID, questionID int64,
	userAnswer string,
	timeSpent int,
) (models.Answer, error) {
	const op = "sessions.SubmitAnswer"

	log := s.log.With(slog.String("op", op), slog.Int64("session_id", sessionID))

	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return models.Answer{}, err
	}

	if session.Status != models.StatusActive {
		return models.Answer{}, ErrSessionNotActive
	}

	inOrder := false
	for _, id := range session.QuestionOrder {
		if id == questionID {
			inOrder = true
			break
		}
	}
	if !inOrder {
		return models.Answer{}, ErrQuestionNotInSession
	}

	existing, err := s.answers.AnswersBySession(ctx, sessionID)
	if err != nil {
		return models.Answer{}, fmt.Errorf("%s: %w", op, err)
	}
	for _, a := range existing {
		if a.QuestionID == questionID {
			return models.Answer{}, ErrAlreadyAnswered
		}
	}

	question, err := s.questions.QuestionByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, storage.ErrQuestionNotFound) {
			return models.Answer{}, ErrQuestionNotFound
		}

		return models.Answer{}, fmt.Errorf("%s: %w", op, err)
	}

	answer := models.Answer{
		SessionID:  sessionID,
		UserID:     userID,
		QuestionID: questionID,
		UserAnswer: userAnswer,
		IsCorrect:  question.IsCorrectAnswer(userAnswer),
		TimeSpent:  timeSpent,
	}

	answerID, err := s.answers.SaveAnswer(ctx, &answer)
	if err != nil {
		log.Error("failed to save answer", sl.Err(err))
		return models.Answer{}, fmt.Errorf("%s: %w", op, err)
	}
	answer.ID = answerID

	session.AnsweredQuestions++
	if answer.IsCorrect {
		session.CorrectAnswers++
	}
	session.CurrentQuestionIndex++
	session.TimeSpent += timeSpent

	if err := s.store.UpdateSession(ctx, &session); err != nil {
		log.Error("failed to update session", sl.Err(err))
		return models.Answer{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.stats != nil {
		if err := s.stats.InvalidateUserStats(ctx, userID); err != nil {
			log.Warn("failed to invalidate stats cache", sl.Err(err))
		}
	}

	return answer, nil
}

// Answers lists the submitted answers of an owned session in submission
// order, for reviewing a finished test.
func (s *Service) Answers(ctx context.Context, userID, sessionID int64) ([]models.Answer, error) {
	const op = "sessions.Answers"

	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	answers, err := s.answers.AnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return answers, nil
}

func (s *Service) Pause(ctx context.Context, userID, sessionID int64) (models.TestSession, error) {
	const op = "sessions.Pause"

	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return models.TestSession{}, err
	}

	if session.Status != models.StatusActive {
		return models.TestSession{}, ErrSessionNotActive
	}

	now := time.Now()
	session.Status = models.StatusPaused
	session.PausedAt = &now

	if err := s.store.UpdateSession(ctx, &session); err != nil {
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *Service) Resume(ctx context.Context, userID, sessionID int64) (models.TestSession, error) {
	const op = "sessions.Resume"

	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return models.TestSession{}, err
	}

	if session.Status != models.StatusPaused {
		return models.TestSession{}, ErrSessionFinished
	}

	session.Status = models.StatusActive
	session.PausedAt = nil

	if err := s.store.UpdateSession(ctx, &session); err != nil {
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// Complete closes a session and freezes its score. The score is the
// raw correct count; scaled SAT scoring is not implemented.
func (s *Service) Complete(ctx context.Context, userID, sessionID int64) (models.TestSession, error) {
	const op = "sessions.Complete"

	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return models.TestSession{}, err
	}

	if !session.CanResume() {
		return models.TestSession{}, ErrSessionFinished
	}

	now := time.Now()
	score := session.CorrectAnswers
	session.Status = models.StatusCompleted
	session.CompletedAt = &now
	session.PausedAt = nil
	session.TotalScore = &score

	if err := s.store.UpdateSession(ctx, &session); err != nil {
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.stats != nil {
		if err := s.stats.InvalidateUserStats(ctx, userID); err != nil {
			s.log.Warn("failed to invalidate stats cache", sl.Err(err))
		}
	}

	s.log.Info("session completed", slog.Int64("session_id", sessionID), slog.Int("score", score))

	return session, nil
}

func (s *Service) Abandon(ctx context.Context, userID, sessionID int64) (models.TestSession, error) {
	const op = "sessions.Abandon"

	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return models.TestSession{}, err
	}

	if !session.CanResume() {
		return models.TestSession{}, ErrSessionFinished
	}

	session.Status = models.StatusAbandoned
	session.PausedAt = nil

	if err := s.store.UpdateSession(ctx, &session); err != nil {
		return models.TestSession{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}
