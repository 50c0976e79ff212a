package sessions

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"

	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	nextID   int64
	sessions map[int64]models.TestSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]models.TestSession)}
}

func (f *fakeSessionStore) SaveSession(_ context.Context, s *models.TestSession) (int64, error) {
	f.nextID++
	s.ID = f.nextID
	s.StartedAt = time.Now()
	s.CreatedAt = s.StartedAt
	s.UpdatedAt = s.StartedAt
	f.sessions[s.ID] = *s
	return s.ID, nil
}

func (f *fakeSessionStore) SessionByID(_ context.Context, id int64) (models.TestSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return models.TestSession{}, storage.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) SessionsByUser(_ context.Context, userID int64) ([]models.TestSession, error) {
	var out []models.TestSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) UpdateSession(_ context.Context, s *models.TestSession) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return storage.ErrSessionNotFound
	}
	s.UpdatedAt = time.Now()
	f.sessions[s.ID] = *s
	return nil
}

type fakeQuestionRepo struct {
	questions map[int64]models.Question
}

func newFakeQuestionRepo(questions ...models.Question) *fakeQuestionRepo {
	f := &fakeQuestionRepo{questions: make(map[int64]models.Question)}
	for _, q := range questions {
		f.questions[q.ID] = q
	}
	return f
}

func (f *fakeQuestionRepo) QuestionByID(_ context.Context, id int64) (models.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return models.Question{}, storage.ErrQuestionNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) ActiveQuestionIDs(_ context.Context, subject *models.Subject, difficulty *models.Difficulty, limit int) ([]int64, error) {
	var ids []int64
	for _, q := range f.questions {
		if !q.IsActive {
			continue
		}
		if subject != nil && q.Subject != *subject {
			continue
		}
		if difficulty != nil && q.Difficulty != *difficulty {
			continue
		}
		ids = append(ids, q.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type fakeAnswerRepo struct {
	nextID  int64
	answers []models.Answer
}

func (f *fakeAnswerRepo) SaveAnswer(_ context.Context, a *models.Answer) (int64, error) {
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = time.Now()
	f.answers = append(f.answers, *a)
	return a.ID, nil
}

func (f *fakeAnswerRepo) AnswersBySession(_ context.Context, sessionID int64) ([]models.Answer, error) {
	var out []models.Answer
	for _, a := range f.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeInvalidator struct {
	invalidated []int64
}

func (f *fakeInvalidator) InvalidateUserStats(_ context.Context, userID int64) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func mathQuestion(id int64, correct string) models.Question {
	return models.Question{
		ID: id,
		Content: models.QuestionContent{
			QuestionText:  "2+2?",
			Choices:       []string{"A", "B", "C", "D"},
			CorrectAnswer: correct,
		},
		Type:       models.QuestionMultipleChoice,
		Difficulty: models.DifficultyEasy,
		Subject:    models.SubjectMath,
		Topic:      "arithmetic",
		IsActive:   true,
	}
}

func newTestService(store *fakeSessionStore, questions *fakeQuestionRepo, answers *fakeAnswerRepo, stats *fakeInvalidator) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, questions, answers, stats)
}

func TestStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"), mathQuestion(2, "C"))
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice, QuestionCount: 5})
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, s.Status)
	require.Equal(t, 2, s.TotalQuestions)
	require.Len(t, s.QuestionOrder, 2)
}

func TestStart_NoQuestions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(newFakeSessionStore(), newFakeQuestionRepo(), &fakeAnswerRepo{}, &fakeInvalidator{})

	subject := models.SubjectWriting
	_, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice, Subject: &subject})
	require.ErrorIs(t, err, ErrNoQuestions)
}

func TestStart_UnknownType(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeSessionStore(), newFakeQuestionRepo(mathQuestion(1, "B")), &fakeAnswerRepo{}, &fakeInvalidator{})

	_, err := svc.Start(context.Background(), 10, StartParams{Type: "speed_run"})
	require.Error(t, err)
}

func TestSubmitAnswer_GradesAndAdvances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"), mathQuestion(2, "C"))
	answers := &fakeAnswerRepo{}
	stats := &fakeInvalidator{}
	svc := newTestService(store, questions, answers, stats)

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)

	// Case-insensitive match counts as correct.
	a, err := svc.SubmitAnswer(ctx, 10, s.ID, 1, "b", 42)
	require.NoError(t, err)
	require.True(t, a.IsCorrect)

	a, err = svc.SubmitAnswer(ctx, 10, s.ID, 2, "A", 13)
	require.NoError(t, err)
	require.False(t, a.IsCorrect)

	updated, err := svc.Get(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.AnsweredQuestions)
	require.Equal(t, 1, updated.CorrectAnswers)
	require.Equal(t, 2, updated.CurrentQuestionIndex)
	require.Equal(t, 55, updated.TimeSpent)

	require.Len(t, answers.answers, 2)
	require.Equal(t, []int64{10, 10}, stats.invalidated)
}

func TestSubmitAnswer_OutsideQuestionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	retired := mathQuestion(3, "A")
	retired.IsActive = false
	questions := newFakeQuestionRepo(mathQuestion(1, "B"), mathQuestion(2, "C"), retired)
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)
	require.NotContains(t, s.QuestionOrder, int64(3))

	_, err = svc.SubmitAnswer(ctx, 10, s.ID, 3, "A", 5)
	require.ErrorIs(t, err, ErrQuestionNotInSession)

	unchanged, err := svc.Get(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, 0, unchanged.AnsweredQuestions)
}

func TestSubmitAnswer_RepeatRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"), mathQuestion(2, "C"))
	answers := &fakeAnswerRepo{}
	svc := newTestService(store, questions, answers, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)

	for _, id := range s.QuestionOrder {
		_, err := svc.SubmitAnswer(ctx, 10, s.ID, id, "B", 5)
		require.NoError(t, err)
	}

	// Resubmitting any question must not push the counters past the
	// question count.
	for _, id := range s.QuestionOrder {
		_, err := svc.SubmitAnswer(ctx, 10, s.ID, id, "B", 5)
		require.ErrorIs(t, err, ErrAlreadyAnswered)
	}

	updated, err := svc.Get(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, updated.TotalQuestions, updated.AnsweredQuestions)
	require.Equal(t, float64(100), updated.Completion())
	require.Len(t, answers.answers, updated.TotalQuestions)
}

func TestAnswers_ListsOwnedSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"))
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, 10, s.ID, 1, "b", 7)
	require.NoError(t, err)

	list, err := svc.Answers(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].QuestionID)
	require.True(t, list[0].IsCorrect)

	_, err = svc.Answers(ctx, 99, s.ID)
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestSubmitAnswer_OwnerOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"))
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, 99, s.ID, 1, "B", 5)
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestLifecycle_PauseResumeComplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"))
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionFullTest})
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPaused, paused.Status)
	require.NotNil(t, paused.PausedAt)

	// Paused sessions reject answers.
	_, err = svc.SubmitAnswer(ctx, 10, s.ID, 1, "B", 5)
	require.ErrorIs(t, err, ErrSessionNotActive)

	resumed, err := svc.Resume(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, resumed.Status)
	require.Nil(t, resumed.PausedAt)

	_, err = svc.SubmitAnswer(ctx, 10, s.ID, 1, "B", 5)
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.TotalScore)
	require.Equal(t, 1, *completed.TotalScore)

	// Completed sessions are frozen.
	_, err = svc.Complete(ctx, 10, s.ID)
	require.ErrorIs(t, err, ErrSessionFinished)
	_, err = svc.Resume(ctx, 10, s.ID)
	require.ErrorIs(t, err, ErrSessionFinished)
	_, err = svc.SubmitAnswer(ctx, 10, s.ID, 1, "B", 5)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestAbandon(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeSessionStore()
	questions := newFakeQuestionRepo(mathQuestion(1, "B"))
	svc := newTestService(store, questions, &fakeAnswerRepo{}, &fakeInvalidator{})

	s, err := svc.Start(ctx, 10, StartParams{Type: models.SessionPractice})
	require.NoError(t, err)

	abandoned, err := svc.Abandon(ctx, 10, s.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAbandoned, abandoned.Status)

	_, err = svc.Abandon(ctx, 10, s.ID)
	require.ErrorIs(t, err, ErrSessionFinished)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeSessionStore(), newFakeQuestionRepo(), &fakeAnswerRepo{}, &fakeInvalidator{})

	_, err := svc.Get(context.Background(), 10, 404)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
