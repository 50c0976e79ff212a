package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, user_id, session_type, status, started_at, completed_at,
	paused_at, time_limit, time_spent, total_questions, answered_questions,
	correct_answers, total_score, current_question_index, question_order,
	estimated_ability, difficulty_progression, created_at, updated_at`

func scanSession(row pgx.Row) (models.TestSession, error) {
	var (
		s        models.TestSession
		orderRaw []byte
	)

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.Status,
		&s.StartedAt,
		&s.CompletedAt,
		&s.PausedAt,
		&s.TimeLimit,
		&s.TimeSpent,
		&s.TotalQuestions,
		&s.AnsweredQuestions,
		&s.CorrectAnswers,
		&s.TotalScore,
		&s.CurrentQuestionIndex,
		&orderRaw,
		&s.EstimatedAbility,
		&s.DifficultyProgression,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return models.TestSession{}, err
	}

	if len(orderRaw) > 0 {
		if err := json.Unmarshal(orderRaw, &s.QuestionOrder); err != nil {
			return models.TestSession{}, err
		}
	}

	return s, nil
}

func (r *PostgresRepo) SaveSession(ctx context.Context, s *models.TestSession) (int64, error) {
	const op = "storage.postgres.SaveSession"

	orderRaw, err := json.Marshal(s.QuestionOrder)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO test_sessions
			(user_id, session_type, status, time_limit, total_questions, question_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	var id int64

	err = r.pool.QueryRow(ctx, query,
		s.UserID, s.Type, s.Status, s.TimeLimit, s.TotalQuestions, orderRaw,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) SessionByID(ctx context.Context, id int64) (models.TestSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM test_sessions
		WHERE id = $1;
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TestSession{}, storage.ErrSessionNotFound
	}

	return s, err
}

func (r *PostgresRepo) SessionsByUser(ctx context.Context, userID int64) ([]models.TestSession, error) {
	const op = "storage.postgres.SessionsByUser"

	query := `
		SELECT ` + sessionColumns + `
		FROM test_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []models.TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// UpdateSession writes back the mutable part of a session: status,
// timing and counters. Identity and configuration never change.
func (r *PostgresRepo) UpdateSession(ctx context.Context, s *models.TestSession) error {
	const op = "storage.postgres.UpdateSession"

	query := `
		UPDATE test_sessions
		SET status                 = $2,
		    completed_at           = $3,
		    paused_at              = $4,
		    time_spent             = $5,
		    answered_questions     = $6,
		    correct_answers        = $7,
		    total_score            = $8,
		    current_question_index = $9,
		    estimated_ability      = $10,
		    difficulty_progression = $11,
		    updated_at             = NOW()
		WHERE id = $1;
	`

	tag, err := r.pool.Exec(ctx, query,
		s.ID, s.Status, s.CompletedAt, s.PausedAt, s.TimeSpent,
		s.AnsweredQuestions, s.CorrectAnswers, s.TotalScore,
		s.CurrentQuestionIndex, s.EstimatedAbility, s.DifficultyProgression,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

// SessionAggregates rolls up the per-user numbers the stats endpoint
// reports.
func (r *PostgresRepo) SessionAggregates(ctx context.Context, userID int64) (models.UserStats, error) {
	const op = "storage.postgres.SessionAggregates"

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(time_spent), 0),
		       COALESCE(SUM(correct_answers), 0),
		       COALESCE(SUM(answered_questions), 0),
		       MAX(total_score)
		FROM test_sessions
		WHERE user_id = $1;
	`

	var (
		stats     models.UserStats
		correct   int
		answered  int
		bestScore *int
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.TotalSessions,
		&stats.CompletedSessions,
		&stats.TotalTimeSpent,
		&correct,
		&answered,
		&bestScore,
	)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}

	if answered > 0 {
		stats.AverageAccuracy = float64(correct) / float64(answered) * 100
	}
	stats.BestScore = bestScore

	return stats, nil
}
