package postgres

import (
	"context"
	"fmt"

	"tutor_lms/internal/models"
)

func (r *PostgresRepo) SaveAnswer(ctx context.Context, a *models.Answer) (int64, error) {
	const op = "storage.postgres.SaveAnswer"

	query := `
		INSERT INTO answers
			(session_id, user_id, question_id, user_answer, is_correct, time_spent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query,
		a.SessionID, a.UserID, a.QuestionID, a.UserAnswer, a.IsCorrect, a.TimeSpent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) AnswersBySession(ctx context.Context, sessionID int64) ([]models.Answer, error) {
	const op = "storage.postgres.AnswersBySession"

	query := `
		SELECT id, session_id, user_id, question_id, user_answer, is_correct, time_spent, created_at
		FROM answers
		WHERE session_id = $1
		ORDER BY created_at;
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		var a models.Answer
		err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.UserID,
			&a.QuestionID,
			&a.UserAnswer,
			&a.IsCorrect,
			&a.TimeSpent,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		answers = append(answers, a)
	}

	return answers, rows.Err()
}
