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

func (r *PostgresRepo) SaveQuestion(ctx context.Context, q *models.Question) (int64, error) {
	const op = "storage.postgres.SaveQuestion"

	content, err := json.Marshal(q.Content)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO questions
			(content, question_type, difficulty_level, subject, topic, estimated_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`

	var id int64

	err = r.pool.QueryRow(ctx, query,
		content, q.Type, q.Difficulty, q.Subject, q.Topic, q.EstimatedTime, q.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) QuestionByID(ctx context.Context, id int64) (models.Question, error) {
	query := `
		SELECT id, content, question_type, difficulty_level, subject, topic,
		       estimated_time, is_active, created_at, updated_at
		FROM questions
		WHERE id = $1;
	`

	var (
		q       models.Question
		content []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID,
		&content,
		&q.Type,
		&q.Difficulty,
		&q.Subject,
		&q.Topic,
		&q.EstimatedTime,
		&q.IsActive,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Question{}, storage.ErrQuestionNotFound
		}

		return models.Question{}, err
	}

	if err := json.Unmarshal(content, &q.Content); err != nil {
		return models.Question{}, err
	}

	return q, nil
}

// ActiveQuestionIDs picks up to limit random active question ids,
// optionally narrowed by subject and difficulty. Random order stands in
// for real question selection.
func (r *PostgresRepo) ActiveQuestionIDs(
	ctx context.Context,
	subject *models.Subject,
	difficulty *models.Difficulty,
	limit int,
) ([]int64, error) {
	const op = "storage.postgres.ActiveQuestionIDs"

	query := `
		SELECT id
		FROM questions
		WHERE is_active = TRUE
		  AND ($1::text IS NULL OR subject = $1)
		  AND ($2::text IS NULL OR difficulty_level = $2)
		ORDER BY random()
		LIMIT $3;
	`

	rows, err := r.pool.Query(ctx, query, subject, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
