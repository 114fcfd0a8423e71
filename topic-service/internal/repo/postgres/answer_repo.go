package postgres

import (
	"context"
	"fmt"

	"forumhub/topic-service/internal/domain/forum"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AnswerRepo struct {
	Pool *pgxpool.Pool
}

func NewAnswerRepo(pool *pgxpool.Pool) *AnswerRepo {
	return &AnswerRepo{Pool: pool}
}

func (r *AnswerRepo) Create(ctx context.Context, answer forum.Answer) (forum.Answer, error) {
	if r == nil || r.Pool == nil {
		return forum.Answer{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO answers (topic_id, solution, best_answer, created_at, author_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	row := r.Pool.QueryRow(ctx, query,
		answer.TopicID,
		answer.Solution,
		answer.BestAnswer,
		answer.CreatedAt,
		answer.Author.ID,
	)
	if err := row.Scan(&answer.ID); err != nil {
		return forum.Answer{}, err
	}
	return answer, nil
}

func (r *AnswerRepo) Get(ctx context.Context, answerID int64) (forum.Answer, error) {
	if r == nil || r.Pool == nil {
		return forum.Answer{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, topic_id, solution, best_answer, created_at, author_id
FROM answers
WHERE id = $1`
	return scanAnswer(r.Pool.QueryRow(ctx, query, answerID))
}

func (r *AnswerRepo) UpdateSolution(ctx context.Context, answerID int64, solution string) error {
	if r == nil || r.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	tag, err := r.Pool.Exec(ctx, `UPDATE answers SET solution = $2 WHERE id = $1`, answerID, solution)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return forum.ErrNotFound
	}
	return nil
}

func (r *AnswerRepo) Delete(ctx context.Context, answerID int64) error {
	if r == nil || r.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM answers WHERE id = $1`, answerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return forum.ErrNotFound
	}
	return nil
}
