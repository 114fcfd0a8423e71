package postgres

import (
	"context"
	"errors"
	"fmt"

	"forumhub/topic-service/internal/domain/forum"
	"forumhub/topic-service/internal/usecase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Topics persist the owning author by id only; the Author projection is
// resolved just-in-time from the user service, never stored here.
type TopicRepo struct {
	Pool *pgxpool.Pool
}

func NewTopicRepo(pool *pgxpool.Pool) *TopicRepo {
	return &TopicRepo{Pool: pool}
}

func (r *TopicRepo) Create(ctx context.Context, topic forum.Topic) (forum.Topic, error) {
	if r == nil || r.Pool == nil {
		return forum.Topic{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO topics (title, body, created_at, status, author_id, course_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	row := r.Pool.QueryRow(ctx, query,
		topic.Title,
		topic.Body,
		topic.CreatedAt,
		string(topic.Status),
		topic.Author.ID,
		topic.CourseID,
	)
	if err := row.Scan(&topic.ID); err != nil {
		return forum.Topic{}, err
	}
	return topic, nil
}

func (r *TopicRepo) Get(ctx context.Context, topicID int64) (forum.Topic, error) {
	if r == nil || r.Pool == nil {
		return forum.Topic{}, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, title, body, created_at, status, author_id, course_id
FROM topics
WHERE id = $1`
	topic, err := scanTopic(r.Pool.QueryRow(ctx, query, topicID))
	if err != nil {
		return forum.Topic{}, err
	}
	answers, err := r.listAnswers(ctx, topicID)
	if err != nil {
		return forum.Topic{}, err
	}
	topic.Answers = answers
	return topic, nil
}

func (r *TopicRepo) List(ctx context.Context, filter usecase.TopicListFilter) ([]forum.Topic, error) {
	if r == nil || r.Pool == nil {
		return nil, fmt.Errorf("db not configured")
	}
	query := `
SELECT id, title, body, created_at, status, author_id, course_id
FROM topics
WHERE ($1 = 0 OR course_id = $1)
  AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx, query, filter.CourseID, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []forum.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (r *TopicRepo) Update(ctx context.Context, topic forum.Topic) error {
	if r == nil || r.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	query := `
UPDATE topics
SET title = $2, body = $3, status = $4, course_id = $5
WHERE id = $1`
	tag, err := r.Pool.Exec(ctx, query, topic.ID, topic.Title, topic.Body, string(topic.Status), topic.CourseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return forum.ErrNotFound
	}
	return nil
}

func (r *TopicRepo) Delete(ctx context.Context, topicID int64) error {
	if r == nil || r.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	// answers go with the topic via ON DELETE CASCADE
	tag, err := r.Pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, topicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return forum.ErrNotFound
	}
	return nil
}

// MarkBest commits the answer flag and the SOLVED status as one unit.
// The topic row is locked first so concurrent markers serialize; the
// loser re-reads a topic that already has a best answer.
func (r *TopicRepo) MarkBest(ctx context.Context, topicID, answerID int64) error {
	if r == nil || r.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM topics WHERE id = $1 FOR UPDATE`, topicID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return forum.ErrNotFound
		}
		return err
	}
	var hasBest bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM answers WHERE topic_id = $1 AND best_answer)`, topicID).Scan(&hasBest); err != nil {
		return err
	}
	if hasBest {
		return forum.ErrAlreadyHasBestAnswer
	}
	tag, err := tx.Exec(ctx, `UPDATE answers SET best_answer = TRUE WHERE id = $1 AND topic_id = $2`, answerID, topicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return forum.ErrAnswerNotInTopic
	}
	if _, err := tx.Exec(ctx, `UPDATE topics SET status = $2 WHERE id = $1`, topicID, string(forum.StatusSolved)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TopicRepo) listAnswers(ctx context.Context, topicID int64) ([]forum.Answer, error) {
	query := `
SELECT id, topic_id, solution, best_answer, created_at, author_id
FROM answers
WHERE topic_id = $1
ORDER BY created_at, id`
	rows, err := r.Pool.Query(ctx, query, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []forum.Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func scanTopic(row pgx.Row) (forum.Topic, error) {
	var topic forum.Topic
	var status string
	err := row.Scan(
		&topic.ID,
		&topic.Title,
		&topic.Body,
		&topic.CreatedAt,
		&status,
		&topic.Author.ID,
		&topic.CourseID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return forum.Topic{}, forum.ErrNotFound
		}
		return forum.Topic{}, err
	}
	topic.Status = forum.Status(status)
	return topic, nil
}

func scanAnswer(row pgx.Row) (forum.Answer, error) {
	var answer forum.Answer
	err := row.Scan(
		&answer.ID,
		&answer.TopicID,
		&answer.Solution,
		&answer.BestAnswer,
		&answer.CreatedAt,
		&answer.Author.ID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return forum.Answer{}, forum.ErrNotFound
		}
		return forum.Answer{}, err
	}
	return answer, nil
}
