package postgres

import (
	"context"
	"errors"
	"fmt"

	"forumhub/topic-service/internal/domain/forum"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type CourseRepo struct {
	Pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{Pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, course forum.Course) (forum.Course, error) {
	if r == nil || r.Pool == nil {
		return forum.Course{}, fmt.Errorf("db not configured")
	}
	query := `
INSERT INTO courses (name, category, created_at)
VALUES ($1, $2, $3)
RETURNING id`
	row := r.Pool.QueryRow(ctx, query, course.Name, string(course.Category), course.CreatedAt)
	if err := row.Scan(&course.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return forum.Course{}, forum.ErrConflict
		}
		return forum.Course{}, err
	}
	return course, nil
}

func (r *CourseRepo) Get(ctx context.Context, courseID int64) (forum.Course, error) {
	if r == nil || r.Pool == nil {
		return forum.Course{}, fmt.Errorf("db not configured")
	}
	query := `SELECT id, name, category, created_at FROM courses WHERE id = $1`
	var course forum.Course
	var category string
	err := r.Pool.QueryRow(ctx, query, courseID).Scan(&course.ID, &course.Name, &category, &course.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return forum.Course{}, forum.ErrNotFound
		}
		return forum.Course{}, err
	}
	course.Category = forum.CourseCategory(category)
	return course, nil
}

func (r *CourseRepo) List(ctx context.Context) ([]forum.Course, error) {
	if r == nil || r.Pool == nil {
		return nil, fmt.Errorf("db not configured")
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, name, category, created_at FROM courses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []forum.Course
	for rows.Next() {
		var course forum.Course
		var category string
		if err := rows.Scan(&course.ID, &course.Name, &category, &course.CreatedAt); err != nil {
			return nil, err
		}
		course.Category = forum.CourseCategory(category)
		courses = append(courses, course)
	}
	return courses, rows.Err()
}
