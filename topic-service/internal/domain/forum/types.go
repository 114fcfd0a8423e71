// Package forum holds the Topic/Answer/Course model and the domain
// rules governing the best-answer lifecycle.
package forum

import (
	"errors"
	"fmt"
	"time"

	"forumhub/internal/auth/claims"
)

type Status string

const (
	StatusUnsolved Status = "UNSOLVED"
	StatusSolved   Status = "SOLVED"
)

type CourseCategory string

const (
	CategoryBackend       CourseCategory = "BACKEND"
	CategoryFrontend      CourseCategory = "FRONTEND"
	CategoryDevOps        CourseCategory = "DEVOPS"
	CategoryDataScience   CourseCategory = "DATA_SCIENCE"
	CategoryMobile        CourseCategory = "MOBILE"
	CategoryUXDesign      CourseCategory = "UX_DESIGN"
	CategoryInnovationMgt CourseCategory = "INNOVATION_MANAGEMENT"
)

func (c CourseCategory) Valid() bool {
	switch c {
	case CategoryBackend, CategoryFrontend, CategoryDevOps, CategoryDataScience,
		CategoryMobile, CategoryUXDesign, CategoryInnovationMgt:
		return true
	}
	return false
}

// Author is a read-only projection of a User as seen by this service.
// Fetched just-in-time from the user service, never persisted beyond
// the owning id.
type Author struct {
	ID    int64
	Name  string
	Email string
	Role  claims.Role
}

type Course struct {
	ID        int64
	Name      string
	Category  CourseCategory
	CreatedAt time.Time
}

type Topic struct {
	ID        int64
	Title     string
	Body      string
	CreatedAt time.Time
	Status    Status
	Author    Author
	CourseID  int64
	Answers   []Answer
}

// BestAnswer returns the accepted answer, if any. A topic holds at
// most one.
func (t Topic) BestAnswer() (Answer, bool) {
	for _, a := range t.Answers {
		if a.BestAnswer {
			return a, true
		}
	}
	return Answer{}, false
}

type Answer struct {
	ID         int64
	TopicID    int64
	Solution   string
	BestAnswer bool
	CreatedAt  time.Time
	Author     Author
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")

	// Domain-rule denials. Deterministic, never retried.
	ErrAlreadyHasBestAnswer = errors.New("topic already has a best answer")
	ErrAnswerNotInTopic     = errors.New("answer does not belong to this topic")
	ErrAnswerNotOwned       = errors.New("answer does not belong to this user")

	// ErrUpstreamTimeout marks an author lookup that exceeded the
	// resolver's fixed deadline.
	ErrUpstreamTimeout = errors.New("user service timed out")
)

// UpstreamError carries a non-2xx, non-404 reply from the user service
// so the original caller sees the same status and diagnostic.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("user service replied %d: %s", e.Status, e.Body)
}
