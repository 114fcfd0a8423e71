package usecase

import (
	"context"

	"forumhub/topic-service/internal/domain/forum"
)

type TopicRepository interface {
	Create(ctx context.Context, topic forum.Topic) (forum.Topic, error)
	// Get returns the topic with its full answer set.
	Get(ctx context.Context, topicID int64) (forum.Topic, error)
	List(ctx context.Context, filter TopicListFilter) ([]forum.Topic, error)
	Update(ctx context.Context, topic forum.Topic) error
	// Delete removes the topic and cascades to its answers.
	Delete(ctx context.Context, topicID int64) error
	// MarkBest flips the answer's best flag and the topic's status to
	// SOLVED in a single transaction. When another writer already
	// designated a best answer it fails with ErrAlreadyHasBestAnswer
	// and leaves both rows untouched.
	MarkBest(ctx context.Context, topicID, answerID int64) error
}

type AnswerRepository interface {
	Create(ctx context.Context, answer forum.Answer) (forum.Answer, error)
	Get(ctx context.Context, answerID int64) (forum.Answer, error)
	UpdateSolution(ctx context.Context, answerID int64, solution string) error
	Delete(ctx context.Context, answerID int64) error
}

type CourseRepository interface {
	Create(ctx context.Context, course forum.Course) (forum.Course, error)
	Get(ctx context.Context, courseID int64) (forum.Course, error)
	List(ctx context.Context) ([]forum.Course, error)
}

// AuthorResolver resolves a user id to an Author snapshot by calling
// the user service. Results are never cached across requests: every
// decision sees the user service's current state.
type AuthorResolver interface {
	Resolve(ctx context.Context, userID int64) (forum.Author, error)
}

type TopicListFilter struct {
	CourseID int64
	Status   forum.Status
	Limit    int
	Offset   int
}
