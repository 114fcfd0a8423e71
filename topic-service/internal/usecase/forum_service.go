package usecase

import (
	"context"
	"strings"
	"time"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"
	"forumhub/topic-service/internal/domain/forum"
)

// ForumService applies the topic/answer lifecycle. Ownership checks run
// before any mutation is issued; a denial terminates the operation with
// the named error.
type ForumService struct {
	Topics  TopicRepository
	Answers AnswerRepository
	Courses CourseRepository
	Authors AuthorResolver
	Clock   func() time.Time
}

func NewForumService(topics TopicRepository, answers AnswerRepository, courses CourseRepository, authors AuthorResolver) *ForumService {
	return &ForumService{
		Topics:  topics,
		Answers: answers,
		Courses: courses,
		Authors: authors,
		Clock:   time.Now,
	}
}

type CreateTopicInput struct {
	Title    string
	Body     string
	CourseID int64
}

type UpdateTopicInput struct {
	Title    string
	Body     string
	Status   forum.Status
	CourseID int64
}

type CreateCourseInput struct {
	Name     string
	Category forum.CourseCategory
}

func (s *ForumService) CreateTopic(ctx context.Context, p claims.Principal, input CreateTopicInput) (forum.Topic, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return forum.Topic{}, forum.ErrInvalidArgument
	}
	author, err := s.Authors.Resolve(ctx, p.UserID)
	if err != nil {
		return forum.Topic{}, err
	}
	if _, err := s.Courses.Get(ctx, input.CourseID); err != nil {
		return forum.Topic{}, err
	}
	topic := forum.Topic{
		Title:     input.Title,
		Body:      input.Body,
		CreatedAt: s.Clock(),
		Status:    forum.StatusUnsolved,
		Author:    author,
		CourseID:  input.CourseID,
	}
	return s.Topics.Create(ctx, topic)
}

func (s *ForumService) GetTopic(ctx context.Context, topicID int64) (forum.Topic, error) {
	return s.Topics.Get(ctx, topicID)
}

func (s *ForumService) ListTopics(ctx context.Context, filter TopicListFilter) ([]forum.Topic, error) {
	return s.Topics.List(ctx, filter)
}

// UpdateTopic overwrites title, body, status and course wholesale after
// an owner-or-elevated check. The caller may set status directly, which
// can bypass the best-answer coupling; that mirrors the observed
// behavior of the system this replaces.
func (s *ForumService) UpdateTopic(ctx context.Context, p claims.Principal, topicID int64, input UpdateTopicInput) (forum.Topic, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return forum.Topic{}, forum.ErrInvalidArgument
	}
	if input.Status != forum.StatusUnsolved && input.Status != forum.StatusSolved {
		return forum.Topic{}, forum.ErrInvalidArgument
	}
	topic, err := s.Topics.Get(ctx, topicID)
	if err != nil {
		return forum.Topic{}, err
	}
	if err := permission.RequireOwnerOrElevated(topic.Author.ID, p); err != nil {
		return forum.Topic{}, err
	}
	if _, err := s.Courses.Get(ctx, input.CourseID); err != nil {
		return forum.Topic{}, err
	}
	topic.Title = input.Title
	topic.Body = input.Body
	topic.Status = input.Status
	topic.CourseID = input.CourseID
	if err := s.Topics.Update(ctx, topic); err != nil {
		return forum.Topic{}, err
	}
	return topic, nil
}

func (s *ForumService) DeleteTopic(ctx context.Context, p claims.Principal, topicID int64) error {
	topic, err := s.Topics.Get(ctx, topicID)
	if err != nil {
		return err
	}
	if err := permission.RequireOwnerOrElevated(topic.Author.ID, p); err != nil {
		return err
	}
	return s.Topics.Delete(ctx, topicID)
}

// AnswerTopic appends a new answer with best_answer=false. The topic's
// status is not touched.
func (s *ForumService) AnswerTopic(ctx context.Context, p claims.Principal, topicID int64, solution string) (forum.Answer, error) {
	if strings.TrimSpace(solution) == "" {
		return forum.Answer{}, forum.ErrInvalidArgument
	}
	if _, err := s.Topics.Get(ctx, topicID); err != nil {
		return forum.Answer{}, err
	}
	author, err := s.Authors.Resolve(ctx, p.UserID)
	if err != nil {
		return forum.Answer{}, err
	}
	answer := forum.Answer{
		TopicID:    topicID,
		Solution:   solution,
		BestAnswer: false,
		CreatedAt:  s.Clock(),
		Author:     author,
	}
	return s.Answers.Create(ctx, answer)
}

// MarkBestAnswer designates the topic's accepted solution. Guards run
// in order: only the topic's original author may decide (strict check,
// moderators included in the denial); the decision is made at most
// once; the answer must belong to the topic. The answer flag and the
// SOLVED status commit together.
func (s *ForumService) MarkBestAnswer(ctx context.Context, p claims.Principal, topicID, answerID int64) (forum.Topic, error) {
	topic, err := s.Topics.Get(ctx, topicID)
	if err != nil {
		return forum.Topic{}, err
	}
	if err := permission.RequireOwner(topic.Author.ID, p); err != nil {
		return forum.Topic{}, err
	}
	if _, ok := topic.BestAnswer(); ok {
		return forum.Topic{}, forum.ErrAlreadyHasBestAnswer
	}
	if !topicContainsAnswer(topic, answerID) {
		return forum.Topic{}, forum.ErrAnswerNotInTopic
	}
	if err := s.Topics.MarkBest(ctx, topicID, answerID); err != nil {
		return forum.Topic{}, err
	}
	return s.Topics.Get(ctx, topicID)
}

// UpdateAnswer replaces the solution text. Only the answer's own author
// may edit it; the acting author is re-resolved so the check runs
// against the user service's current record.
func (s *ForumService) UpdateAnswer(ctx context.Context, p claims.Principal, topicID, answerID int64, solution string) (forum.Answer, error) {
	if strings.TrimSpace(solution) == "" {
		return forum.Answer{}, forum.ErrInvalidArgument
	}
	answer, err := s.Answers.Get(ctx, answerID)
	if err != nil {
		return forum.Answer{}, err
	}
	if answer.TopicID != topicID {
		return forum.Answer{}, forum.ErrAnswerNotInTopic
	}
	acting, err := s.Authors.Resolve(ctx, p.UserID)
	if err != nil {
		return forum.Answer{}, err
	}
	if acting.ID != answer.Author.ID {
		return forum.Answer{}, forum.ErrAnswerNotOwned
	}
	if err := s.Answers.UpdateSolution(ctx, answerID, solution); err != nil {
		return forum.Answer{}, err
	}
	answer.Solution = solution
	return answer, nil
}

// DeleteAnswer removes an answer after an owner-or-elevated check.
// Deleting the best answer does not revert the topic to UNSOLVED;
// that mirrors the observed behavior of the system this replaces.
func (s *ForumService) DeleteAnswer(ctx context.Context, p claims.Principal, topicID, answerID int64) error {
	answer, err := s.Answers.Get(ctx, answerID)
	if err != nil {
		return err
	}
	if answer.TopicID != topicID {
		return forum.ErrAnswerNotInTopic
	}
	if err := permission.RequireOwnerOrElevated(answer.Author.ID, p); err != nil {
		return err
	}
	return s.Answers.Delete(ctx, answerID)
}

func (s *ForumService) CreateCourse(ctx context.Context, input CreateCourseInput) (forum.Course, error) {
	if strings.TrimSpace(input.Name) == "" || !input.Category.Valid() {
		return forum.Course{}, forum.ErrInvalidArgument
	}
	course := forum.Course{
		Name:      input.Name,
		Category:  input.Category,
		CreatedAt: s.Clock(),
	}
	return s.Courses.Create(ctx, course)
}

func (s *ForumService) ListCourses(ctx context.Context) ([]forum.Course, error) {
	return s.Courses.List(ctx)
}

func topicContainsAnswer(topic forum.Topic, answerID int64) bool {
	for _, a := range topic.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}
