package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"forumhub/internal/auth/claims"
	"forumhub/topic-service/internal/config"
	"forumhub/topic-service/internal/domain/forum"
	"forumhub/topic-service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type stubAuthenticator struct {
	principals map[string]claims.Principal
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (claims.Principal, error) {
	p, ok := s.principals[token]
	if !ok {
		return claims.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

type stubState struct {
	topics  map[int64]forum.Topic
	answers map[int64]forum.Answer
	courses map[int64]forum.Course
	nextID  int64
}

func (s *stubState) id() int64 {
	s.nextID++
	return s.nextID
}

type stubTopics struct{ s *stubState }
type stubAnswers struct{ s *stubState }
type stubCourses struct{ s *stubState }

func (r stubTopics) Create(_ context.Context, topic forum.Topic) (forum.Topic, error) {
	topic.ID = r.s.id()
	r.s.topics[topic.ID] = topic
	return topic, nil
}

func (r stubTopics) Get(_ context.Context, topicID int64) (forum.Topic, error) {
	topic, ok := r.s.topics[topicID]
	if !ok {
		return forum.Topic{}, forum.ErrNotFound
	}
	topic.Answers = nil
	for _, a := range r.s.answers {
		if a.TopicID == topicID {
			topic.Answers = append(topic.Answers, a)
		}
	}
	sort.Slice(topic.Answers, func(i, j int) bool { return topic.Answers[i].ID < topic.Answers[j].ID })
	return topic, nil
}

func (r stubTopics) List(ctx context.Context, _ usecase.TopicListFilter) ([]forum.Topic, error) {
	out := make([]forum.Topic, 0, len(r.s.topics))
	for id := range r.s.topics {
		topic, _ := r.Get(ctx, id)
		out = append(out, topic)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubTopics) Update(_ context.Context, topic forum.Topic) error {
	if _, ok := r.s.topics[topic.ID]; !ok {
		return forum.ErrNotFound
	}
	topic.Answers = nil
	r.s.topics[topic.ID] = topic
	return nil
}

func (r stubTopics) Delete(_ context.Context, topicID int64) error {
	delete(r.s.topics, topicID)
	for id, a := range r.s.answers {
		if a.TopicID == topicID {
			delete(r.s.answers, id)
		}
	}
	return nil
}

func (r stubTopics) MarkBest(_ context.Context, topicID, answerID int64) error {
	topic, ok := r.s.topics[topicID]
	if !ok {
		return forum.ErrNotFound
	}
	answer, ok := r.s.answers[answerID]
	if !ok || answer.TopicID != topicID {
		return forum.ErrAnswerNotInTopic
	}
	answer.BestAnswer = true
	r.s.answers[answerID] = answer
	topic.Status = forum.StatusSolved
	r.s.topics[topicID] = topic
	return nil
}

func (r stubAnswers) Create(_ context.Context, answer forum.Answer) (forum.Answer, error) {
	answer.ID = r.s.id()
	r.s.answers[answer.ID] = answer
	return answer, nil
}

func (r stubAnswers) Get(_ context.Context, answerID int64) (forum.Answer, error) {
	answer, ok := r.s.answers[answerID]
	if !ok {
		return forum.Answer{}, forum.ErrNotFound
	}
	return answer, nil
}

func (r stubAnswers) UpdateSolution(_ context.Context, answerID int64, solution string) error {
	answer, ok := r.s.answers[answerID]
	if !ok {
		return forum.ErrNotFound
	}
	answer.Solution = solution
	r.s.answers[answerID] = answer
	return nil
}

func (r stubAnswers) Delete(_ context.Context, answerID int64) error {
	delete(r.s.answers, answerID)
	return nil
}

func (r stubCourses) Create(_ context.Context, course forum.Course) (forum.Course, error) {
	course.ID = r.s.id()
	r.s.courses[course.ID] = course
	return course, nil
}

func (r stubCourses) Get(_ context.Context, courseID int64) (forum.Course, error) {
	course, ok := r.s.courses[courseID]
	if !ok {
		return forum.Course{}, forum.ErrNotFound
	}
	return course, nil
}

func (r stubCourses) List(_ context.Context) ([]forum.Course, error) {
	out := make([]forum.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubResolver struct {
	err error
}

func (r stubResolver) Resolve(_ context.Context, userID int64) (forum.Author, error) {
	if r.err != nil {
		return forum.Author{}, r.err
	}
	return forum.Author{ID: userID, Name: "user", Email: "user@example.com", Role: claims.RoleBasic}, nil
}

func newTestServer(t *testing.T, resolver usecase.AuthorResolver) (*httptest.Server, *stubState) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := &stubState{
		topics:  map[int64]forum.Topic{},
		answers: map[int64]forum.Answer{},
		courses: map[int64]forum.Course{},
	}
	state.courses[state.id()] = forum.Course{ID: 1, Name: "Go", Category: forum.CategoryBackend, CreatedAt: time.Now()}

	service := usecase.NewForumService(stubTopics{state}, stubAnswers{state}, stubCourses{state}, resolver)
	srv := NewServerWithDeps(config.Config{}, ServerDeps{
		Service: service,
		Authenticator: stubAuthenticator{principals: map[string]claims.Principal{
			"basic-10": {UserID: 10, Subject: "alice", Role: claims.RoleBasic, Scopes: []string{
				forum.PermTopicCreate, forum.PermTopicRead, forum.PermTopicEdit, forum.PermTopicDelete,
				forum.PermAnswerCreate, forum.PermAnswerEdit, forum.PermAnswerDelete, forum.PermCourseRead,
			}},
			"mod-30": {UserID: 30, Subject: "mod", Role: claims.RoleMOD, Scopes: []string{
				forum.PermTopicRead, forum.PermTopicEdit, forum.PermTopicDelete,
			}},
			"basic-noscope": {UserID: 40, Subject: "bob", Role: claims.RoleBasic, Scopes: []string{forum.PermCourseCreate}},
		}},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, state
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestMissingTokenYieldsProblem(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/topics/listAll", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("content type = %q", got)
	}
	if got := resp.Header.Get("Content-Language"); got != "pt-BR" {
		t.Fatalf("content language = %q", got)
	}
	var problem struct {
		Timestamp string `json:"timestamp"`
		Status    int    `json:"status"`
		Title     string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Status != http.StatusUnauthorized || problem.Timestamp == "" || problem.Title == "" {
		t.Fatalf("incomplete problem body: %+v", problem)
	}
}

func TestMissingScopeIsForbidden(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/topics/listAll", "basic-noscope", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateTopicStartsUnsolved(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/topics/create", "basic-10", map[string]any{
		"title": "How do slices grow?", "body": "Append semantics.", "course_id": 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var topic struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&topic); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if topic.Status != "UNSOLVED" {
		t.Fatalf("status = %q, want UNSOLVED", topic.Status)
	}

	get := doJSON(t, http.MethodGet, ts.URL+"/topics?topic_id=2", "basic-10", nil)
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", get.StatusCode)
	}
}

func TestMarkBestByModeratorIsDomainDenial(t *testing.T) {
	ts, state := newTestServer(t, stubResolver{})
	state.topics[100] = forum.Topic{ID: 100, Title: "t", Body: "b", Status: forum.StatusUnsolved, Author: forum.Author{ID: 10}, CourseID: 1}
	state.answers[101] = forum.Answer{ID: 101, TopicID: 100, Solution: "s", Author: forum.Author{ID: 30}}

	resp := doJSON(t, http.MethodPost, ts.URL+"/topics/100/answers/101", "mod-30", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestMarkBestByOwnerSolvesTopic(t *testing.T) {
	ts, state := newTestServer(t, stubResolver{})
	state.topics[100] = forum.Topic{ID: 100, Title: "t", Body: "b", Status: forum.StatusUnsolved, Author: forum.Author{ID: 10}, CourseID: 1}
	state.answers[101] = forum.Answer{ID: 101, TopicID: 100, Solution: "s", Author: forum.Author{ID: 30}}

	resp := doJSON(t, http.MethodPost, ts.URL+"/topics/100/answers/101", "basic-10", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var topic struct {
		Status  string `json:"status"`
		Answers []struct {
			ID         int64 `json:"id"`
			BestAnswer bool  `json:"best_answer"`
		} `json:"answers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&topic); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if topic.Status != "SOLVED" {
		t.Fatalf("status = %q, want SOLVED", topic.Status)
	}
	if len(topic.Answers) != 1 || !topic.Answers[0].BestAnswer {
		t.Fatalf("answers = %+v", topic.Answers)
	}
}

func TestUnknownTopicIsNotFound(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/topics?topic_id=999", "basic-10", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestResolverTimeoutIsGatewayTimeout(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{err: forum.ErrUpstreamTimeout})

	resp := doJSON(t, http.MethodPost, ts.URL+"/topics/create", "basic-10", map[string]any{
		"title": "t", "body": "b", "course_id": 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
}

func TestResolverUpstreamErrorKeepsStatus(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{err: &forum.UpstreamError{Status: http.StatusServiceUnavailable, Body: "maintenance"}})

	resp := doJSON(t, http.MethodPost, ts.URL+"/topics/create", "basic-10", map[string]any{
		"title": "t", "body": "b", "course_id": 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestCourseCreateRequiresAdmin(t *testing.T) {
	ts, _ := newTestServer(t, stubResolver{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/courses/create", "basic-noscope", map[string]any{
		"name": "Kotlin", "category": "MOBILE",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
