package common

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forumhub/internal/auth/permission"
	"forumhub/internal/web"
	"forumhub/topic-service/internal/domain/forum"

	"github.com/gin-gonic/gin"
)

type TopicResponse struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt string           `json:"created_at"`
	Status    string           `json:"status"`
	AuthorID  int64            `json:"author_id"`
	CourseID  int64            `json:"course_id"`
	Answers   []AnswerResponse `json:"answers,omitempty"`
}

type AnswerResponse struct {
	ID         int64  `json:"id"`
	TopicID    int64  `json:"topic_id"`
	Solution   string `json:"solution"`
	BestAnswer bool   `json:"best_answer"`
	CreatedAt  string `json:"created_at"`
	AuthorID   int64  `json:"author_id"`
}

type CourseResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func ToTopicResponse(topic forum.Topic) TopicResponse {
	resp := TopicResponse{
		ID:        topic.ID,
		Title:     topic.Title,
		Body:      topic.Body,
		CreatedAt: topic.CreatedAt.UTC().Format(time.RFC3339),
		Status:    string(topic.Status),
		AuthorID:  topic.Author.ID,
		CourseID:  topic.CourseID,
	}
	for _, answer := range topic.Answers {
		resp.Answers = append(resp.Answers, ToAnswerResponse(answer))
	}
	return resp
}

func ToAnswerResponse(answer forum.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         answer.ID,
		TopicID:    answer.TopicID,
		Solution:   answer.Solution,
		BestAnswer: answer.BestAnswer,
		CreatedAt:  answer.CreatedAt.UTC().Format(time.RFC3339),
		AuthorID:   answer.Author.ID,
	}
}

func ToCourseResponse(course forum.Course) CourseResponse {
	return CourseResponse{
		ID:       course.ID,
		Name:     course.Name,
		Category: string(course.Category),
	}
}

func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	value := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", name+" deve ser um identificador numérico")
		return 0, false
	}
	return id, true
}

// WriteError maps domain and resolution failures to problem responses.
// Upstream errors keep the user service's original status code.
func WriteError(c *gin.Context, err error) {
	var upstream *forum.UpstreamError
	switch {
	case errors.Is(err, forum.ErrNotFound):
		web.WriteProblem(c, http.StatusNotFound, "Recurso não encontrado", "o recurso solicitado não existe")
	case errors.Is(err, forum.ErrInvalidArgument):
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "um ou mais campos são inválidos")
	case errors.Is(err, forum.ErrConflict):
		web.WriteProblem(c, http.StatusConflict, "Conflito", "o recurso já existe")
	case errors.Is(err, forum.ErrAlreadyHasBestAnswer):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "o tópico já possui uma melhor resposta")
	case errors.Is(err, forum.ErrAnswerNotInTopic):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "a resposta não pertence a este tópico")
	case errors.Is(err, forum.ErrAnswerNotOwned):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "a resposta não pertence a este usuário")
	case errors.Is(err, permission.ErrNotTopicOwner):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "apenas o autor do tópico pode marcar a melhor resposta")
	case errors.Is(err, permission.ErrInsufficientPrivilege):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "usuário sem privilégio para esta operação")
	case errors.Is(err, forum.ErrUpstreamTimeout):
		web.WriteProblem(c, http.StatusGatewayTimeout, "Serviço indisponível", "o serviço de usuários não respondeu a tempo")
	case errors.As(err, &upstream):
		web.WriteProblem(c, upstream.Status, "Falha no serviço de usuários", upstream.Body)
	default:
		web.WriteProblem(c, http.StatusInternalServerError, "Erro interno", "falha inesperada ao processar a requisição")
	}
}
