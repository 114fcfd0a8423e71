package topics

import (
	"net/http"
	"strconv"

	"forumhub/internal/web"
	"forumhub/topic-service/internal/domain/forum"
	"forumhub/topic-service/internal/http/common"
	"forumhub/topic-service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *usecase.ForumService
}

func NewHandler(service *usecase.ForumService) *Handler {
	return &Handler{service: service}
}

type createTopicRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	CourseID int64  `json:"course_id"`
}

type updateTopicRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Status   string `json:"status"`
	CourseID int64  `json:"course_id"`
}

type answerRequest struct {
	Solution string `json:"solution"`
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	topic, err := h.service.CreateTopic(c.Request.Context(), p, usecase.CreateTopicInput{
		Title:    req.Title,
		Body:     req.Body,
		CourseID: req.CourseID,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.ToTopicResponse(topic))
}

func (h *Handler) Get(c *gin.Context) {
	raw := c.Query("topic_id")
	topicID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || topicID <= 0 {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "topic_id deve ser um identificador numérico")
		return
	}
	topic, err := h.service.GetTopic(c.Request.Context(), topicID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.ToTopicResponse(topic))
}

func (h *Handler) List(c *gin.Context) {
	filter := usecase.TopicListFilter{}
	if raw := c.Query("course_id"); raw != "" {
		courseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || courseID <= 0 {
			web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "course_id deve ser um identificador numérico")
			return
		}
		filter.CourseID = courseID
	}
	if raw := c.Query("status"); raw != "" {
		status := forum.Status(raw)
		if status != forum.StatusUnsolved && status != forum.StatusSolved {
			web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "status deve ser UNSOLVED ou SOLVED")
			return
		}
		filter.Status = status
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "limit deve ser um inteiro não negativo")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "offset deve ser um inteiro não negativo")
			return
		}
		filter.Offset = offset
	}
	topics, err := h.service.ListTopics(c.Request.Context(), filter)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	out := make([]common.TopicResponse, 0, len(topics))
	for _, topic := range topics {
		out = append(out, common.ToTopicResponse(topic))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	topic, err := h.service.UpdateTopic(c.Request.Context(), p, topicID, usecase.UpdateTopicInput{
		Title:    req.Title,
		Body:     req.Body,
		Status:   forum.Status(req.Status),
		CourseID: req.CourseID,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.ToTopicResponse(topic))
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTopic(c.Request.Context(), p, topicID); err != nil {
		common.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Answer(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	answer, err := h.service.AnswerTopic(c.Request.Context(), p, topicID, req.Solution)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.ToAnswerResponse(answer))
}

func (h *Handler) MarkBest(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	answerID, ok := common.ParseIDParam(c, "answer_id")
	if !ok {
		return
	}
	topic, err := h.service.MarkBestAnswer(c.Request.Context(), p, topicID, answerID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.ToTopicResponse(topic))
}

func (h *Handler) UpdateAnswer(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	answerID, ok := common.ParseIDParam(c, "answer_id")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	answer, err := h.service.UpdateAnswer(c.Request.Context(), p, topicID, answerID, req.Solution)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.ToAnswerResponse(answer))
}

func (h *Handler) DeleteAnswer(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	topicID, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	answerID, ok := common.ParseIDParam(c, "answer_id")
	if !ok {
		return
	}
	if err := h.service.DeleteAnswer(c.Request.Context(), p, topicID, answerID); err != nil {
		common.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
