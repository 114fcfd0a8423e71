package courses

import (
	"net/http"

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

type createCourseRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), usecase.CreateCourseInput{
		Name:     req.Name,
		Category: forum.CourseCategory(req.Category),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.ToCourseResponse(course))
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.CourseResponse, 0, len(out))
	for _, course := range out {
		resp = append(resp, common.ToCourseResponse(course))
	}
	c.JSON(http.StatusOK, resp)
}
