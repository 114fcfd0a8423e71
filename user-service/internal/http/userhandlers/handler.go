package userhandlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"
	"forumhub/internal/web"
	"forumhub/user-service/internal/domain/users"
	"forumhub/user-service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *usecase.UserService
}

func NewHandler(service *usecase.UserService) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Profile  *string `json:"profile"`

	AccountNonExpired     *bool `json:"account_non_expired"`
	AccountNonLocked      *bool `json:"account_non_locked"`
	CredentialsNonExpired *bool `json:"credentials_non_expired"`
	Enabled               *bool `json:"enabled"`
}

type detailedResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Profile   string `json:"profile"`
	CreatedAt string `json:"created_at"`

	AccountNonExpired     bool `json:"account_non_expired"`
	AccountNonLocked      bool `json:"account_non_locked"`
	CredentialsNonExpired bool `json:"credentials_non_expired"`
	Enabled               bool `json:"enabled"`
}

// summaryResponse is the projection the topic service consumes. Its
// shape is part of the contract between the two services.
type summaryResponse struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Profile  profilePayload `json:"profile"`
}

type profilePayload struct {
	ProfileName string `json:"profileName"`
}

func toDetailed(user users.User) detailedResponse {
	return detailedResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		Profile:   user.Profile,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),

		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
		Enabled:               user.Enabled,
	}
}

func toSummary(user users.User) summaryResponse {
	return summaryResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Profile:  profilePayload{ProfileName: user.Profile},
	}
}

// explicitTarget reads the optional user_id query parameter. Absent
// means nil; anything non-numeric is malformed.
func explicitTarget(c *gin.Context) (*int64, error) {
	raw := strings.TrimSpace(c.Query("user_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, users.ErrMalformedUserParameter
	}
	return &id, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrMalformedUserParameter):
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "parâmetro user_id inválido para o perfil do solicitante")
	case errors.Is(err, users.ErrInvalidArgument):
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "um ou mais campos são inválidos")
	case errors.Is(err, users.ErrNotFound):
		web.WriteProblem(c, http.StatusNotFound, "Recurso não encontrado", "usuário não encontrado")
	case errors.Is(err, users.ErrConflict):
		web.WriteProblem(c, http.StatusConflict, "Conflito", "nome de usuário ou e-mail já cadastrado")
	case errors.Is(err, users.ErrPrivilegedField):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "apenas administradores alteram perfil e situação da conta")
	case errors.Is(err, permission.ErrInsufficientPrivilege):
		web.WriteProblem(c, http.StatusUnprocessableEntity, "Regra de negócio violada", "usuário sem privilégio para esta operação")
	default:
		web.WriteProblem(c, http.StatusInternalServerError, "Erro interno", "falha inesperada ao processar a requisição")
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	user, err := h.service.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetailed(user))
}

func (h *Handler) Detailed(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	explicit, err := explicitTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	user, err := h.service.Detailed(c.Request.Context(), p, explicit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetailed(user))
}

func (h *Handler) Summary(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("user_id"))
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, users.ErrMalformedUserParameter)
		return
	}
	user, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummary(user))
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]detailedResponse, 0, len(list))
	for _, user := range list {
		out = append(out, toDetailed(user))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	explicit, err := explicitTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteProblem(c, http.StatusBadRequest, "Requisição inválida", "corpo da requisição malformado")
		return
	}
	input := users.UpdateInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Profile:  req.Profile,

		AccountNonExpired:     req.AccountNonExpired,
		AccountNonLocked:      req.AccountNonLocked,
		CredentialsNonExpired: req.CredentialsNonExpired,
		Enabled:               req.Enabled,
	}
	if req.Role != nil {
		role := claims.Role(*req.Role)
		input.Role = &role
	}
	user, err := h.service.Update(c.Request.Context(), p, explicit, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetailed(user))
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := web.PrincipalFromContext(c)
	if !ok {
		web.WriteProblem(c, http.StatusUnauthorized, "Não autenticado", "credenciais ausentes")
		return
	}
	explicit, err := explicitTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), p, explicit); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
