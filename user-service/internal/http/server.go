package http

import (
	"log"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"
	"forumhub/internal/web"
	"forumhub/user-service/internal/config"
	"forumhub/user-service/internal/domain/users"
	"forumhub/user-service/internal/http/userhandlers"
	"forumhub/user-service/internal/repo/db"
	"forumhub/user-service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg           config.Config
	r             *gin.Engine
	service       *usecase.UserService
	authenticator web.Authenticator
	authorizer    *permission.Authorizer
}

type ServerDeps struct {
	Service       *usecase.UserService
	Authenticator web.Authenticator
}

func NewServer(cfg config.Config, store *db.Store, authenticator web.Authenticator) *Server {
	service := usecase.NewUserService(db.NewUserRepository(store.DB))
	return NewServerWithDeps(cfg, ServerDeps{
		Service:       service,
		Authenticator: authenticator,
	})
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:           cfg,
		r:             r,
		service:       deps.Service,
		authenticator: deps.Authenticator,
		authorizer:    permission.NewAuthorizer(),
	}
	s.routes()
	return s
}

func (s *Server) Run() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8082"
	}
	log.Printf("user-service listening on %s", addr)
	return s.r.Run(addr)
}

func (s *Server) Handler() *gin.Engine { return s.r }

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	handler := userhandlers.NewHandler(s.service)

	auth := func(role claims.Role, scope string) gin.HandlerFunc {
		return web.AuthMiddleware(s.authenticator, s.authorizer, role, scope)
	}

	// Registration is open; everything else sits behind the token gate.
	// summary-info is called by service clients whose tokens carry no
	// authority claim, so it gates on scope alone.
	s.r.POST("/users/create", handler.Register)
	s.r.GET("/users/detailed-info", auth(claims.RoleBasic, users.PermUserRead), handler.Detailed)
	s.r.GET("/users/summary-info", auth(claims.RoleAnonymous, users.PermUserRead), handler.Summary)
	s.r.GET("/users/listAll", auth(claims.RoleMOD, users.PermUserRead), handler.List)
	s.r.PUT("/users/edit", auth(claims.RoleBasic, users.PermUserEdit), handler.Update)
	s.r.DELETE("/users/delete", auth(claims.RoleBasic, users.PermUserDelete), handler.Delete)
}
