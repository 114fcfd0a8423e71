package http

import (
	"log"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"
	"forumhub/internal/web"
	"forumhub/topic-service/internal/authorclient"
	"forumhub/topic-service/internal/config"
	"forumhub/topic-service/internal/domain/forum"
	coursehttp "forumhub/topic-service/internal/http/courses"
	topichttp "forumhub/topic-service/internal/http/topics"
	"forumhub/topic-service/internal/repo/postgres"
	"forumhub/topic-service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg           config.Config
	r             *gin.Engine
	service       *usecase.ForumService
	authenticator web.Authenticator
	authorizer    *permission.Authorizer
}

type ServerDeps struct {
	Service       *usecase.ForumService
	Authenticator web.Authenticator
}

func NewServer(cfg config.Config, store *postgres.Store, authenticator web.Authenticator) *Server {
	topicRepo := postgres.NewTopicRepo(store.Pool)
	answerRepo := postgres.NewAnswerRepo(store.Pool)
	courseRepo := postgres.NewCourseRepo(store.Pool)

	tokens := authorclient.NewClientCredentials(cfg.AuthServerURL, cfg.ClientID, cfg.ClientSecret)
	resolver := authorclient.NewResolver(cfg.UserServiceURL, tokens)

	service := usecase.NewForumService(topicRepo, answerRepo, courseRepo, resolver)
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
		addr = ":8081"
	}
	log.Printf("topic-service listening on %s", addr)
	return s.r.Run(addr)
}

func (s *Server) Handler() *gin.Engine { return s.r }

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	topicHandler := topichttp.NewHandler(s.service)
	courseHandler := coursehttp.NewHandler(s.service)

	auth := func(role claims.Role, scope string) gin.HandlerFunc {
		return web.AuthMiddleware(s.authenticator, s.authorizer, role, scope)
	}

	s.r.POST("/topics/create", auth(claims.RoleBasic, forum.PermTopicCreate), topicHandler.Create)
	s.r.GET("/topics", auth(claims.RoleBasic, forum.PermTopicRead), topicHandler.Get)
	s.r.GET("/topics/listAll", auth(claims.RoleBasic, forum.PermTopicRead), topicHandler.List)
	s.r.PUT("/topics/:id/edit", auth(claims.RoleBasic, forum.PermTopicEdit), topicHandler.Update)
	s.r.DELETE("/topics/:id/delete", auth(claims.RoleBasic, forum.PermTopicDelete), topicHandler.Delete)
	s.r.POST("/topics/:id/answer", auth(claims.RoleBasic, forum.PermAnswerCreate), topicHandler.Answer)
	s.r.POST("/topics/:id/answers/:answer_id", auth(claims.RoleBasic, forum.PermTopicEdit), topicHandler.MarkBest)
	s.r.PUT("/topics/:id/answers/:answer_id", auth(claims.RoleBasic, forum.PermAnswerEdit), topicHandler.UpdateAnswer)
	s.r.DELETE("/topics/:id/answers/:answer_id", auth(claims.RoleBasic, forum.PermAnswerDelete), topicHandler.DeleteAnswer)

	s.r.POST("/courses/create", auth(claims.RoleADM, forum.PermCourseCreate), courseHandler.Create)
	s.r.GET("/courses/listAll", auth(claims.RoleBasic, forum.PermCourseRead), courseHandler.List)
}
