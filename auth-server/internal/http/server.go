package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"forumhub/auth-server/internal/config"
	"forumhub/auth-server/internal/domain/oauth"
	"forumhub/auth-server/internal/token"
	"forumhub/auth-server/internal/usecase"

	"github.com/gin-gonic/gin"
)

const rateLimitWindow = time.Minute

type Server struct {
	cfg     config.Config
	r       *gin.Engine
	service *usecase.TokenService
	signer  *token.Signer
	limiter oauth.RateLimiter
}

type ServerDeps struct {
	Service *usecase.TokenService
	Signer  *token.Signer
	Limiter oauth.RateLimiter
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:     cfg,
		r:       r,
		service: deps.Service,
		signer:  deps.Signer,
		limiter: deps.Limiter,
	}
	s.routes()
	return s
}

func (s *Server) Run() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("auth-server listening on %s", addr)
	return s.r.Run(addr)
}

func (s *Server) Handler() *gin.Engine { return s.r }

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	s.r.GET("/oauth/jwks", s.handleJWKS)
	s.r.GET("/oauth/authorize", s.handleAuthorizeForm)
	s.r.POST("/oauth/authorize", s.handleAuthorize)
	s.r.POST("/oauth/token", s.rateLimit(), s.handleToken)
}

func (s *Server) handleJWKS(c *gin.Context) {
	c.JSON(http.StatusOK, s.signer.KeySet())
}

// rateLimit applies a fixed window per client id on the token
// endpoint. A limiter failure lets the request through: issuing a
// token matters more than the counter.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		clientID, _ := clientCredentials(c)
		if clientID == "" {
			c.Next()
			return
		}
		decision, err := s.limiter.Allow(c.Request.Context(), oauth.TokenClientKey(clientID), s.cfg.TokenRateLimit, rateLimitWindow)
		if err != nil {
			log.Printf("rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfterSeconds()))
			writeOAuthError(c, http.StatusTooManyRequests, "slow_down", "token requests for this client are rate limited")
			return
		}
		c.Next()
	}
}
