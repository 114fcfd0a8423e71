package main

import (
	"log"

	"forumhub/auth-server/internal/config"
	"forumhub/auth-server/internal/domain/oauth"
	httpapi "forumhub/auth-server/internal/http"
	"forumhub/auth-server/internal/ratelimit"
	"forumhub/auth-server/internal/repo/postgres"
	"forumhub/auth-server/internal/store"
	"forumhub/auth-server/internal/token"
	"forumhub/auth-server/internal/usecase"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	signer, err := token.NewSigner(cfg.Issuer, cfg.Audience, cfg.SigningKey)
	if err != nil {
		log.Fatalf("failed to init signer: %v", err)
	}

	directory, err := postgres.NewUserDirectory(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to init user directory: %v", err)
	}
	defer directory.Close()

	var (
		codes   store.CodeStore
		refresh store.RefreshStore
		limiter oauth.RateLimiter
	)
	if cfg.RedisAddr != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to init redis store: %v", err)
		}
		codes = store.RedisCodeStore{RedisStore: redisStore}
		refresh = store.RedisRefreshStore{RedisStore: redisStore}
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	} else {
		log.Printf("REDIS_ADDR not set, using in-process stores")
		memStore := store.NewMemoryStore()
		codes = store.MemoryCodeStore{MemoryStore: memStore}
		refresh = store.MemoryRefreshStore{MemoryStore: memStore}
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	}

	service := usecase.NewTokenService(usecase.NewStaticRegistry(cfg.Clients), codes, refresh, directory, signer)

	srv := httpapi.NewServer(cfg, httpapi.ServerDeps{
		Service: service,
		Signer:  signer,
		Limiter: limiter,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
