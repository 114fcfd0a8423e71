package main

import (
	"log"

	"forumhub/internal/auth/oidc"
	"forumhub/topic-service/internal/config"
	httpapi "forumhub/topic-service/internal/http"
	"forumhub/topic-service/internal/repo/postgres"
)

func main() {
	cfg := config.FromEnv()
	store, err := postgres.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	authenticator, err := oidc.NewAuthenticator(cfg.TokenIssuer, cfg.TokenAudience, cfg.JWKSURL)
	if err != nil {
		log.Fatalf("failed to init authenticator: %v", err)
	}

	srv := httpapi.NewServer(cfg, store, authenticator)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
