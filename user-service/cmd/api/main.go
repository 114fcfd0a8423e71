package main

import (
	"log"

	"forumhub/internal/auth/oidc"
	"forumhub/user-service/internal/config"
	httpapi "forumhub/user-service/internal/http"
	"forumhub/user-service/internal/repo/db"
)

func main() {
	cfg := config.FromEnv()
	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	authenticator, err := oidc.NewAuthenticator(cfg.TokenIssuer, cfg.TokenAudience, cfg.JWKSURL)
	if err != nil {
		log.Fatalf("failed to init authenticator: %v", err)
	}

	srv := httpapi.NewServer(cfg, store, authenticator)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
