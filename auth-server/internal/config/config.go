package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"forumhub/auth-server/internal/domain/oauth"
)

type Config struct {
	HTTPAddr    string
	Issuer      string
	Audience    string
	SigningKey  string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TokenRateLimit int

	Clients []oauth.Client
}

// clientSpec is the wire shape of one entry in OAUTH_CLIENTS_JSON.
// Secrets are bcrypt hashes, never plaintext.
type clientSpec struct {
	ID          string   `json:"id"`
	SecretHash  string   `json:"secret_hash"`
	GrantTypes  []string `json:"grant_types"`
	Scopes      []string `json:"scopes"`
	RedirectURI string   `json:"redirect_uri"`
}

func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:       envDefault("HTTP_ADDR", ":8080"),
		Issuer:         envDefault("TOKEN_ISSUER", "http://localhost:8080"),
		Audience:       envDefault("TOKEN_AUDIENCE", "forumhub-api"),
		SigningKey:     os.Getenv("SIGNING_KEY_BASE64"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		TokenRateLimit: 30,
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}
	if raw := os.Getenv("TOKEN_RATE_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_RATE_LIMIT: %w", err)
		}
		cfg.TokenRateLimit = limit
	}

	raw := os.Getenv("OAUTH_CLIENTS_JSON")
	if raw == "" {
		return Config{}, fmt.Errorf("OAUTH_CLIENTS_JSON is required")
	}
	var specs []clientSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return Config{}, fmt.Errorf("OAUTH_CLIENTS_JSON: %w", err)
	}
	for _, spec := range specs {
		if spec.ID == "" || spec.SecretHash == "" || len(spec.GrantTypes) == 0 {
			return Config{}, fmt.Errorf("client %q: id, secret_hash and grant_types are required", spec.ID)
		}
		cfg.Clients = append(cfg.Clients, oauth.Client{
			ID:          spec.ID,
			SecretHash:  spec.SecretHash,
			GrantTypes:  spec.GrantTypes,
			Scopes:      spec.Scopes,
			RedirectURI: spec.RedirectURI,
		})
	}
	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
