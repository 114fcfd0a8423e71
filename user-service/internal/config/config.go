package config

import "os"

type Config struct {
	HTTPAddr      string
	PostgresDSN   string
	TokenIssuer   string
	TokenAudience string
	JWKSURL       string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:      envDefault("HTTP_ADDR", ":8082"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		TokenIssuer:   envDefault("TOKEN_ISSUER", "http://localhost:8080"),
		TokenAudience: envDefault("TOKEN_AUDIENCE", "forumhub-api"),
		JWKSURL:       os.Getenv("JWKS_URL"),
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
