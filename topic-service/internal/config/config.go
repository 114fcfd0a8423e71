package config

import "os"

type Config struct {
	HTTPAddr       string
	PostgresDSN    string
	TokenIssuer    string
	TokenAudience  string
	JWKSURL        string
	AuthServerURL  string
	UserServiceURL string
	ClientID       string
	ClientSecret   string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envDefault("HTTP_ADDR", ":8081"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		TokenIssuer:    os.Getenv("TOKEN_ISSUER"),
		TokenAudience:  envDefault("TOKEN_AUDIENCE", "forumhub-api"),
		JWKSURL:        os.Getenv("JWKS_URL"),
		AuthServerURL:  os.Getenv("AUTH_SERVER_URL"),
		UserServiceURL: os.Getenv("USER_SERVICE_URL"),
		ClientID:       envDefault("OAUTH_CLIENT_ID", "topic-service"),
		ClientSecret:   os.Getenv("OAUTH_CLIENT_SECRET"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
