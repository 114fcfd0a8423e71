// Package oauth models the registered clients, grants and stored
// artifacts of the authorization server.
package oauth

import (
	"context"
	"errors"
	"time"
)

const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	AuthCodeTTL     = 30 * time.Minute
	RefreshTokenTTL = 24 * time.Hour
)

// Client is a registered OAuth2 client. The set is fixed at startup;
// there is no dynamic registration.
type Client struct {
	ID          string
	SecretHash  string
	GrantTypes  []string
	Scopes      []string
	RedirectURI string
}

func (c Client) AllowsGrant(grant string) bool {
	for _, g := range c.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

func (c Client) AllowsScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// AuthCode is a single-use authorization code bound to the client,
// redirect URI and scope set it was issued for.
type AuthCode struct {
	Code        string
	ClientID    string
	RedirectURI string
	Scopes      []string
	ExpiresAt   time.Time

	UserID    int64
	Subject   string
	Authority string
}

// RefreshToken is an opaque server-side token. Consuming it deletes
// it; a fresh value is issued on every successful refresh.
type RefreshToken struct {
	Token     string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time

	UserID    int64
	Subject   string
	Authority string
}

var (
	ErrInvalidClient      = errors.New("invalid client credentials")
	ErrUnauthorizedClient = errors.New("client not allowed this grant")
	ErrInvalidGrant       = errors.New("invalid or expired grant")
	ErrInvalidScope       = errors.New("requested scope not granted to client")
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrUnsupportedGrant   = errors.New("unsupported grant type")
	ErrInvalidRedirectURI = errors.New("redirect uri mismatch")
	ErrRateLimited        = errors.New("rate limited")
)

// TokenClientKey names the fixed-window bucket for a client's token
// requests.
func TokenClientKey(clientID string) string {
	return "token:" + clientID
}

// RateLimitDecision reports the outcome of one fixed-window check.
// RetryAfter is the limiter's own view of the time left in the window,
// so callers never re-derive it from wall clocks they don't own.
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the
// Retry-After header, never below one.
func (d RateLimitDecision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
