package usecase

import (
	"context"
	"crypto/subtle"
	"sort"
	"strings"
	"time"

	"forumhub/auth-server/internal/domain/oauth"
	"forumhub/auth-server/internal/repo/postgres"
	"forumhub/auth-server/internal/store"
	"forumhub/auth-server/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserDirectory interface {
	Authenticate(ctx context.Context, login, password string) (postgres.DirectoryUser, error)
}

type ClientRegistry interface {
	Lookup(clientID string) (oauth.Client, bool)
}

// StaticRegistry is the fixed client set loaded at startup.
type StaticRegistry struct {
	clients map[string]oauth.Client
}

func NewStaticRegistry(clients []oauth.Client) *StaticRegistry {
	byID := make(map[string]oauth.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return &StaticRegistry{clients: byID}
}

func (r *StaticRegistry) Lookup(clientID string) (oauth.Client, bool) {
	c, ok := r.clients[clientID]
	return c, ok
}

// TokenService implements the three supported grants. Codes and
// refresh tokens are consumed on use; a replay sees ErrInvalidGrant.
type TokenService struct {
	Clients ClientRegistry
	Codes   store.CodeStore
	Refresh store.RefreshStore
	Users   UserDirectory
	Signer  *token.Signer
	Clock   func() time.Time
}

func NewTokenService(clients ClientRegistry, codes store.CodeStore, refresh store.RefreshStore, users UserDirectory, signer *token.Signer) *TokenService {
	return &TokenService{
		Clients: clients,
		Codes:   codes,
		Refresh: refresh,
		Users:   users,
		Signer:  signer,
		Clock:   time.Now,
	}
}

// TokenResponse is the body of a successful /oauth/token reply.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (s *TokenService) authenticateClient(clientID, clientSecret string) (oauth.Client, error) {
	client, ok := s.Clients.Lookup(clientID)
	if !ok {
		// Burn a comparison anyway so a missing id costs the same as a
		// wrong secret.
		subtle.ConstantTimeCompare([]byte(clientSecret), []byte(clientSecret))
		return oauth.Client{}, oauth.ErrInvalidClient
	}
	if bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(clientSecret)) != nil {
		return oauth.Client{}, oauth.ErrInvalidClient
	}
	return client, nil
}

// resolveScopes returns the granted scope set: the client's full set
// when none were requested, otherwise the requested subset.
func resolveScopes(client oauth.Client, requested string) ([]string, error) {
	if strings.TrimSpace(requested) == "" {
		out := append([]string(nil), client.Scopes...)
		sort.Strings(out)
		return out, nil
	}
	fields := strings.Fields(requested)
	out := make([]string, 0, len(fields))
	for _, scope := range fields {
		if !client.AllowsScope(scope) {
			return nil, oauth.ErrInvalidScope
		}
		out = append(out, scope)
	}
	sort.Strings(out)
	return out, nil
}

// ClientCredentials issues a service token carrying the client's
// scopes. No refresh token: the client can always ask again.
func (s *TokenService) ClientCredentials(ctx context.Context, clientID, clientSecret, requestedScope string) (TokenResponse, error) {
	client, err := s.authenticateClient(clientID, clientSecret)
	if err != nil {
		return TokenResponse{}, err
	}
	if !client.AllowsGrant(oauth.GrantClientCredentials) {
		return TokenResponse{}, oauth.ErrUnauthorizedClient
	}
	scopes, err := resolveScopes(client, requestedScope)
	if err != nil {
		return TokenResponse{}, err
	}
	scope := strings.Join(scopes, " ")
	access, err := s.Signer.Sign(token.Identity{Subject: client.ID}, scope)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: access.Token,
		TokenType:   "Bearer",
		ExpiresIn:   access.ExpiresIn,
		Scope:       scope,
	}, nil
}

// Authorize validates the resource owner's credentials and issues a
// 30-minute single-use code bound to client, redirect URI and scopes.
func (s *TokenService) Authorize(ctx context.Context, clientID, redirectURI, requestedScope, login, password string) (oauth.AuthCode, error) {
	client, ok := s.Clients.Lookup(clientID)
	if !ok {
		return oauth.AuthCode{}, oauth.ErrInvalidClient
	}
	if !client.AllowsGrant(oauth.GrantAuthorizationCode) {
		return oauth.AuthCode{}, oauth.ErrUnauthorizedClient
	}
	if redirectURI == "" || redirectURI != client.RedirectURI {
		return oauth.AuthCode{}, oauth.ErrInvalidRedirectURI
	}
	scopes, err := resolveScopes(client, requestedScope)
	if err != nil {
		return oauth.AuthCode{}, err
	}
	user, err := s.Users.Authenticate(ctx, login, password)
	if err != nil {
		return oauth.AuthCode{}, err
	}
	code := oauth.AuthCode{
		Code:        uuid.NewString(),
		ClientID:    client.ID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		ExpiresAt:   s.Clock().Add(oauth.AuthCodeTTL),

		UserID:    user.ID,
		Subject:   user.Email,
		Authority: "ROLE_" + user.Role,
	}
	if err := s.Codes.Save(ctx, code); err != nil {
		return oauth.AuthCode{}, err
	}
	return code, nil
}

// ExchangeCode trades a single-use code for an access token plus a
// rotating refresh token.
func (s *TokenService) ExchangeCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (TokenResponse, error) {
	client, err := s.authenticateClient(clientID, clientSecret)
	if err != nil {
		return TokenResponse{}, err
	}
	if !client.AllowsGrant(oauth.GrantAuthorizationCode) {
		return TokenResponse{}, oauth.ErrUnauthorizedClient
	}
	stored, err := s.Codes.Consume(ctx, code)
	if err != nil {
		return TokenResponse{}, err
	}
	if stored.ClientID != client.ID || stored.RedirectURI != redirectURI {
		return TokenResponse{}, oauth.ErrInvalidGrant
	}
	if s.Clock().After(stored.ExpiresAt) {
		return TokenResponse{}, oauth.ErrInvalidGrant
	}
	return s.issueUserToken(ctx, client, token.Identity{
		Subject:   stored.Subject,
		UserID:    stored.UserID,
		Authority: stored.Authority,
	}, stored.Scopes)
}

// RefreshGrant consumes the presented refresh token and issues a new
// pair. The consumed value is gone: presenting it again fails.
func (s *TokenService) RefreshGrant(ctx context.Context, clientID, clientSecret, refreshToken string) (TokenResponse, error) {
	client, err := s.authenticateClient(clientID, clientSecret)
	if err != nil {
		return TokenResponse{}, err
	}
	if !client.AllowsGrant(oauth.GrantRefreshToken) {
		return TokenResponse{}, oauth.ErrUnauthorizedClient
	}
	stored, err := s.Refresh.Consume(ctx, refreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	if stored.ClientID != client.ID {
		return TokenResponse{}, oauth.ErrInvalidGrant
	}
	if s.Clock().After(stored.ExpiresAt) {
		return TokenResponse{}, oauth.ErrInvalidGrant
	}
	return s.issueUserToken(ctx, client, token.Identity{
		Subject:   stored.Subject,
		UserID:    stored.UserID,
		Authority: stored.Authority,
	}, stored.Scopes)
}

func (s *TokenService) issueUserToken(ctx context.Context, client oauth.Client, identity token.Identity, scopes []string) (TokenResponse, error) {
	scope := strings.Join(scopes, " ")
	access, err := s.Signer.Sign(identity, scope)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh := oauth.RefreshToken{
		Token:     uuid.NewString(),
		ClientID:  client.ID,
		Scopes:    scopes,
		ExpiresAt: s.Clock().Add(oauth.RefreshTokenTTL),

		UserID:    identity.UserID,
		Subject:   identity.Subject,
		Authority: identity.Authority,
	}
	if err := s.Refresh.Save(ctx, refresh); err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken:  access.Token,
		TokenType:    "Bearer",
		ExpiresIn:    access.ExpiresIn,
		Scope:        scope,
		RefreshToken: refresh.Token,
	}, nil
}
