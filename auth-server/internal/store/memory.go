package store

import (
	"context"
	"sync"
	"time"

	"forumhub/auth-server/internal/domain/oauth"
)

// MemoryStore keeps codes and refresh tokens in process. Standalone
// deployments and tests use it in place of redis.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	codes   map[string]oauth.AuthCode
	refresh map[string]oauth.RefreshToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		codes:   make(map[string]oauth.AuthCode),
		refresh: make(map[string]oauth.RefreshToken),
	}
}

func (s *MemoryStore) Save(_ context.Context, code oauth.AuthCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Code] = code
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, code string) (oauth.AuthCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[code]
	if !ok {
		return oauth.AuthCode{}, oauth.ErrInvalidGrant
	}
	delete(s.codes, code)
	if s.now().After(stored.ExpiresAt) {
		return oauth.AuthCode{}, oauth.ErrInvalidGrant
	}
	return stored, nil
}

func (s *MemoryStore) SaveRefresh(_ context.Context, token oauth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token.Token] = token
	return nil
}

func (s *MemoryStore) ConsumeRefresh(_ context.Context, token string) (oauth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.refresh[token]
	if !ok {
		return oauth.RefreshToken{}, oauth.ErrInvalidGrant
	}
	delete(s.refresh, token)
	if s.now().After(stored.ExpiresAt) {
		return oauth.RefreshToken{}, oauth.ErrInvalidGrant
	}
	return stored, nil
}

type MemoryCodeStore struct{ *MemoryStore }

type MemoryRefreshStore struct{ *MemoryStore }

func (s MemoryRefreshStore) Save(ctx context.Context, token oauth.RefreshToken) error {
	return s.SaveRefresh(ctx, token)
}

func (s MemoryRefreshStore) Consume(ctx context.Context, token string) (oauth.RefreshToken, error) {
	return s.ConsumeRefresh(ctx, token)
}
