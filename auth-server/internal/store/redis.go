package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"forumhub/auth-server/internal/domain/oauth"

	"github.com/redis/go-redis/v9"
)

const (
	codePrefix    = "oauth:code:"
	refreshPrefix = "oauth:refresh:"
)

type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Save(ctx context.Context, code oauth.AuthCode) error {
	return s.set(ctx, codePrefix+code.Code, code, code.ExpiresAt)
}

func (s *RedisStore) Consume(ctx context.Context, code string) (oauth.AuthCode, error) {
	var out oauth.AuthCode
	if err := s.getDel(ctx, codePrefix+code, &out); err != nil {
		return oauth.AuthCode{}, err
	}
	return out, nil
}

func (s *RedisStore) SaveRefresh(ctx context.Context, token oauth.RefreshToken) error {
	return s.set(ctx, refreshPrefix+token.Token, token, token.ExpiresAt)
}

func (s *RedisStore) ConsumeRefresh(ctx context.Context, token string) (oauth.RefreshToken, error) {
	var out oauth.RefreshToken
	if err := s.getDel(ctx, refreshPrefix+token, &out); err != nil {
		return oauth.RefreshToken{}, err
	}
	return out, nil
}

func (s *RedisStore) set(ctx context.Context, key string, value any, expiresAt time.Time) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("artifact already expired")
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

// getDel removes the key as it reads it, so a second consume of the
// same value misses.
func (s *RedisStore) getDel(ctx context.Context, key string, out any) error {
	payload, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return oauth.ErrInvalidGrant
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

// RedisCodeStore and RedisRefreshStore adapt one RedisStore to the two
// store interfaces.
type RedisCodeStore struct{ *RedisStore }

type RedisRefreshStore struct{ *RedisStore }

func (s RedisRefreshStore) Save(ctx context.Context, token oauth.RefreshToken) error {
	return s.SaveRefresh(ctx, token)
}

func (s RedisRefreshStore) Consume(ctx context.Context, token string) (oauth.RefreshToken, error) {
	return s.ConsumeRefresh(ctx, token)
}
