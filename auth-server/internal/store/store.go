// Package store persists authorization codes and refresh tokens. Both
// artifacts are single use: Consume returns the record and deletes it
// atomically, so a replayed value misses.
package store

import (
	"context"

	"forumhub/auth-server/internal/domain/oauth"
)

type CodeStore interface {
	Save(ctx context.Context, code oauth.AuthCode) error
	// Consume returns the code and removes it. A missing or expired
	// code yields oauth.ErrInvalidGrant.
	Consume(ctx context.Context, code string) (oauth.AuthCode, error)
}

type RefreshStore interface {
	Save(ctx context.Context, token oauth.RefreshToken) error
	Consume(ctx context.Context, token string) (oauth.RefreshToken, error)
}
