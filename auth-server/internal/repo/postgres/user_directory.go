package postgres

import (
	"context"
	"errors"
	"time"

	"forumhub/auth-server/internal/domain/oauth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// UserDirectory answers credential checks against the users table the
// user service maintains.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(dsn string) (*UserDirectory, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &UserDirectory{pool: pool}, nil
}

func (d *UserDirectory) Close() {
	d.pool.Close()
}

type DirectoryUser struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// Authenticate verifies the username (or email) and password. Disabled
// accounts fail even with the right password.
func (d *UserDirectory) Authenticate(ctx context.Context, login, password string) (DirectoryUser, error) {
	const query = `
SELECT id, username, email, password_hash, role, enabled
FROM users
WHERE username = $1 OR email = $1`

	var (
		user    DirectoryUser
		hash    string
		enabled bool
	)
	err := d.pool.QueryRow(ctx, query, login).Scan(
		&user.ID, &user.Username, &user.Email, &hash, &user.Role, &enabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DirectoryUser{}, oauth.ErrInvalidCredentials
	}
	if err != nil {
		return DirectoryUser{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return DirectoryUser{}, oauth.ErrInvalidCredentials
	}
	if !enabled {
		return DirectoryUser{}, oauth.ErrAccountDisabled
	}
	return user, nil
}
