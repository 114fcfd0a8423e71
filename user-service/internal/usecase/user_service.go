package usecase

import (
	"context"
	"strings"
	"time"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"
	"forumhub/user-service/internal/domain/users"

	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, user users.User) (users.User, error)
	Get(ctx context.Context, userID int64) (users.User, error)
	GetByUsername(ctx context.Context, username string) (users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Update(ctx context.Context, user users.User) error
	Delete(ctx context.Context, userID int64) error
}

// UserService applies the account lifecycle. Which record an operation
// targets is decided by users.ResolveTarget before anything is read.
type UserService struct {
	Users UserRepository
	Clock func() time.Time

	hashCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{Users: repo, Clock: time.Now, hashCost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Register creates an enabled BASIC account. Registration is open:
// no principal is involved.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (users.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Username) == "" ||
		strings.TrimSpace(in.Email) == "" || len(in.Password) < 8 {
		return users.User{}, users.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return users.User{}, err
	}
	user := users.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         claims.RoleBasic,
		Profile:      string(claims.RoleBasic),
		CreatedAt:    s.Clock(),

		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Enabled:               true,
	}
	return s.Users.Create(ctx, user)
}

// Detailed returns the full record of the resolved target.
func (s *UserService) Detailed(ctx context.Context, p claims.Principal, explicit *int64) (users.User, error) {
	target, err := users.ResolveTarget(p, explicit)
	if err != nil {
		return users.User{}, err
	}
	return s.Users.Get(ctx, target)
}

// Summary returns the record served to other services. The caller is a
// service client, not an end user, so no target dispatch applies.
func (s *UserService) Summary(ctx context.Context, userID int64) (users.User, error) {
	if userID <= 0 {
		return users.User{}, users.ErrMalformedUserParameter
	}
	return s.Users.Get(ctx, userID)
}

func (s *UserService) List(ctx context.Context) ([]users.User, error) {
	return s.Users.List(ctx)
}

// Update edits the resolved target. Non-ADM callers may only edit
// their own record, and only its plain fields.
func (s *UserService) Update(ctx context.Context, p claims.Principal, explicit *int64, in users.UpdateInput) (users.User, error) {
	target, err := users.ResolveTarget(p, explicit)
	if err != nil {
		return users.User{}, err
	}
	if p.Role != claims.RoleADM && target != p.UserID {
		return users.User{}, permission.ErrInsufficientPrivilege
	}
	user, err := s.Users.Get(ctx, target)
	if err != nil {
		return users.User{}, err
	}
	updated, err := users.ApplyUpdate(p, user, in)
	if err != nil {
		return users.User{}, err
	}
	if strings.TrimSpace(updated.Name) == "" || strings.TrimSpace(updated.Username) == "" ||
		strings.TrimSpace(updated.Email) == "" {
		return users.User{}, users.ErrInvalidArgument
	}
	if err := s.Users.Update(ctx, updated); err != nil {
		return users.User{}, err
	}
	return updated, nil
}

// Delete removes the resolved target. Target dispatch alone gates the
// operation: BASIC callers can only ever resolve to themselves, while
// MOD and ADM act on whichever record they name.
func (s *UserService) Delete(ctx context.Context, p claims.Principal, explicit *int64) error {
	target, err := users.ResolveTarget(p, explicit)
	if err != nil {
		return err
	}
	return s.Users.Delete(ctx, target)
}
