// Package users models forum accounts and the self-service rules that
// decide which record a caller may read or change.
package users

import (
	"errors"
	"time"

	"forumhub/internal/auth/claims"
)

const (
	PermUserRead   = "user:read"
	PermUserEdit   = "user:edit"
	PermUserDelete = "user:delete"
)

type User struct {
	ID           int64
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Role         claims.Role
	Profile      string
	CreatedAt    time.Time

	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
	Enabled               bool
}

var (
	ErrNotFound        = errors.New("user not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("username or email already taken")

	// ErrMalformedUserParameter marks a target dispatch the caller's
	// role does not allow, e.g. a BASIC caller naming an explicit id.
	ErrMalformedUserParameter = errors.New("malformed user parameter")
)

// ResolveTarget picks the record an operation acts on. BASIC callers
// always act on themselves and may not name an explicit id, not even
// their own. MOD and ADM callers act on the explicit id when given,
// otherwise on themselves.
func ResolveTarget(p claims.Principal, explicit *int64) (int64, error) {
	switch p.Role {
	case claims.RoleBasic:
		if explicit != nil {
			return 0, ErrMalformedUserParameter
		}
		return p.UserID, nil
	case claims.RoleADM, claims.RoleMOD:
		if explicit != nil {
			if *explicit <= 0 {
				return 0, ErrMalformedUserParameter
			}
			return *explicit, nil
		}
		return p.UserID, nil
	}
	return 0, ErrMalformedUserParameter
}

// UpdateInput carries the fields an edit may touch. Nil means leave
// unchanged.
type UpdateInput struct {
	Name     *string
	Username *string
	Email    *string

	Role    *claims.Role
	Profile *string

	AccountNonExpired     *bool
	AccountNonLocked      *bool
	CredentialsNonExpired *bool
	Enabled               *bool
}

// assignableRole reports whether a role may be stored on a record.
// ANONYMOUS and free-form strings would round-trip through the
// authority claim as ANONYMOUS and lock the account out.
func assignableRole(r claims.Role) bool {
	return r == claims.RoleADM || r == claims.RoleMOD || r == claims.RoleBasic
}

func (in UpdateInput) touchesPrivileged() bool {
	return in.Role != nil || in.Profile != nil ||
		in.AccountNonExpired != nil || in.AccountNonLocked != nil ||
		in.CredentialsNonExpired != nil || in.Enabled != nil
}

// ErrPrivilegedField is returned when a non-ADM caller tries to change
// role, profile or an account-status flag.
var ErrPrivilegedField = errors.New("only administrators may change role, profile or account flags")

// ApplyUpdate copies the requested changes onto the record. Role,
// profile and the four account-status flags are ADM-only; everyone
// else is limited to name, username and email.
func ApplyUpdate(actor claims.Principal, user User, in UpdateInput) (User, error) {
	if in.touchesPrivileged() && actor.Role != claims.RoleADM {
		return User{}, ErrPrivilegedField
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Role != nil {
		if !assignableRole(*in.Role) {
			return User{}, ErrInvalidArgument
		}
		user.Role = *in.Role
	}
	if in.Profile != nil {
		user.Profile = *in.Profile
	}
	if in.AccountNonExpired != nil {
		user.AccountNonExpired = *in.AccountNonExpired
	}
	if in.AccountNonLocked != nil {
		user.AccountNonLocked = *in.AccountNonLocked
	}
	if in.CredentialsNonExpired != nil {
		user.CredentialsNonExpired = *in.CredentialsNonExpired
	}
	if in.Enabled != nil {
		user.Enabled = *in.Enabled
	}
	return user, nil
}
