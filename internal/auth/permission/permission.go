// Package permission is the single place where ownership and
// role/scope decisions are made. Checks fail with a named error
// instead of returning a boolean so a denial cannot be ignored.
package permission

import (
	"errors"

	"forumhub/internal/auth/claims"
)

var (
	// ErrInsufficientPrivilege denies a caller that neither owns the
	// resource nor holds an elevated role.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// ErrNotTopicOwner denies any caller other than the exact resource
	// owner. Elevated roles are not exempt.
	ErrNotTopicOwner = errors.New("not the topic owner")

	ErrMissingRole  = errors.New("required role not granted")
	ErrMissingScope = errors.New("required scope not granted")
	ErrUnauthorized = errors.New("unauthorized")
)

// RequireOwnerOrElevated passes iff the principal owns the resource or
// holds the MOD/ADM role.
func RequireOwnerOrElevated(ownerID int64, p claims.Principal) error {
	if p.UserID == ownerID && p.Role != claims.RoleAnonymous {
		return nil
	}
	if p.Role.Elevated() {
		return nil
	}
	return ErrInsufficientPrivilege
}

// RequireOwner passes iff the principal is exactly the resource owner.
// There is no elevation escape hatch: even ADM is denied when the id
// differs. Used for marking a best answer, which only the topic's
// original author may do.
func RequireOwner(ownerID int64, p claims.Principal) error {
	if p.UserID == ownerID && p.Role != claims.RoleAnonymous {
		return nil
	}
	return ErrNotTopicOwner
}

// RequireScope gates on a granted OAuth2 scope, independent of role.
func RequireScope(p claims.Principal, scope string) error {
	if scope == "" {
		return nil
	}
	if !p.HasScope(scope) {
		return ErrMissingScope
	}
	return nil
}

// RequireRole gates on a minimum privilege tier: asking for BASIC
// admits BASIC, MOD and ADM; asking for MOD admits MOD and ADM.
func RequireRole(p claims.Principal, role claims.Role) error {
	switch role {
	case claims.RoleAnonymous:
		return nil
	case claims.RoleBasic:
		if p.Role == claims.RoleBasic || p.Role.Elevated() {
			return nil
		}
	case claims.RoleMOD:
		if p.Role.Elevated() {
			return nil
		}
	case claims.RoleADM:
		if p.Role == claims.RoleADM {
			return nil
		}
	}
	return ErrMissingRole
}

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Authorizer gates a request at the boundary: the caller must be
// authenticated, hold the minimum role and hold the granted scope.
// Both gates must pass when both are required; the domain-level
// ownership checks run afterwards inside the usecase.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

func (a *Authorizer) Require(p claims.Principal, role claims.Role, scope string) error {
	if p.Subject == "" && p.UserID == 0 {
		return ErrUnauthorized
	}
	if err := RequireRole(p, role); err != nil {
		return &AuthzError{Code: "MISSING_ROLE", Err: err}
	}
	if err := RequireScope(p, scope); err != nil {
		return &AuthzError{Code: "MISSING_SCOPE", Err: err}
	}
	return nil
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}
