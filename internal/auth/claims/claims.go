// Package claims defines the authenticated principal carried inside a
// verified bearer token and the pure decode from raw JWT claims.
package claims

import (
	"encoding/json"
	"strconv"
	"strings"
)

const authorityPrefix = "ROLE_"

type Role string

const (
	RoleADM       Role = "ADM"
	RoleMOD       Role = "MOD"
	RoleBasic     Role = "BASIC"
	RoleAnonymous Role = "ANONYMOUS"
)

// Elevated reports whether the role bypasses ownership checks that
// allow moderator intervention.
func (r Role) Elevated() bool {
	return r == RoleADM || r == RoleMOD
}

func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// RoleFromAuthority parses an authority string of the form "ROLE_<name>".
// Anything malformed or unknown maps to RoleAnonymous; downstream
// authorization simply denies, this never fails hard.
func RoleFromAuthority(authority string) Role {
	if !strings.HasPrefix(authority, authorityPrefix) {
		return RoleAnonymous
	}
	switch Role(authority[len(authorityPrefix):]) {
	case RoleADM:
		return RoleADM
	case RoleMOD:
		return RoleMOD
	case RoleBasic:
		return RoleBasic
	default:
		return RoleAnonymous
	}
}

// Principal is the identity and authorization attributes derived from a
// verified token for one request. Immutable for the request's lifetime.
type Principal struct {
	UserID  int64
	Subject string
	Role    Role
	Scopes  []string
}

func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// FromClaims decodes a Principal from verified token claims. Required
// claims: "sub", numeric "user_id", "authority" ("ROLE_" + role name).
// A missing or malformed authority yields RoleAnonymous. Scopes come
// from the standard "scope" (space separated) or "scp" (array) claim,
// independent of role.
func FromClaims(raw map[string]any) Principal {
	principal := Principal{Role: RoleAnonymous}
	if subject, _ := raw["sub"].(string); subject != "" {
		principal.Subject = subject
	}
	if id, ok := parseUserID(raw["user_id"]); ok {
		principal.UserID = id
	}
	if authority, _ := raw["authority"].(string); authority != "" {
		principal.Role = RoleFromAuthority(authority)
	}
	principal.Scopes = extractScopes(raw)
	return principal
}

func parseUserID(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func extractScopes(raw map[string]any) []string {
	var scopes []string
	if scope, ok := raw["scope"].(string); ok && scope != "" {
		scopes = append(scopes, strings.Fields(scope)...)
	}
	if entries, ok := raw["scp"].([]any); ok {
		for _, entry := range entries {
			if scope, ok := entry.(string); ok {
				scopes = append(scopes, scope)
			}
		}
	}
	return dedupeStrings(scopes)
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
