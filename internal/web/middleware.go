package web

import (
	"context"
	"net/http"
	"strings"

	"forumhub/internal/auth/claims"
	"forumhub/internal/auth/permission"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (claims.Principal, error)
}

// AuthMiddleware verifies the bearer token and gates the route on a
// minimum role and a granted scope. Both gates must pass; the domain
// ownership checks run later inside the usecase.
func AuthMiddleware(authenticator Authenticator, authorizer *permission.Authorizer, role claims.Role, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil || authorizer == nil {
			WriteProblem(c, http.StatusInternalServerError, "Internal", "auth misconfigured")
			return
		}
		principal, err := authenticator.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			WriteProblem(c, http.StatusUnauthorized, "Unauthorized", "authentication failed")
			return
		}
		if err := authorizer.Require(principal, role, scope); err != nil {
			if authz, ok := permission.IsAuthzError(err); ok {
				WriteProblem(c, http.StatusForbidden, authz.Code, "forbidden")
				return
			}
			WriteProblem(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func PrincipalFromContext(c *gin.Context) (claims.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		WriteProblem(c, http.StatusInternalServerError, "Internal", "principal missing")
		return claims.Principal{}, false
	}
	principal, ok := value.(claims.Principal)
	if !ok {
		WriteProblem(c, http.StatusInternalServerError, "Internal", "principal invalid")
		return claims.Principal{}, false
	}
	return principal, true
}
