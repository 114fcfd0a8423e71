package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"forumhub/auth-server/internal/domain/oauth"

	"github.com/gin-gonic/gin"
)

// oauthError is the standard error body of the token endpoint.
type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeOAuthError(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, oauthError{Error: code, Description: description})
}

// clientCredentials reads client id/secret from HTTP Basic or, failing
// that, from the form body.
func clientCredentials(c *gin.Context) (string, string) {
	if id, secret, ok := c.Request.BasicAuth(); ok {
		return id, secret
	}
	return c.PostForm("client_id"), c.PostForm("client_secret")
}

func (s *Server) handleToken(c *gin.Context) {
	clientID, clientSecret := clientCredentials(c)
	grantType := c.PostForm("grant_type")

	var (
		resp interface{}
		err  error
	)
	switch grantType {
	case oauth.GrantClientCredentials:
		resp, err = s.service.ClientCredentials(c.Request.Context(), clientID, clientSecret, c.PostForm("scope"))
	case oauth.GrantAuthorizationCode:
		resp, err = s.service.ExchangeCode(c.Request.Context(), clientID, clientSecret, c.PostForm("code"), c.PostForm("redirect_uri"))
	case oauth.GrantRefreshToken:
		resp, err = s.service.RefreshGrant(c.Request.Context(), clientID, clientSecret, c.PostForm("refresh_token"))
	default:
		writeOAuthError(c, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be authorization_code, client_credentials or refresh_token")
		return
	}
	if err != nil {
		writeGrantError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}

func writeGrantError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, oauth.ErrInvalidClient):
		c.Header("WWW-Authenticate", `Basic realm="oauth"`)
		writeOAuthError(c, http.StatusUnauthorized, "invalid_client", "client authentication failed")
	case errors.Is(err, oauth.ErrUnauthorizedClient):
		writeOAuthError(c, http.StatusBadRequest, "unauthorized_client", "client is not allowed this grant type")
	case errors.Is(err, oauth.ErrInvalidScope):
		writeOAuthError(c, http.StatusBadRequest, "invalid_scope", "requested scope exceeds the client's grants")
	case errors.Is(err, oauth.ErrInvalidGrant):
		writeOAuthError(c, http.StatusBadRequest, "invalid_grant", "code or refresh token is invalid, expired or already used")
	case errors.Is(err, oauth.ErrInvalidRedirectURI):
		writeOAuthError(c, http.StatusBadRequest, "invalid_grant", "redirect_uri does not match the registered value")
	case errors.Is(err, oauth.ErrInvalidCredentials), errors.Is(err, oauth.ErrAccountDisabled):
		writeOAuthError(c, http.StatusUnauthorized, "access_denied", "resource owner authentication failed")
	default:
		writeOAuthError(c, http.StatusInternalServerError, "server_error", "unexpected failure")
	}
}

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>ForumHub - Entrar</title></head>
<body>
<h1>Entrar no ForumHub</h1>
<form method="post" action="/oauth/authorize">
  <input type="hidden" name="client_id" value="{{.ClientID}}">
  <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
  <input type="hidden" name="scope" value="{{.Scope}}">
  <input type="hidden" name="state" value="{{.State}}">
  <label>Usuário ou e-mail <input type="text" name="login" autocomplete="username"></label>
  <label>Senha <input type="password" name="password" autocomplete="current-password"></label>
  <button type="submit">Entrar</button>
</form>
</body>
</html>`))

func (s *Server) handleAuthorizeForm(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = loginPage.Execute(c.Writer, gin.H{
		"ClientID":    c.Query("client_id"),
		"RedirectURI": c.Query("redirect_uri"),
		"Scope":       c.Query("scope"),
		"State":       c.Query("state"),
	})
}

// handleAuthorize validates the submitted credentials and redirects
// back to the client with a single-use code.
func (s *Server) handleAuthorize(c *gin.Context) {
	code, err := s.service.Authorize(
		c.Request.Context(),
		c.PostForm("client_id"),
		c.PostForm("redirect_uri"),
		c.PostForm("scope"),
		c.PostForm("login"),
		c.PostForm("password"),
	)
	if err != nil {
		writeGrantError(c, err)
		return
	}
	redirect, parseErr := url.Parse(code.RedirectURI)
	if parseErr != nil {
		writeOAuthError(c, http.StatusBadRequest, "invalid_grant", "redirect_uri is not a valid url")
		return
	}
	query := redirect.Query()
	query.Set("code", code.Code)
	if state := c.PostForm("state"); state != "" {
		query.Set("state", state)
	}
	redirect.RawQuery = query.Encode()
	c.Redirect(http.StatusFound, redirect.String())
}
