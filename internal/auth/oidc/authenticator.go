// Package oidc verifies inbound bearer JWTs against the authorization
// server's published signing keys and decodes them into a Principal.
package oidc

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"forumhub/internal/auth/claims"
)

const defaultHTTPTimeout = 5 * time.Second

var ErrUnauthenticated = errors.New("unauthenticated")

type Authenticator struct {
	issuer    string
	audience  string
	clockSkew time.Duration
	jwks      *jwksCache
}

type Option func(*Authenticator)

func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		if client != nil {
			a.jwks.httpClient = client
		}
	}
}

func WithClockSkew(skew time.Duration) Option {
	return func(a *Authenticator) {
		a.clockSkew = skew
	}
}

// NewAuthenticator builds a verifier for tokens issued by the given
// issuer, fetching keys from jwksURL.
func NewAuthenticator(issuer, audience, jwksURL string, opts ...Option) (*Authenticator, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	jwksURL = strings.TrimSpace(jwksURL)
	if jwksURL == "" {
		jwksURL = strings.TrimRight(issuer, "/") + "/oauth/jwks"
	}
	auth := &Authenticator{
		issuer:   issuer,
		audience: strings.TrimSpace(audience),
		jwks:     newJWKSCache(jwksURL, &http.Client{Timeout: defaultHTTPTimeout}),
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth, nil
}

// Authenticate verifies the bearer token and returns its Principal.
// Every failure collapses to ErrUnauthenticated; the caller must not
// distinguish why a token was rejected.
func (a *Authenticator) Authenticate(ctx context.Context, bearerToken string) (claims.Principal, error) {
	if a == nil {
		return claims.Principal{}, ErrUnauthenticated
	}
	tokenString := strings.TrimSpace(bearerToken)
	if tokenString == "" {
		return claims.Principal{}, ErrUnauthenticated
	}
	header, raw, signingInput, signature, err := parseJWT(tokenString)
	if err != nil {
		return claims.Principal{}, ErrUnauthenticated
	}
	if alg, _ := header["alg"].(string); alg != "RS256" {
		return claims.Principal{}, ErrUnauthenticated
	}
	if typ, ok := header["typ"].(string); ok && typ != "" && strings.ToUpper(typ) != "JWT" {
		return claims.Principal{}, ErrUnauthenticated
	}
	kid, _ := header["kid"].(string)
	pubKey, err := a.jwks.getKey(ctx, kid)
	if err != nil {
		return claims.Principal{}, ErrUnauthenticated
	}
	if err := verifyRS256(pubKey, signingInput, signature); err != nil {
		return claims.Principal{}, ErrUnauthenticated
	}
	if err := a.validateClaims(raw); err != nil {
		return claims.Principal{}, ErrUnauthenticated
	}
	return claims.FromClaims(raw), nil
}

func parseJWT(token string) (map[string]any, map[string]any, string, []byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, "", nil, errors.New("invalid token format")
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, "", nil, err
	}
	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, "", nil, err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, "", nil, err
	}
	var header map[string]any
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, nil, "", nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(claimsBytes, &raw); err != nil {
		return nil, nil, "", nil, err
	}
	return header, raw, parts[0] + "." + parts[1], signature, nil
}

func verifyRS256(pubKey *rsa.PublicKey, signingInput string, signature []byte) error {
	hash := sha256.Sum256([]byte(signingInput))
	return rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, hash[:], signature)
}

func (a *Authenticator) validateClaims(raw map[string]any) error {
	now := time.Now()
	if a.issuer != "" {
		if iss, _ := raw["iss"].(string); iss != a.issuer {
			return errors.New("issuer mismatch")
		}
	}
	if a.audience != "" {
		if !audienceMatches(raw["aud"], a.audience) {
			return errors.New("audience mismatch")
		}
	}
	exp, ok := parseNumericDate(raw["exp"])
	if !ok {
		return errors.New("exp claim required")
	}
	if now.After(exp.Add(a.clockSkew)) {
		return errors.New("token expired")
	}
	if nbf, ok := parseNumericDate(raw["nbf"]); ok {
		if now.Add(a.clockSkew).Before(nbf) {
			return errors.New("token not yet valid")
		}
	}
	return nil
}

func parseNumericDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	default:
		return time.Time{}, false
	}
}

func audienceMatches(raw any, expected string) bool {
	switch v := raw.(type) {
	case string:
		return v == expected
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}
