// Package token signs access tokens and publishes the verification
// key set.
package token

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"forumhub/auth-server/internal/domain/oauth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Signer struct {
	issuer   string
	audience string
	key      *rsa.PrivateKey
	kid      string
	now      func() time.Time
}

// NewSigner parses a base64-encoded PEM RSA private key (PKCS#1 or
// PKCS#8). The kid is derived from the public key so it stays stable
// across restarts.
func NewSigner(issuer, audience, keyBase64 string) (*Signer, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	key, err := parseKey(keyBase64)
	if err != nil {
		return nil, err
	}
	return &Signer{
		issuer:   issuer,
		audience: audience,
		key:      key,
		kid:      deriveKID(&key.PublicKey),
		now:      time.Now,
	}, nil
}

func parseKey(keyBase64 string) (*rsa.PrivateKey, error) {
	if keyBase64 == "" {
		return nil, errors.New("signing key is required")
	}
	raw, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("signing key is not PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not RSA")
	}
	return key, nil
}

func deriveKID(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "default"
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}

// Identity is the resource-owner half of a token. Zero UserID and
// empty Authority mean a pure service token.
type Identity struct {
	Subject   string
	UserID    int64
	Authority string
}

type AccessToken struct {
	Token     string
	ExpiresIn int
	Scope     string
}

// Sign issues a 15-minute RS256 access token.
func (s *Signer) Sign(identity Identity, scope string) (AccessToken, error) {
	now := s.now().UTC()
	exp := now.Add(oauth.AccessTokenTTL)
	claims := jwt.MapClaims{
		"iss":   s.issuer,
		"aud":   s.audience,
		"sub":   identity.Subject,
		"scope": scope,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	if identity.UserID != 0 {
		claims["user_id"] = identity.UserID
	}
	if identity.Authority != "" {
		claims["authority"] = identity.Authority
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		Token:     signed,
		ExpiresIn: int(oauth.AccessTokenTTL.Seconds()),
		Scope:     scope,
	}, nil
}

type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// KeySet publishes the signing key in JWKS form.
func (s *Signer) KeySet() JWKS {
	pub := &s.key.PublicKey
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: s.kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
