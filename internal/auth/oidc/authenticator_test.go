package oidc

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"forumhub/internal/auth/claims"
)

const (
	testIssuer   = "https://auth.forumhub.test"
	testAudience = "forumhub-api"
	testJWKSURL  = "https://auth.forumhub.test/oauth/jwks"
)

func newTestAuthenticator(t *testing.T, privKey *rsa.PrivateKey) *Authenticator {
	t.Helper()
	jwks := buildJWKS(t, &privKey.PublicKey, "kid-1")
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.String() == testJWKSURL {
				return jsonResponse(http.StatusOK, jwks), nil
			}
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}),
	}
	auth, err := NewAuthenticator(testIssuer, testAudience, testJWKSURL, WithHTTPClient(client), WithClockSkew(time.Minute))
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return auth
}

func TestAuthenticateValidToken(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := newTestAuthenticator(t, privKey)

	now := time.Now().UTC()
	token := signToken(t, privKey, "kid-1", map[string]any{
		"iss":       testIssuer,
		"aud":       testAudience,
		"sub":       "ana@forumhub.dev",
		"user_id":   10,
		"authority": "ROLE_BASIC",
		"scope":     "topic:create answer:create",
		"exp":       now.Add(5 * time.Minute).Unix(),
		"nbf":       now.Add(-1 * time.Minute).Unix(),
	})

	principal, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.Subject != "ana@forumhub.dev" {
		t.Fatalf("unexpected subject: %s", principal.Subject)
	}
	if principal.UserID != 10 {
		t.Fatalf("unexpected user id: %d", principal.UserID)
	}
	if principal.Role != claims.RoleBasic {
		t.Fatalf("unexpected role: %s", principal.Role)
	}
	if !principal.HasScope("topic:create") {
		t.Fatalf("expected topic:create scope, got %v", principal.Scopes)
	}
}

func TestAuthenticateMissingAuthorityYieldsAnonymous(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := newTestAuthenticator(t, privKey)

	now := time.Now().UTC()
	token := signToken(t, privKey, "kid-1", map[string]any{
		"iss":     testIssuer,
		"aud":     testAudience,
		"sub":     "svc-topic",
		"scope":   "user:read",
		"exp":     now.Add(5 * time.Minute).Unix(),
		"user_id": 0,
	})

	principal, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.Role != claims.RoleAnonymous {
		t.Fatalf("role = %s, want ANONYMOUS", principal.Role)
	}
}

func TestAuthenticateInvalidClaims(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := newTestAuthenticator(t, privKey)

	now := time.Now().UTC()
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{
			name: "missing exp",
			raw: map[string]any{
				"iss": testIssuer,
				"aud": testAudience,
			},
		},
		{
			name: "expired",
			raw: map[string]any{
				"iss": testIssuer,
				"aud": testAudience,
				"exp": now.Add(-5 * time.Minute).Unix(),
			},
		},
		{
			name: "nbf in future",
			raw: map[string]any{
				"iss": testIssuer,
				"aud": testAudience,
				"exp": now.Add(5 * time.Minute).Unix(),
				"nbf": now.Add(5 * time.Minute).Unix(),
			},
		},
		{
			name: "wrong issuer",
			raw: map[string]any{
				"iss": "https://wrong",
				"aud": testAudience,
				"exp": now.Add(5 * time.Minute).Unix(),
			},
		},
		{
			name: "wrong audience",
			raw: map[string]any{
				"iss": testIssuer,
				"aud": "wrong",
				"exp": now.Add(5 * time.Minute).Unix(),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := signToken(t, privKey, "kid-1", tc.raw)
			if _, err := auth.Authenticate(context.Background(), token); err != ErrUnauthenticated {
				t.Fatalf("got %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestAuthenticateWrongKeyRejected(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := newTestAuthenticator(t, privKey)

	now := time.Now().UTC()
	token := signToken(t, otherKey, "kid-1", map[string]any{
		"iss": testIssuer,
		"aud": testAudience,
		"exp": now.Add(5 * time.Minute).Unix(),
	})
	if _, err := auth.Authenticate(context.Background(), token); err != ErrUnauthenticated {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func buildJWKS(t *testing.T, key *rsa.PublicKey, kid string) string {
	t.Helper()
	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(bigIntToBytes(key.E))
	payload := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"alg": "RS256",
				"use": "sig",
				"n":   n,
				"e":   e,
			},
		},
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return string(out)
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, raw map[string]any) string {
	t.Helper()
	header := map[string]any{
		"alg": "RS256",
		"typ": "JWT",
		"kid": kid,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	claimsBytes, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	seg0 := base64.RawURLEncoding.EncodeToString(headerBytes)
	seg1 := base64.RawURLEncoding.EncodeToString(claimsBytes)
	signingInput := seg0 + "." + seg1
	hash := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func bigIntToBytes(value int) []byte {
	out := []byte{}
	for v := value; v > 0; v >>= 8 {
		out = append([]byte{byte(v & 0xff)}, out...)
	}
	if len(out) == 0 {
		return []byte{0}
	}
	return out
}
