package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"forumhub/auth-server/internal/config"
	"forumhub/auth-server/internal/domain/oauth"
	"forumhub/auth-server/internal/ratelimit"
	"forumhub/auth-server/internal/repo/postgres"
	"forumhub/auth-server/internal/store"
	"forumhub/auth-server/internal/token"
	"forumhub/auth-server/internal/usecase"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func rsaTestKey() (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", err
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return base64.StdEncoding.EncodeToString(pemBytes), nil
}

type fakeDirectory struct{}

func (fakeDirectory) Authenticate(_ context.Context, login, password string) (postgres.DirectoryUser, error) {
	if login == "ana" && password == "s3cret-pass" {
		return postgres.DirectoryUser{ID: 40, Username: "ana", Email: "ana@example.com", Role: "BASIC"}, nil
	}
	return postgres.DirectoryUser{}, oauth.ErrInvalidCredentials
}

func newTestServer(t *testing.T, limit int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("svc-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	webHash, err := bcrypt.GenerateFromPassword([]byte("web-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	registry := usecase.NewStaticRegistry([]oauth.Client{
		{ID: "topic-service", SecretHash: string(hash), GrantTypes: []string{oauth.GrantClientCredentials}, Scopes: []string{"user:read"}},
		{ID: "forum-web", SecretHash: string(webHash), GrantTypes: []string{oauth.GrantAuthorizationCode, oauth.GrantRefreshToken},
			Scopes: []string{"topic:read"}, RedirectURI: "https://forum.example.com/callback"},
	})

	key, err := rsaTestKey()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	signer, err := token.NewSigner("http://auth.test", "forumhub-api", key)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	mem := store.NewMemoryStore()
	service := usecase.NewTokenService(registry, store.MemoryCodeStore{MemoryStore: mem}, store.MemoryRefreshStore{MemoryStore: mem}, fakeDirectory{}, signer)

	srv := NewServer(config.Config{TokenRateLimit: limit}, ServerDeps{
		Service: service,
		Signer:  signer,
		Limiter: ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postToken(t *testing.T, ts *httptest.Server, clientID, clientSecret string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post token: %v", err)
	}
	return resp
}

func TestTokenEndpointClientCredentials(t *testing.T) {
	ts := newTestServer(t, 30)

	resp := postToken(t, ts, "topic-service", "svc-secret", url.Values{"grant_type": {"client_credentials"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccessToken == "" || body.TokenType != "Bearer" || body.Scope != "user:read" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Fatalf("expires_in = %d", body.ExpiresIn)
	}
}

func TestTokenEndpointRejectsBadSecret(t *testing.T) {
	ts := newTestServer(t, 30)

	resp := postToken(t, ts, "topic-service", "wrong", url.Values{"grant_type": {"client_credentials"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid_client" {
		t.Fatalf("error = %q, want invalid_client", body.Error)
	}
}

func TestTokenEndpointUnsupportedGrant(t *testing.T) {
	ts := newTestServer(t, 30)

	resp := postToken(t, ts, "topic-service", "svc-secret", url.Values{"grant_type": {"password"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTokenEndpointRateLimitPerClient(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp := postToken(t, ts, "topic-service", "svc-secret", url.Values{"grant_type": {"client_credentials"}})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp := postToken(t, ts, "topic-service", "svc-secret", url.Values{"grant_type": {"client_credentials"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}

	// A different client id has its own window.
	other := postToken(t, ts, "forum-web", "web-secret", url.Values{
		"grant_type": {"refresh_token"}, "refresh_token": {"missing"},
	})
	defer other.Body.Close()
	if other.StatusCode == http.StatusTooManyRequests {
		t.Fatal("rate limit leaked across client ids")
	}
}

func TestAuthorizeFlowRedirectsWithCode(t *testing.T) {
	ts := newTestServer(t, 30)

	client := &http.Client{CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	form := url.Values{
		"client_id":    {"forum-web"},
		"redirect_uri": {"https://forum.example.com/callback"},
		"scope":        {"topic:read"},
		"state":        {"xyz"},
		"login":        {"ana"},
		"password":     {"s3cret-pass"},
	}
	resp, err := client.PostForm(ts.URL+"/oauth/authorize", form)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	code := location.Query().Get("code")
	if code == "" || location.Query().Get("state") != "xyz" {
		t.Fatalf("location = %q", location)
	}

	exchange := postToken(t, ts, "forum-web", "web-secret", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"https://forum.example.com/callback"},
	})
	defer exchange.Body.Close()
	if exchange.StatusCode != http.StatusOK {
		t.Fatalf("exchange status = %d, want 200", exchange.StatusCode)
	}
}

func TestAuthorizeRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t, 30)

	resp, err := http.PostForm(ts.URL+"/oauth/authorize", url.Values{
		"client_id":    {"forum-web"},
		"redirect_uri": {"https://forum.example.com/callback"},
		"login":        {"ana"},
		"password":     {"wrong"},
	})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJWKSEndpoint(t *testing.T) {
	ts := newTestServer(t, 30)

	resp, err := http.Get(ts.URL + "/oauth/jwks")
	if err != nil {
		t.Fatalf("get jwks: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Keys) != 1 || set.Keys[0].Kid == "" || set.Keys[0].N == "" {
		t.Fatalf("unexpected key set: %+v", set)
	}
}
