// Package authorclient resolves user ids to Author snapshots by
// calling the user service, authenticated as the topic service's own
// OAuth2 client.
package authorclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forumhub/internal/auth/claims"
	"forumhub/topic-service/internal/domain/forum"
)

// The user service must answer within this window; a slower reply
// fails the whole enclosing operation.
const requestTimeout = 1 * time.Second

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Resolver struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type Option func(*Resolver)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

func NewResolver(baseURL string, tokens TokenSource, opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type summaryResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Profile  struct {
		ProfileName string `json:"profileName"`
	} `json:"profile"`
}

// Resolve performs one authenticated summary lookup. A 404 means the
// author does not exist (forum.ErrNotFound); exceeding the deadline is
// forum.ErrUpstreamTimeout; any other non-2xx reply surfaces as an
// UpstreamError carrying the upstream status and body.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (forum.Author, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return forum.Author{}, fmt.Errorf("service token: %w", err)
	}
	url := r.baseURL + "/users/summary-info?user_id=" + strconv.FormatInt(userID, 10)
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return forum.Author{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return forum.Author{}, forum.ErrUpstreamTimeout
		}
		return forum.Author{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return forum.Author{}, forum.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return forum.Author{}, &forum.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return forum.Author{}, fmt.Errorf("decode summary-info: %w", err)
	}
	return forum.Author{
		ID:    payload.ID,
		Name:  payload.Username,
		Email: payload.Email,
		Role:  claims.RoleFromAuthority("ROLE_" + payload.Profile.ProfileName),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
