package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrNoAccessToken is returned when an auth endpoint answers 2xx without a token.
var ErrNoAccessToken = errors.New("backend response did not contain an access token")

func (c *Client) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	return c.issue(ctx, "/auth/login", creds)
}

func (c *Client) Register(ctx context.Context, reg Registration) (TokenPair, error) {
	return c.issue(ctx, "/auth/register", reg)
}

func (c *Client) issue(ctx context.Context, path string, body any) (TokenPair, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: body}, nil)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := resp.DecodeJSON(&pair); err != nil {
		return TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return TokenPair{}, ErrNoAccessToken
	}
	pair.IssuedAt = time.Now().UTC()
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Backends that do not
// rotate refresh tokens keep the old one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		JSON:   map[string]string{"refresh_token": refreshToken},
	}, nil)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := resp.DecodeJSON(&pair); err != nil {
		return TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return TokenPair{}, ErrNoAccessToken
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	pair.IssuedAt = time.Now().UTC()
	return pair, nil
}

// Logout revokes the refresh token. Failures are logged and returned, callers
// clear local cookies regardless.
func (c *Client) Logout(ctx context.Context, tokens TokenStore) error {
	pair := tokens.Tokens()
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		JSON:   map[string]string{"refresh_token": pair.RefreshToken},
	}, tokens)
	if err != nil {
		c.logger.Warn("Backend logout failed", zap.Error(err))
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/password/forgot",
		JSON:   map[string]string{"email": email},
	}, nil)
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/password/reset",
		JSON:   map[string]string{"token": token, "password": password},
	}, nil)
	return err
}

// Health calls the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health"}, nil)
	return err
}
