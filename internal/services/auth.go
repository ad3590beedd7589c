package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
)

// GoogleURLTTL bounds how long a fetched authorization URL is reused.
const GoogleURLTTL = 10 * time.Minute

type credentialsRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type oauthCodeRequest struct {
	Code string `json:"code"`
}

type oauthURLResponse struct {
	URL string `json:"url"`
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.Post(ctx, "/auth/login", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its first credential. An empty name is omitted.
func (c *Client) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	body := credentialsRequest{Email: email, Password: password}
	if name != "" {
		body.Name = &name
	}

	var resp models.AuthResponse
	if err := c.Post(ctx, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me resolves the user behind the current credential.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GoogleAuthURL returns the Google authorization URL, reusing a fetched one for [GoogleURLTTL].
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	c.oauthMu.Lock()
	if c.oauthURL != "" && c.now().Sub(c.oauthAt) < GoogleURLTTL {
		u := c.oauthURL
		c.oauthMu.Unlock()
		return u, nil
	}
	c.oauthMu.Unlock()

	var resp oauthURLResponse
	if err := c.Get(ctx, "/auth/oauth/google", &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("%w: empty authorization url", shared.ErrAPIRequest)
	}

	c.oauthMu.Lock()
	c.oauthURL, c.oauthAt = resp.URL, c.now()
	c.oauthMu.Unlock()
	return resp.URL, nil
}

// ExchangeGoogleCode trades a single-use authorization code for a credential.
//
// The code is consumed by the first attempt that reaches Google, so auth-terminal
// failures are never retried.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (*models.AuthResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	var resp models.AuthResponse
	if err := c.Post(ctx, "/auth/oauth/google", oauthCodeRequest{Code: code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.Get(ctx, "/health", nil)
}
