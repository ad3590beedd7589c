package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000/api"

const (
	unavailableProduction  = "the server is temporarily unavailable, please try again in a minute"
	unavailableDevelopment = "the server is not reachable, make sure the backend is running (uvicorn app.main:app --reload in backend/)"
)

// Credentials supplies the bearer credential for outgoing requests.
//
// [store.TokenStore] satisfies it.
type Credentials interface {
	GetCredential() (string, bool)
}

// ClientOptions configures a [Client]. The zero value is a development client
// with no credential source.
type ClientOptions struct {
	HTTPClient *http.Client
	Tokens     Credentials
	Production bool

	// Policy overrides [DefaultRetryPolicy] for the environment.
	Policy *RetryPolicy

	// RequestsPerSecond throttles outgoing attempts; zero disables throttling.
	RequestsPerSecond float64

	Logger *log.Logger
}

// Client performs JSON requests against the wishlist backend with a bounded
// timeout and retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     Credentials
	policy     RetryPolicy
	production bool
	limiter    *rate.Limiter
	logger     *log.Logger

	oauthMu  sync.Mutex
	oauthURL string
	oauthAt  time.Time
	now      func() time.Time
}

// NewClient creates a new [Client] for the API rooted at baseURL (".../api").
func NewClient(baseURL string, opts ClientOptions) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	policy := DefaultRetryPolicy(opts.Production)
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		policy:     policy,
		production: opts.Production,
		logger:     shared.WithLogger(opts.Logger, "component", "api"),
		now:        time.Now,
	}

	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// NewClientFromConfig builds a [Client] from the loaded configuration.
func NewClientFromConfig(cfg *shared.Config, tokens Credentials, logger *log.Logger) *Client {
	return NewClient(cfg.API.BaseURL, ClientOptions{
		Tokens:            tokens,
		Production:        cfg.IsProduction(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Logger:            logger,
	})
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Policy returns the retry policy in effect.
func (c *Client) Policy() RetryPolicy { return c.policy }

// Get performs a GET request and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Patch performs a PATCH request with body encoded as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request; body may be nil.
func (c *Client) Delete(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodDelete, path, body, result)
}

// Do performs one logical request, retrying per the client's [RetryPolicy].
//
// A 2xx response is decoded into result (an empty body leaves it untouched).
// Non-2xx responses become [*APIError]. Once retries are exhausted the error wraps
// [shared.ErrServiceUnavailable] with an environment-specific message.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = data
	}

	oauthExchange := isOAuthExchange(path, body)
	attempts := max(c.policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := c.attempt(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.policy.ShouldRetry(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := c.policy.DelayFor(oauthExchange)
		c.logger.Warn("request failed, retrying", "method", method, "path", path, "attempt", attempt, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	c.logger.Error("request failed", "method", method, "path", path, "error", lastErr)
	return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, c.unavailableMessage())
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return permanent{fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if credential, ok := c.tokens.GetCredential(); ok {
			(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s after %s", shared.ErrTimeout, method, path, c.policy.Timeout)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return permanent{fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)}
	}
	return nil
}

func (c *Client) unavailableMessage() string {
	if c.production {
		return unavailableProduction
	}
	return unavailableDevelopment
}

// isOAuthExchange reports a POST of an authorization code to an /auth/oauth/ endpoint.
func isOAuthExchange(path string, body any) bool {
	if !strings.Contains(path, "/auth/oauth/") {
		return false
	}
	switch b := body.(type) {
	case oauthCodeRequest:
		return b.Code != ""
	case *oauthCodeRequest:
		return b != nil && b.Code != ""
	case map[string]string:
		return b["code"] != ""
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
