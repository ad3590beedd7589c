package services

import (
	"errors"
	"strings"
	"time"
)

// Timeouts and delays per environment. Production backends may be cold-starting,
// so attempts there get a much longer bound.
const (
	ProductionTimeout  = 70 * time.Second
	DevelopmentTimeout = 30 * time.Second
	ProductionDelay    = 3 * time.Second
	OAuthExchangeDelay = 1500 * time.Millisecond
)

// authTerminalMarkers are substrings that mark a failure as an auth or OAuth
// rejection. A consumed authorization code must never be replayed.
var authTerminalMarkers = []string{"invalid_client", "invalid_grant", "OAuth", "Unauthorized"}

// RetryPolicy decides how many attempts a request gets and how long to wait between them.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
	Delay       time.Duration
	OAuthDelay  time.Duration

	// NonRetryable short-circuits retries for matching errors, whatever their shape.
	NonRetryable func(error) bool
}

// DefaultRetryPolicy returns the two-attempt policy for the given environment.
func DefaultRetryPolicy(production bool) RetryPolicy {
	p := RetryPolicy{
		MaxAttempts:  2,
		Timeout:      DevelopmentTimeout,
		OAuthDelay:   OAuthExchangeDelay,
		NonRetryable: IsAuthTerminal,
	}
	if production {
		p.Timeout = ProductionTimeout
		p.Delay = ProductionDelay
	}
	return p
}

// ShouldRetry reports whether err may be retried.
//
// Transport failures and 5xx responses are retried; 4xx responses, malformed
// requests and auth-terminal failures are not.
func (p RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if p.NonRetryable != nil && p.NonRetryable(err) {
		return false
	}

	var perm permanent
	if errors.As(err, &perm) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

// DelayFor returns the wait before the next attempt.
func (p RetryPolicy) DelayFor(oauthExchange bool) time.Duration {
	if oauthExchange {
		return p.OAuthDelay
	}
	return p.Delay
}

// IsAuthTerminal reports whether err's message marks an auth or OAuth rejection.
func IsAuthTerminal(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range authTerminalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// permanent marks an error that repeating the same request cannot fix.
type permanent struct{ error }

func (p permanent) Unwrap() error { return p.error }
