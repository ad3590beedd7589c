// Package services implements the HTTP client for the wishlist backend.
//
// # Client
//
// [Client.Do] performs one logical request: it attaches the bearer credential from
// a [Credentials] source when one exists, bounds every attempt with its own
// timeout and decodes 2xx JSON bodies into the caller's result.
//
// # Retry Policy
//
// [RetryPolicy] is an explicit value so it can be tested without a network:
//   - at most two attempts
//   - 30s per attempt in development, 70s in production (cold starts)
//   - no delay in development, 3s in production, 1.5s before replaying an OAuth code exchange
//   - transport failures and 5xx are retried, 4xx never are
//   - failures mentioning invalid_client, invalid_grant, OAuth or Unauthorized are terminal
//
// When retries run out the error wraps [shared.ErrServiceUnavailable] with a
// message that depends on the environment.
//
// # Error Handling
//
// Non-2xx responses become [*APIError]. The backend's detail field is either a
// string or a list of {msg} entries; both are flattened into [APIError.Message],
// with the HTTP status text as the fallback. [errors.Is] maps the status onto
// shared sentinels:
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrClientRequest] : other 4xx
//   - [shared.ErrAPIRequest] : 5xx and undecodable bodies
//
// # Endpoints
//
// Typed methods cover auth (login, register, me, Google OAuth), owner wishlist
// and item CRUD, the public view with reserve/unreserve/contribute, product
// metadata scraping and the health check. [PublicWishlistKey] and friends return
// the request descriptors used as cache keys.
package services
