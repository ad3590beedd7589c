package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrOAuthRejected    = fmt.Errorf("oauth rejected")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrClientRequest      = fmt.Errorf("request rejected")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrWishlistNotFound   = fmt.Errorf("wishlist not found")
	ErrItemNotFound       = fmt.Errorf("item not found")

	// Storage and cache errors
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrCacheClosed        = fmt.Errorf("cache closed")

	// Public action errors
	ErrActionNotAllowed = fmt.Errorf("action not allowed")
	ErrInvalidAmount    = fmt.Errorf("invalid contribution amount")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
