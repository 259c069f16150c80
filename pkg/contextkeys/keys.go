package contextkeys

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for storing and retrieving a request ID.
	RequestIDKey contextKey = "request_id"

	// BearerTokenKey is the context key for the resolved bearer token
	// (request header or configured fallback).
	BearerTokenKey contextKey = "bearer_token"

	// ClientIDKey is the context key for the resolved upstream client ID
	// (request header or configured fallback).
	ClientIDKey contextKey = "client_id"

	// UserIDKey is the context key for the upstream user ID, once identity
	// resolution has run for the request.
	UserIDKey contextKey = "user_id"
)

// String makes contextKey satisfy fmt.Stringer to help with debugging/logging of keys themselves.
func (c contextKey) String() string {
	return string(c)
}
