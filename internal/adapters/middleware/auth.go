package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
	"github.com/ddlabs/dd-mcp-service/pkg/contextkeys"
)

const (
	authorizationHeaderName = "Authorization"
	clientIDHeaderName      = "X-Dd-Client-Id"
	bearerPrefix            = "Bearer "
)

// CredentialsAuthMiddleware creates a middleware that resolves the caller's
// bearer token and upstream client ID and injects them into the request
// context as domain.Credentials.
// Precedence is explicit: a request header always overrides the configured
// fallback; the fallback exists for local development and MCP proxy use.
// Missing/malformed bearer or missing client ID yields a 401 before any
// upstream call can be made.
func CredentialsAuthMiddleware(cfgProvider config.Provider, logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := cfgProvider.Get()

			token, errDetail := resolveBearer(r.Header.Get(authorizationHeaderName), cfg.Auth.FallbackToken)
			if errDetail != "" {
				logger.Warn(r.Context(), "Bearer authentication failed", "path", r.URL.Path, "reason", errDetail)
				domain.NewErrorResponse(domain.ErrUnauthorized, errDetail).WriteJSON(w, http.StatusUnauthorized)
				return
			}

			clientID := resolveClientID(r.Header.Get(clientIDHeaderName), cfg.Auth.FallbackClientID)
			if clientID == "" {
				logger.Warn(r.Context(), "Client ID resolution failed", "path", r.URL.Path)
				domain.NewErrorResponse(domain.ErrUnauthorized, "Missing x-dd-client-id").WriteJSON(w, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.BearerTokenKey, token)
			ctx = context.WithValue(ctx, contextkeys.ClientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveBearer extracts the raw token from an "Bearer X" authorization value,
// falling back to the configured token when the header is empty. It returns
// the token and an empty detail string on success, or an empty token and the
// 401 detail on failure.
func resolveBearer(headerValue, fallbackToken string) (string, string) {
	auth := strings.TrimSpace(headerValue)
	if auth == "" && fallbackToken != "" {
		auth = fallbackToken
		if !strings.HasPrefix(auth, bearerPrefix) {
			auth = bearerPrefix + auth
		}
	}
	if auth == "" || !strings.HasPrefix(auth, bearerPrefix) {
		return "", "Missing Bearer"
	}

	token := strings.TrimSpace(auth[len(bearerPrefix):])
	if token == "" {
		return "", "Invalid Bearer format"
	}
	return token, ""
}

// resolveClientID applies the header-over-fallback precedence for the
// upstream client ID.
func resolveClientID(headerValue, fallbackClientID string) string {
	if headerValue != "" {
		return headerValue
	}
	return fallbackClientID
}

// CredentialsFromContext retrieves the credentials injected by
// CredentialsAuthMiddleware.
func CredentialsFromContext(ctx context.Context) (domain.Credentials, bool) {
	token, okToken := ctx.Value(contextkeys.BearerTokenKey).(string)
	clientID, okClientID := ctx.Value(contextkeys.ClientIDKey).(string)
	if !okToken || !okClientID || token == "" || clientID == "" {
		return domain.Credentials{}, false
	}
	return domain.Credentials{Token: token, ClientID: clientID}, true
}
