package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/metrics"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
	"github.com/ddlabs/dd-mcp-service/pkg/rediskeys"
)

const defaultIdentityCacheTTL = 24 * time.Hour

// IdentityService maps a caller's bearer token to the upstream account's user
// ID, caching the result. A cache hit is trusted without re-validation; a miss
// triggers exactly one upstream identity call. Concurrent misses for the same
// token are not de-duplicated; the duplicate work is accepted and the last
// write wins.
type IdentityService struct {
	logger   domain.Logger
	config   config.Provider
	cache    domain.CacheStore
	upstream domain.UpstreamClient
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(logger domain.Logger, cfgProvider config.Provider, cache domain.CacheStore, upstream domain.UpstreamClient) *IdentityService {
	if logger == nil {
		panic("logger is nil in NewIdentityService")
	}
	if cfgProvider == nil {
		panic("config provider is nil in NewIdentityService")
	}
	if cache == nil {
		panic("cache store is nil in NewIdentityService")
	}
	if upstream == nil {
		panic("upstream client is nil in NewIdentityService")
	}
	return &IdentityService{
		logger:   logger,
		config:   cfgProvider,
		cache:    cache,
		upstream: upstream,
	}
}

// ResolveUserID returns the upstream user ID for the given credentials.
// Upstream failures propagate to the caller; there is no cached fallback.
func (s *IdentityService) ResolveUserID(ctx context.Context, creds domain.Credentials) (string, error) {
	cacheKey := rediskeys.IdentityCacheKey(creds.Token)

	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		metrics.IncrementCacheHit("identity")
		s.logger.Debug(ctx, "Identity resolved from cache", "cache_key", cacheKey)
		return cached, nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		// Cache is unreliable or errored; fall through to the upstream call.
		s.logger.Error(ctx, "Error retrieving identity from cache", "cache_key", cacheKey, "error", err.Error())
	}
	metrics.IncrementCacheMiss("identity")

	raw, err := s.upstream.GetAccount(ctx, creds)
	if err != nil {
		var statusErr *domain.UpstreamStatusError
		if errors.As(err, &statusErr) {
			s.logger.Error(ctx, "Upstream identity lookup failed",
				"status_code", statusErr.StatusCode, "response_body", statusErr.Body)
		}
		return "", fmt.Errorf("identity resolution failed: %w", err)
	}

	var account struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return "", fmt.Errorf("failed to decode account response: %w", err)
	}
	if account.ID == "" {
		return "", errors.New("account response is missing the 'id' field")
	}

	if err := s.cache.Set(ctx, cacheKey, account.ID, s.cacheTTL()); err != nil {
		// Non-fatal for caching; proceed with the resolved ID.
		s.logger.Error(ctx, "Failed to cache resolved identity", "cache_key", cacheKey, "error", err.Error())
	}

	s.logger.Debug(ctx, "Identity resolved from upstream and cached", "cache_key", cacheKey, "user_id", account.ID)
	return account.ID, nil
}

func (s *IdentityService) cacheTTL() time.Duration {
	if seconds := s.config.Get().Auth.IdentityCacheTTLSeconds; seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultIdentityCacheTTL
}
