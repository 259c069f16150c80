package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/metrics"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
	"github.com/ddlabs/dd-mcp-service/pkg/rediskeys"
)

const defaultCategoryCacheTTL = 24 * time.Hour

// CategoryNotFoundError indicates no biomarker category matched the requested
// name. This is a local validation failure; no upstream call failed.
type CategoryNotFoundError struct {
	Name string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category '%s' not found", e.Name)
}

// CategoryService resolves human-readable biomarker category names to
// category IDs, backed by a cached full category listing.
type CategoryService struct {
	logger   domain.Logger
	config   config.Provider
	cache    domain.CacheStore
	upstream domain.UpstreamClient
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(logger domain.Logger, cfgProvider config.Provider, cache domain.CacheStore, upstream domain.UpstreamClient) *CategoryService {
	if logger == nil {
		panic("logger is nil in NewCategoryService")
	}
	if cfgProvider == nil {
		panic("config provider is nil in NewCategoryService")
	}
	if cache == nil {
		panic("cache store is nil in NewCategoryService")
	}
	if upstream == nil {
		panic("upstream client is nil in NewCategoryService")
	}
	return &CategoryService{
		logger:   logger,
		config:   cfgProvider,
		cache:    cache,
		upstream: upstream,
	}
}

// ListCategories returns the full biomarker category listing, from cache when
// available, otherwise from upstream (caching the result).
func (s *CategoryService) ListCategories(ctx context.Context, creds domain.Credentials) ([]domain.BiomarkerCategory, error) {
	cacheKey := rediskeys.BiomarkerCategoriesKey()

	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var categories []domain.BiomarkerCategory
		if unmarshalErr := json.Unmarshal([]byte(cached), &categories); unmarshalErr == nil {
			metrics.IncrementCacheHit("categories")
			return categories, nil
		}
		// Corrupt cache entry; treat as a miss and refetch.
		s.logger.Warn(ctx, "Cached category listing is unreadable, refetching", "cache_key", cacheKey)
	} else if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Error(ctx, "Error retrieving category listing from cache", "cache_key", cacheKey, "error", err.Error())
	}
	metrics.IncrementCacheMiss("categories")

	categories, err := s.upstream.ListBiomarkerCategories(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch biomarker categories: %w", err)
	}

	serialized, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize category listing for caching: %w", err)
	}
	if err := s.cache.Set(ctx, cacheKey, string(serialized), s.cacheTTL()); err != nil {
		// Non-fatal for caching; the listing is still usable.
		s.logger.Error(ctx, "Failed to cache category listing", "cache_key", cacheKey, "error", err.Error())
	}

	return categories, nil
}

// ResolveCategoryID returns the ID of the category whose name matches the
// given name case-insensitively. Matching is exact after case folding; no
// partial or fuzzy matching.
func (s *CategoryService) ResolveCategoryID(ctx context.Context, name string, creds domain.Credentials) (string, error) {
	categories, err := s.ListCategories(ctx, creds)
	if err != nil {
		return "", err
	}

	for _, category := range categories {
		if strings.EqualFold(category.Name, name) {
			return category.ID, nil
		}
	}
	return "", &CategoryNotFoundError{Name: name}
}

func (s *CategoryService) cacheTTL() time.Duration {
	if seconds := s.config.Get().Auth.CategoryCacheTTLSeconds; seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultCategoryCacheTTL
}
