package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// BiomarkerService fetches account biomarkers, either for one named category
// or aggregated across every category with per-category error isolation.
type BiomarkerService struct {
	logger     domain.Logger
	categories *CategoryService
	upstream   domain.UpstreamClient
}

// NewBiomarkerService creates a new BiomarkerService.
func NewBiomarkerService(logger domain.Logger, categories *CategoryService, upstream domain.UpstreamClient) *BiomarkerService {
	if logger == nil {
		panic("logger is nil in NewBiomarkerService")
	}
	if categories == nil {
		panic("category service is nil in NewBiomarkerService")
	}
	if upstream == nil {
		panic("upstream client is nil in NewBiomarkerService")
	}
	return &BiomarkerService{
		logger:     logger,
		categories: categories,
		upstream:   upstream,
	}
}

// GetByCategoryName resolves the category name to its ID and fetches the
// biomarkers for it. Upstream failures propagate; an unknown name yields a
// CategoryNotFoundError without any biomarker call.
func (s *BiomarkerService) GetByCategoryName(ctx context.Context, creds domain.Credentials, name string) (json.RawMessage, error) {
	categoryID, err := s.categories.ResolveCategoryID(ctx, name, creds)
	if err != nil {
		return nil, err
	}
	return s.fetchBiomarkers(ctx, creds, categoryID)
}

// GetAll lists every category and fetches the biomarkers of each one. Any
// per-category failure (HTTP status or transport alike) is recorded as an
// {"error": ...} entry under that category's name; other categories still
// return normally. The aggregate fails only if the category listing itself
// cannot be obtained.
func (s *BiomarkerService) GetAll(ctx context.Context, creds domain.Credentials) (map[string]any, error) {
	categories, err := s.categories.ListCategories(ctx, creds)
	if err != nil {
		return nil, err
	}

	results := make(map[string]any, len(categories))
	for _, category := range categories {
		payload, err := s.fetchBiomarkers(ctx, creds, category.ID)
		if err != nil {
			s.logger.Warn(ctx, "Biomarker fetch degraded for category",
				"category", category.Name, "error", err.Error())
			results[category.Name] = map[string]string{"error": err.Error()}
			continue
		}
		results[category.Name] = payload
	}
	return results, nil
}

func (s *BiomarkerService) fetchBiomarkers(ctx context.Context, creds domain.Credentials, categoryID string) (json.RawMessage, error) {
	payload, err := s.upstream.GetBiomarkers(ctx, creds, categoryID)
	if err != nil {
		var statusErr *domain.UpstreamStatusError
		if errors.As(err, &statusErr) {
			s.logger.Error(ctx, "Upstream biomarker fetch failed",
				"category_id", categoryID, "status_code", statusErr.StatusCode, "response_body", statusErr.Body)
		}
		return nil, fmt.Errorf("failed to fetch biomarkers for category %s: %w", categoryID, err)
	}
	return payload, nil
}
