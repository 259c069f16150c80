package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// draftStatus is defaulted into create payloads that carry no status.
const draftStatus = "Draft"

// ProtocolService lists and creates user protocols against the upstream
// service, optionally expanding each protocol with its sections.
type ProtocolService struct {
	logger   domain.Logger
	identity *IdentityService
	upstream domain.UpstreamClient
}

// NewProtocolService creates a new ProtocolService.
func NewProtocolService(logger domain.Logger, identity *IdentityService, upstream domain.UpstreamClient) *ProtocolService {
	if logger == nil {
		panic("logger is nil in NewProtocolService")
	}
	if identity == nil {
		panic("identity service is nil in NewProtocolService")
	}
	if upstream == nil {
		panic("upstream client is nil in NewProtocolService")
	}
	return &ProtocolService{
		logger:   logger,
		identity: identity,
		upstream: upstream,
	}
}

// List fetches the user's protocol records. When includeSections is set, each
// protocol with a non-empty id is augmented with a `sections` key; a failed
// section fetch (any error) degrades to a `sections_error` key on that record
// while the other protocols remain untouched.
func (s *ProtocolService) List(ctx context.Context, creds domain.Credentials, includeSections bool) ([]domain.ProtocolRecord, error) {
	userID, err := s.identity.ResolveUserID(ctx, creds)
	if err != nil {
		return nil, err
	}

	protocols, err := s.upstream.ListProtocols(ctx, creds, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user protocols: %w", err)
	}
	if !includeSections {
		return protocols, nil
	}

	results := make([]domain.ProtocolRecord, 0, len(protocols))
	for _, protocol := range protocols {
		record := maps.Clone(protocol)
		if protocolID, ok := protocol["id"].(string); ok && protocolID != "" {
			sections, err := s.upstream.ListProtocolSections(ctx, creds, userID, protocolID)
			if err != nil {
				s.logger.Warn(ctx, "Section fetch degraded for protocol",
					"protocol_id", protocolID, "error", err.Error())
				record["sections_error"] = err.Error()
			} else {
				record["sections"] = sections
			}
		}
		results = append(results, record)
	}
	return results, nil
}

// Create POSTs a new protocol for the user, defaulting a missing `status`
// field to "Draft". The upstream response body is logged before a non-2xx
// failure propagates.
func (s *ProtocolService) Create(ctx context.Context, creds domain.Credentials, payload map[string]any) (json.RawMessage, error) {
	userID, err := s.identity.ResolveUserID(ctx, creds)
	if err != nil {
		return nil, err
	}

	payload = withDefaultStatus(payload)
	created, err := s.upstream.CreateProtocol(ctx, creds, userID, payload)
	if err != nil {
		s.logCreateFailure(ctx, "protocol", err)
		return nil, fmt.Errorf("failed to create protocol: %w", err)
	}
	return created, nil
}

// CreateSection POSTs a new section under an existing protocol, with the same
// `status` defaulting and failure logging as Create.
func (s *ProtocolService) CreateSection(ctx context.Context, creds domain.Credentials, protocolID string, payload map[string]any) (json.RawMessage, error) {
	userID, err := s.identity.ResolveUserID(ctx, creds)
	if err != nil {
		return nil, err
	}

	payload = withDefaultStatus(payload)
	created, err := s.upstream.CreateProtocolSection(ctx, creds, userID, protocolID, payload)
	if err != nil {
		s.logCreateFailure(ctx, "protocol section", err)
		return nil, fmt.Errorf("failed to create protocol section: %w", err)
	}
	return created, nil
}

func (s *ProtocolService) logCreateFailure(ctx context.Context, what string, err error) {
	var statusErr *domain.UpstreamStatusError
	if errors.As(err, &statusErr) {
		s.logger.Error(ctx, fmt.Sprintf("Error creating %s", what),
			"status_code", statusErr.StatusCode, "response_body", statusErr.Body)
	}
}

// withDefaultStatus returns a copy of payload with `status` set to "Draft"
// when the caller supplied none. A payload with `status` already present is
// sent unmodified.
func withDefaultStatus(payload map[string]any) map[string]any {
	if payload == nil {
		payload = map[string]any{}
	} else {
		payload = maps.Clone(payload)
	}
	if _, ok := payload["status"]; !ok {
		payload["status"] = draftStatus
	}
	return payload
}
