package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

func newTestProtocolService(upstream domain.UpstreamClient) *ProtocolService {
	return NewProtocolService(nopLogger{}, newTestIdentityService(newFakeCache(), upstream), upstream)
}

func TestList_WithoutSections(t *testing.T) {
	upstream := &mockUpstream{
		listProtocolsFn: func(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
			assert.Equal(t, "user-1", userID)
			return []domain.ProtocolRecord{{"id": "p1", "name": "Sleep"}}, nil
		},
	}
	svc := newTestProtocolService(upstream)

	protocols, err := svc.List(context.Background(), testCredentials(), false)
	require.NoError(t, err)
	require.Len(t, protocols, 1)
	assert.Zero(t, upstream.listProtocolSectionCalls)
	assert.NotContains(t, protocols[0], "sections")
}

func TestList_WithSections(t *testing.T) {
	upstream := &mockUpstream{
		listProtocolsFn: func(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
			return []domain.ProtocolRecord{
				{"id": "p1", "name": "Sleep"},
				{"id": "p2", "name": "Exercise"},
			}, nil
		},
		listProtocolSectionsFn: func(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error) {
			return json.RawMessage(`[{"title":"` + protocolID + `-s1"}]`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	protocols, err := svc.List(context.Background(), testCredentials(), true)
	require.NoError(t, err)
	require.Len(t, protocols, 2)
	assert.Equal(t, 2, upstream.listProtocolSectionCalls)
	assert.Contains(t, protocols[0], "sections")
	assert.Contains(t, protocols[1], "sections")
}

func TestList_SectionFailureDegradesThatProtocolOnly(t *testing.T) {
	upstream := &mockUpstream{
		listProtocolsFn: func(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
			return []domain.ProtocolRecord{
				{"id": "p1"},
				{"id": "p2"},
			}, nil
		},
		listProtocolSectionsFn: func(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error) {
			if protocolID == "p1" {
				return nil, &domain.UpstreamStatusError{Endpoint: "/user-health/user-1/protocols/p1/sections", StatusCode: 500, Body: "{}"}
			}
			return json.RawMessage(`[]`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	protocols, err := svc.List(context.Background(), testCredentials(), true)
	require.NoError(t, err)
	require.Len(t, protocols, 2)

	assert.Contains(t, protocols[0], "sections_error")
	assert.NotContains(t, protocols[0], "sections")
	assert.Contains(t, protocols[1], "sections")
	assert.NotContains(t, protocols[1], "sections_error")
}

func TestList_ProtocolWithoutIDSkipsSectionFetch(t *testing.T) {
	upstream := &mockUpstream{
		listProtocolsFn: func(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
			return []domain.ProtocolRecord{{"name": "orphan"}}, nil
		},
	}
	svc := newTestProtocolService(upstream)

	protocols, err := svc.List(context.Background(), testCredentials(), true)
	require.NoError(t, err)
	require.Len(t, protocols, 1)
	assert.Zero(t, upstream.listProtocolSectionCalls)
}

func TestCreate_DefaultsStatusToDraft(t *testing.T) {
	var sentPayload map[string]any
	upstream := &mockUpstream{
		createProtocolFn: func(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
			sentPayload = payload
			return json.RawMessage(`{"id":"p1"}`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	original := map[string]any{"name": "Sleep"}
	_, err := svc.Create(context.Background(), testCredentials(), original)
	require.NoError(t, err)
	assert.Equal(t, "Draft", sentPayload["status"])
	assert.NotContains(t, original, "status", "the caller's payload is not mutated")
}

func TestCreate_PreservesExplicitStatus(t *testing.T) {
	var sentPayload map[string]any
	upstream := &mockUpstream{
		createProtocolFn: func(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
			sentPayload = payload
			return json.RawMessage(`{"id":"p1"}`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	_, err := svc.Create(context.Background(), testCredentials(), map[string]any{"name": "Sleep", "status": "Active"})
	require.NoError(t, err)
	assert.Equal(t, "Active", sentPayload["status"])
}

func TestCreateSection_DefaultsStatusToDraft(t *testing.T) {
	var sentPayload map[string]any
	var sentProtocolID string
	upstream := &mockUpstream{
		createProtocolSectionFn: func(ctx context.Context, creds domain.Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error) {
			sentProtocolID = protocolID
			sentPayload = payload
			return json.RawMessage(`{"id":"s1"}`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	_, err := svc.CreateSection(context.Background(), testCredentials(), "p1", map[string]any{"title": "Week 1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", sentProtocolID)
	assert.Equal(t, "Draft", sentPayload["status"])
}

func TestCreate_UpstreamFailurePropagates(t *testing.T) {
	upstream := &mockUpstream{
		createProtocolFn: func(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
			return nil, &domain.UpstreamStatusError{Endpoint: "/user-health/user-1/protocols", StatusCode: 422, Body: `{"detail":"bad"}`}
		},
	}
	svc := newTestProtocolService(upstream)

	_, err := svc.Create(context.Background(), testCredentials(), map[string]any{"name": "Sleep"})
	var statusErr *domain.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 422, statusErr.StatusCode)
}

func TestCreate_NilPayloadStillGetsStatus(t *testing.T) {
	var sentPayload map[string]any
	upstream := &mockUpstream{
		createProtocolFn: func(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
			sentPayload = payload
			return json.RawMessage(`{}`), nil
		},
	}
	svc := newTestProtocolService(upstream)

	_, err := svc.Create(context.Background(), testCredentials(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Draft", sentPayload["status"])
}
