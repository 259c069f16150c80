package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Credentials carries the caller-supplied bearer token and client ID sent on
// every upstream call. Both must be non-empty before any core operation runs;
// the auth middleware enforces this at the boundary.
type Credentials struct {
	Token    string
	ClientID string
}

// BiomarkerCategory is one entry of the upstream category listing.
type BiomarkerCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProtocolRecord is a protocol as returned by the upstream service. It is
// passed through untouched apart from the optional `sections` /
// `sections_error` keys added during section expansion, so a generic map is
// deliberate here.
type ProtocolRecord map[string]any

// UpstreamStatusError is returned when the upstream service answers with a
// non-2xx status. Call sites decide whether it is fatal for the request or
// degrades to a per-item error entry.
type UpstreamStatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
}

// UpstreamClient issues authenticated HTTP requests against the upstream
// health-tracking API. Every method returns *UpstreamStatusError for non-2xx
// responses; transport-level failures (connect, timeout) surface as ordinary
// wrapped errors instead.
type UpstreamClient interface {
	// GetAccount fetches the account record for the credential owner.
	GetAccount(ctx context.Context, creds Credentials) (json.RawMessage, error)

	// GetScore fetches the score payload for one calendar date (YYYY-MM-DD).
	GetScore(ctx context.Context, creds Credentials, userID, date string) (json.RawMessage, error)

	// ListBiomarkerCategories fetches the full {id, name} category listing.
	ListBiomarkerCategories(ctx context.Context, creds Credentials) ([]BiomarkerCategory, error)

	// GetBiomarkers fetches the account biomarkers filtered by category ID.
	GetBiomarkers(ctx context.Context, creds Credentials, categoryID string) (json.RawMessage, error)

	// ListProtocols fetches the protocol records for a user.
	ListProtocols(ctx context.Context, creds Credentials, userID string) ([]ProtocolRecord, error)

	// ListProtocolSections fetches the sections of one protocol.
	ListProtocolSections(ctx context.Context, creds Credentials, userID, protocolID string) (json.RawMessage, error)

	// CreateProtocol POSTs a new protocol for a user.
	CreateProtocol(ctx context.Context, creds Credentials, userID string, payload map[string]any) (json.RawMessage, error)

	// CreateProtocolSection POSTs a new section under an existing protocol.
	CreateProtocolSection(ctx context.Context, creds Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error)
}
