package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/metrics"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

const (
	authorizationHeader = "Authorization"
	clientIDHeader      = "x-dd-client-id"

	// Error bodies are captured for logging; cap how much we keep.
	maxErrorBodyBytes = 64 << 10
	maxBodyBytes      = 8 << 20
)

// Client implements domain.UpstreamClient against the Don't Die REST API.
// Non-2xx responses become *domain.UpstreamStatusError; transport failures
// are returned as wrapped errors so call sites can tell the two apart.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     domain.Logger
}

// NewClient creates a new upstream client from configuration.
func NewClient(cfgProvider config.Provider, logger domain.Logger) *Client {
	appCfg := cfgProvider.Get()

	timeout := 30 * time.Second
	if appCfg.Upstream.TimeoutSeconds > 0 {
		timeout = time.Duration(appCfg.Upstream.TimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(appCfg.Upstream.BaseURL, "/"),
		logger:  logger,
	}
}

// GetAccount fetches the account record for the credential owner.
func (c *Client) GetAccount(ctx context.Context, creds domain.Credentials) (json.RawMessage, error) {
	return c.get(ctx, creds, "account", "/account", nil)
}

// GetScore fetches the score payload for a single calendar date.
func (c *Client) GetScore(ctx context.Context, creds domain.Credentials, userID, date string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("date", date)
	return c.get(ctx, creds, "score", fmt.Sprintf("/user-profile/%s/score-v2", url.PathEscape(userID)), query)
}

// ListBiomarkerCategories fetches the full biomarker category listing.
func (c *Client) ListBiomarkerCategories(ctx context.Context, creds domain.Credentials) ([]domain.BiomarkerCategory, error) {
	raw, err := c.get(ctx, creds, "biomarker_categories", "/system/biomarker-categories", nil)
	if err != nil {
		return nil, err
	}
	var categories []domain.BiomarkerCategory
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode biomarker category listing: %w", err)
	}
	return categories, nil
}

// GetBiomarkers fetches the account biomarkers filtered by category ID.
func (c *Client) GetBiomarkers(ctx context.Context, creds domain.Credentials, categoryID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("categoryId", categoryID)
	return c.get(ctx, creds, "biomarkers", "/account/biomarkers", query)
}

// ListProtocols fetches the protocol records for a user.
func (c *Client) ListProtocols(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
	raw, err := c.get(ctx, creds, "protocols", fmt.Sprintf("/user-health/%s/protocols", url.PathEscape(userID)), nil)
	if err != nil {
		return nil, err
	}
	var protocols []domain.ProtocolRecord
	if err := json.Unmarshal(raw, &protocols); err != nil {
		return nil, fmt.Errorf("failed to decode protocol listing: %w", err)
	}
	return protocols, nil
}

// ListProtocolSections fetches the sections of one protocol.
func (c *Client) ListProtocolSections(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error) {
	path := fmt.Sprintf("/user-health/%s/protocols/%s/sections", url.PathEscape(userID), url.PathEscape(protocolID))
	return c.get(ctx, creds, "protocol_sections", path, nil)
}

// CreateProtocol POSTs a new protocol for a user.
func (c *Client) CreateProtocol(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
	return c.post(ctx, creds, "create_protocol", fmt.Sprintf("/user-health/%s/protocols", url.PathEscape(userID)), payload)
}

// CreateProtocolSection POSTs a new section under an existing protocol.
func (c *Client) CreateProtocolSection(ctx context.Context, creds domain.Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error) {
	path := fmt.Sprintf("/user-health/%s/protocols/%s/sections", url.PathEscape(userID), url.PathEscape(protocolID))
	return c.post(ctx, creds, "create_protocol_section", path, payload)
}

func (c *Client) get(ctx context.Context, creds domain.Credentials, endpoint, path string, query url.Values) (json.RawMessage, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request for %s: %w", endpoint, err)
	}
	c.setAuthHeaders(req, creds)

	return c.do(req, endpoint)
}

func (c *Client) post(ctx context.Context, creds domain.Credentials, endpoint, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request for %s: %w", endpoint, err)
	}
	c.setAuthHeaders(req, creds)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint)
}

func (c *Client) setAuthHeaders(req *http.Request, creds domain.Credentials) {
	req.Header.Set(authorizationHeader, "Bearer "+creds.Token)
	req.Header.Set(clientIDHeader, creds.ClientID)
}

func (c *Client) do(req *http.Request, endpoint string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncrementUpstreamRequests(endpoint, metrics.OutcomeTransportError)
		return nil, fmt.Errorf("upstream request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if readErr != nil {
			body = []byte(fmt.Sprintf("<failed to read error body: %v>", readErr))
		}
		metrics.IncrementUpstreamRequests(endpoint, metrics.OutcomeStatusError)
		c.logger.Debug(req.Context(), "Upstream returned non-2xx status",
			"endpoint", endpoint, "status_code", resp.StatusCode)
		return nil, &domain.UpstreamStatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.IncrementUpstreamRequests(endpoint, metrics.OutcomeTransportError)
		return nil, fmt.Errorf("failed to read upstream response body for %s: %w", endpoint, err)
	}

	metrics.IncrementUpstreamRequests(endpoint, metrics.OutcomeSuccess)
	return json.RawMessage(body), nil
}
