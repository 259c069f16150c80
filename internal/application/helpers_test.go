package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// nopLogger discards everything. Fatal does not exit so tests can exercise
// failure paths safely.
type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, fields ...any) {}
func (nopLogger) Fatal(ctx context.Context, msg string, fields ...any) {}
func (l nopLogger) With(fields ...any) domain.Logger                   { return l }

// staticProvider serves a fixed configuration.
type staticProvider struct {
	cfg *config.Config
}

func (p *staticProvider) Get() *config.Config { return p.cfg }

func testConfigProvider() config.Provider {
	return &staticProvider{cfg: &config.Config{
		Auth: config.AuthConfig{
			IdentityCacheTTLSeconds: 3600,
			CategoryCacheTTLSeconds: 3600,
		},
		App: config.AppConfig{ServiceName: "dd-mcp-test"},
	}}
}

// fakeCache is an in-memory CacheStore that records writes and their TTLs.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return "", c.getErr
	}
	value, ok := c.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return value, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

// mockUpstream lets each test plug in per-method behavior and counts calls.
type mockUpstream struct {
	getAccountFn             func(ctx context.Context, creds domain.Credentials) (json.RawMessage, error)
	getScoreFn               func(ctx context.Context, creds domain.Credentials, userID, date string) (json.RawMessage, error)
	listCategoriesFn         func(ctx context.Context, creds domain.Credentials) ([]domain.BiomarkerCategory, error)
	getBiomarkersFn          func(ctx context.Context, creds domain.Credentials, categoryID string) (json.RawMessage, error)
	listProtocolsFn          func(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error)
	listProtocolSectionsFn   func(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error)
	createProtocolFn         func(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error)
	createProtocolSectionFn  func(ctx context.Context, creds domain.Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error)
	getAccountCalls          int
	getScoreCalls            int
	listCategoriesCalls      int
	getBiomarkersCalls       int
	listProtocolsCalls       int
	listProtocolSectionCalls int
	createProtocolCalls      int
	createSectionCalls       int
}

func (m *mockUpstream) GetAccount(ctx context.Context, creds domain.Credentials) (json.RawMessage, error) {
	m.getAccountCalls++
	if m.getAccountFn == nil {
		return json.RawMessage(`{"id":"user-1"}`), nil
	}
	return m.getAccountFn(ctx, creds)
}

func (m *mockUpstream) GetScore(ctx context.Context, creds domain.Credentials, userID, date string) (json.RawMessage, error) {
	m.getScoreCalls++
	if m.getScoreFn == nil {
		return json.RawMessage(`{"score":80}`), nil
	}
	return m.getScoreFn(ctx, creds, userID, date)
}

func (m *mockUpstream) ListBiomarkerCategories(ctx context.Context, creds domain.Credentials) ([]domain.BiomarkerCategory, error) {
	m.listCategoriesCalls++
	if m.listCategoriesFn == nil {
		return []domain.BiomarkerCategory{
			{ID: "cat-1", Name: "Measurements"},
			{ID: "cat-2", Name: "Capabilities"},
		}, nil
	}
	return m.listCategoriesFn(ctx, creds)
}

func (m *mockUpstream) GetBiomarkers(ctx context.Context, creds domain.Credentials, categoryID string) (json.RawMessage, error) {
	m.getBiomarkersCalls++
	if m.getBiomarkersFn == nil {
		return json.RawMessage(`[]`), nil
	}
	return m.getBiomarkersFn(ctx, creds, categoryID)
}

func (m *mockUpstream) ListProtocols(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
	m.listProtocolsCalls++
	if m.listProtocolsFn == nil {
		return nil, nil
	}
	return m.listProtocolsFn(ctx, creds, userID)
}

func (m *mockUpstream) ListProtocolSections(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error) {
	m.listProtocolSectionCalls++
	if m.listProtocolSectionsFn == nil {
		return json.RawMessage(`[]`), nil
	}
	return m.listProtocolSectionsFn(ctx, creds, userID, protocolID)
}

func (m *mockUpstream) CreateProtocol(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
	m.createProtocolCalls++
	if m.createProtocolFn == nil {
		return json.RawMessage(`{"id":"proto-1"}`), nil
	}
	return m.createProtocolFn(ctx, creds, userID, payload)
}

func (m *mockUpstream) CreateProtocolSection(ctx context.Context, creds domain.Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error) {
	m.createSectionCalls++
	if m.createProtocolSectionFn == nil {
		return json.RawMessage(`{"id":"section-1"}`), nil
	}
	return m.createProtocolSectionFn(ctx, creds, userID, protocolID, payload)
}

func testCredentials() domain.Credentials {
	return domain.Credentials{Token: "test-token", ClientID: "test-client"}
}

func newTestIdentityService(cache domain.CacheStore, upstream domain.UpstreamClient) *IdentityService {
	return NewIdentityService(nopLogger{}, testConfigProvider(), cache, upstream)
}

func newTestCategoryService(cache domain.CacheStore, upstream domain.UpstreamClient) *CategoryService {
	return NewCategoryService(nopLogger{}, testConfigProvider(), cache, upstream)
}
