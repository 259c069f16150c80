package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, fields ...any) {}
func (nopLogger) Fatal(ctx context.Context, msg string, fields ...any) {}
func (l nopLogger) With(fields ...any) domain.Logger                   { return l }

type staticProvider struct {
	cfg *config.Config
}

func (p *staticProvider) Get() *config.Config { return p.cfg }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	pingErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return value, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return c.pingErr }

// stubUpstream serves canned data and counts every call so tests can assert
// the middleware short-circuits before anything upstream happens.
type stubUpstream struct {
	calls    int
	scoreFn  func(date string) (json.RawMessage, error)
	accounts json.RawMessage
}

func (s *stubUpstream) GetAccount(ctx context.Context, creds domain.Credentials) (json.RawMessage, error) {
	s.calls++
	if s.accounts != nil {
		return s.accounts, nil
	}
	return json.RawMessage(`{"id":"user-1"}`), nil
}

func (s *stubUpstream) GetScore(ctx context.Context, creds domain.Credentials, userID, date string) (json.RawMessage, error) {
	s.calls++
	if s.scoreFn != nil {
		return s.scoreFn(date)
	}
	return json.RawMessage(`{"score":80}`), nil
}

func (s *stubUpstream) ListBiomarkerCategories(ctx context.Context, creds domain.Credentials) ([]domain.BiomarkerCategory, error) {
	s.calls++
	return []domain.BiomarkerCategory{{ID: "cat-1", Name: "Measurements"}}, nil
}

func (s *stubUpstream) GetBiomarkers(ctx context.Context, creds domain.Credentials, categoryID string) (json.RawMessage, error) {
	s.calls++
	return json.RawMessage(`[{"name":"weight"}]`), nil
}

func (s *stubUpstream) ListProtocols(ctx context.Context, creds domain.Credentials, userID string) ([]domain.ProtocolRecord, error) {
	s.calls++
	return []domain.ProtocolRecord{{"id": "p1", "name": "Sleep"}}, nil
}

func (s *stubUpstream) ListProtocolSections(ctx context.Context, creds domain.Credentials, userID, protocolID string) (json.RawMessage, error) {
	s.calls++
	return json.RawMessage(`[]`), nil
}

func (s *stubUpstream) CreateProtocol(ctx context.Context, creds domain.Credentials, userID string, payload map[string]any) (json.RawMessage, error) {
	s.calls++
	return json.RawMessage(`{"id":"p1"}`), nil
}

func (s *stubUpstream) CreateProtocolSection(ctx context.Context, creds domain.Credentials, userID, protocolID string, payload map[string]any) (json.RawMessage, error) {
	s.calls++
	return json.RawMessage(`{"id":"s1"}`), nil
}

func newTestMux(t *testing.T, upstream domain.UpstreamClient, cache *fakeCache) *http.ServeMux {
	t.Helper()

	provider := &staticProvider{cfg: &config.Config{
		App: config.AppConfig{ServiceName: "dd-mcp-test"},
	}}
	log := nopLogger{}

	identity := application.NewIdentityService(log, provider, cache, upstream)
	categories := application.NewCategoryService(log, provider, cache, upstream)
	scores := application.NewScoreService(log, identity, upstream)
	biomarkers := application.NewBiomarkerService(log, categories, upstream)
	protocols := application.NewProtocolService(log, identity, upstream)

	mux := http.NewServeMux()
	NewRouter(log, provider, cache, scores, biomarkers, protocols).RegisterRoutes(context.Background(), mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target string, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer tok-123")
		req.Header.Set("X-Dd-Client-Id", "cli-456")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dd-mcp-test", resp.Service)
	assert.Empty(t, resp.Error)
}

func TestHealth_CacheDownStill200(t *testing.T) {
	cache := newFakeCache()
	cache.pingErr = assert.AnError
	mux := newTestMux(t, &stubUpstream{}, cache)

	rec := doRequest(mux, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.NotEmpty(t, resp.Error)
}

func TestGetDdScore_Unauthorized(t *testing.T) {
	upstream := &stubUpstream{}
	mux := newTestMux(t, upstream, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getDdScore?date=2025-03-10", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, upstream.calls, "a rejected request must never reach upstream")
}

func TestGetDdScore_SingleDate(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getDdScore?date=2025-03-10", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Contains(t, results, "2025-03-10")
}

func TestGetDdScore_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"no parameters", "/getDdScore"},
		{"date and range", "/getDdScore?date=2025-03-10&start_date=2025-03-01&end_date=2025-03-05"},
		{"start without end", "/getDdScore?start_date=2025-03-01"},
		{"reversed range", "/getDdScore?start_date=2025-03-05&end_date=2025-03-01"},
		{"zero days", "/getDdScore?date=2025-03-10&days=0"},
		{"non-integer days", "/getDdScore?date=2025-03-10&days=abc"},
		{"bad date format", "/getDdScore?date=10-03-2025"},
	}
	upstream := &stubUpstream{}
	mux := newTestMux(t, upstream, newFakeCache())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(mux, http.MethodGet, tc.target, "", true)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var resp domain.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, domain.ErrValidation, resp.Code)
			assert.NotEmpty(t, resp.Detail)
		})
	}
	assert.Zero(t, upstream.calls)
}

func TestGetDdScore_PerDateDegrade(t *testing.T) {
	upstream := &stubUpstream{
		scoreFn: func(date string) (json.RawMessage, error) {
			if date == "2025-03-02" {
				return nil, &domain.UpstreamStatusError{Endpoint: "score", StatusCode: 404, Body: "{}"}
			}
			return json.RawMessage(`{"score":80}`), nil
		},
	}
	mux := newTestMux(t, upstream, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getDdScore?start_date=2025-03-01&end_date=2025-03-03", "", true)
	require.Equal(t, http.StatusOK, rec.Code, "per-date failures do not fail the request")

	var results map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 3)

	var entry application.ScoreFetchError
	require.NoError(t, json.Unmarshal(results["2025-03-02"], &entry))
	assert.Equal(t, 404, entry.StatusCode)
	assert.Equal(t, "Failed to fetch score for 2025-03-02", entry.Error)
}

func TestGetMeasurements_HappyPath(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getMeasurements", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"weight"}]`, rec.Body.String())
}

func TestGetCapabilities_UnknownCategoryIs404(t *testing.T) {
	// The stub only lists "Measurements", so Capabilities cannot resolve.
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getCapabilities", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrNotFound, resp.Code)
}

func TestGetAllBiomarkers_KeyedByCategoryName(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getAllBiomarkers", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Contains(t, results, "Measurements")
}

func TestGetUserProtocols_BadIncludeSections(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getUserProtocols?include_sections=maybe", "", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetUserProtocols_HappyPath(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodGet, "/getUserProtocols?include_sections=true", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var protocols []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &protocols))
	require.Len(t, protocols, 1)
	assert.Contains(t, protocols[0], "sections")
}

func TestCreateUserProtocol_BadPayload(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodPost, "/createUserProtocol", "{not json", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserProtocol_HappyPath(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodPost, "/createUserProtocol", `{"name":"Sleep"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"p1"}`, rec.Body.String())
}

func TestCreateUserProtocolSection_MissingProtocolID(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodPost, "/createUserProtocolSection", `{"title":"Week 1"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateUserProtocolSection_HappyPath(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodPost, "/createUserProtocolSection?protocol_id=p1", `{"title":"Week 1"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"s1"}`, rec.Body.String())
}

func TestMethodMismatch(t *testing.T) {
	mux := newTestMux(t, &stubUpstream{}, newFakeCache())

	rec := doRequest(mux, http.MethodPost, "/getDdScore?date=2025-03-10", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
