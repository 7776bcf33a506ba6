package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/database"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/classify"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/enrichment"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/fusion"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/scoring"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

type stubCollector struct {
	records []*types.SourceRecord
}

func (s *stubCollector) Collect(_ context.Context, _ string) []*types.SourceRecord {
	return s.records
}

func newTestRouter(t *testing.T, records []*types.SourceRecord) (*gin.Engine, *classify.AliasTable) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Server.RateLimit.RequestsPerSecond = 0

	aliases := classify.NewAliasTable()
	engine := fusion.NewEngine(aliases, log)
	scorer := scoring.NewScorer(scoring.Tables{
		KnownCompanies:     []string{"google"},
		HighValueCountries: []string{"united states"},
	})
	enricher, err := enrichment.NewEnricher(&stubCollector{records: records}, engine, scorer, time.Minute, log)
	require.NoError(t, err)

	server := NewServer(cfg, database.NewMemoryStore(), enricher, aliases, log)
	return server.Router(), aliases
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestRootListsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w, body := doJSON(t, router, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Len(t, body["endpoints"], len(endpointList))
	assert.EqualValues(t, 0, body["totalVisits"])
}

func TestLogVisitIdentifiedCompany(t *testing.T) {
	router, _ := newTestRouter(t, []*types.SourceRecord{
		{Source: "geoip", Organization: "Google LLC", Country: "United States", City: "Mountain View"},
	})

	w, body := doJSON(t, router, http.MethodPost, "/log-visit", map[string]string{
		"referrer":  "https://news.ycombinator.com/item?id=1",
		"userAgent": "Mozilla/5.0",
	}, map[string]string{"X-Forwarded-For": "8.8.8.8, 10.0.0.1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["totalVisits"])

	visit, ok := body["visit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Google", visit["company"])
	assert.Equal(t, "Mountain View, United States", visit["location"])
	assert.Equal(t, string(types.DetectionOrgName), visit["detectionMethod"])
	assert.Equal(t, true, visit["isHighValue"])
}

func TestLogVisitPrivatePeer(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"referrer": ""}))
	req := httptest.NewRequest(http.MethodPost, "/log-visit", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:51442"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	visit := body["visit"].(map[string]any)
	assert.Equal(t, "Local Network", visit["company"])
	assert.Equal(t, string(types.DetectionLocal), visit["detectionMethod"])
	assert.EqualValues(t, 0, visit["leadScore"])
}

func TestLogVisitEmptyBodyStillLogs(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/log-visit", nil)
	req.RemoteAddr = "192.168.1.20:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestDashboardAggregates(t *testing.T) {
	router, _ := newTestRouter(t, []*types.SourceRecord{
		{Source: "geoip", Organization: "Google LLC", Country: "United States"},
	})

	for i := 0; i < 3; i++ {
		w, _ := doJSON(t, router, http.MethodPost, "/log-visit", map[string]string{},
			map[string]string{"X-Forwarded-For": "8.8.8.8"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := doJSON(t, router, http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["totalVisits"])
	assert.EqualValues(t, 1, body["uniqueCompanies"])

	companies := body["companies"].([]any)
	require.Len(t, companies, 1)
	first := companies[0].(map[string]any)
	assert.Equal(t, "Google", first["company"])
	assert.EqualValues(t, 3, first["visits"])

	recent := body["recentVisits"].([]any)
	assert.Len(t, recent, 3)
}

func TestLeadsFiltersByThreshold(t *testing.T) {
	router, _ := newTestRouter(t, []*types.SourceRecord{
		{Source: "geoip", Organization: "Google LLC", Country: "United States"},
	})

	// One identified lead and one local visit that must not appear.
	w, _ := doJSON(t, router, http.MethodPost, "/log-visit", nil,
		map[string]string{"X-Forwarded-For": "8.8.8.8"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, router, http.MethodPost, "/log-visit", nil,
		map[string]string{"X-Forwarded-For": "192.168.1.9"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodGet, "/leads", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	leads := body["leads"].([]any)
	require.Len(t, leads, 1)
	assert.Equal(t, "Google", leads[0].(map[string]any)["company"])
}

func TestAddMappingValidation(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w, body := doJSON(t, router, http.MethodPost, "/add-mapping",
		map[string]string{"vpnIdentifier": "p81"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = doJSON(t, router, http.MethodPost, "/add-mapping",
		map[string]string{"realCompany": "Kinto Join"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = doJSON(t, router, http.MethodPost, "/add-mapping",
		map[string]string{"vpnIdentifier": "p81", "realCompany": "Kinto Join"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestAddMappingAffectsNextVisit(t *testing.T) {
	router, _ := newTestRouter(t, []*types.SourceRecord{
		{Source: "geoip", Organization: "p81 Perimeter Networks", Country: "Israel"},
	})

	w, _ := doJSON(t, router, http.MethodPost, "/add-mapping",
		map[string]string{"vpnIdentifier": "p81", "realCompany": "Kinto Join"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodPost, "/log-visit", nil,
		map[string]string{"X-Forwarded-For": "198.51.100.7"})
	require.Equal(t, http.StatusOK, w.Code)

	visit := body["visit"].(map[string]any)
	assert.Equal(t, "Kinto Join", visit["company"])
	assert.Equal(t, string(types.DetectionAlias), visit["detectionMethod"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w, body := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "uptime_seconds")
	assert.EqualValues(t, 0, body["totalVisits"])
}

func TestNotFoundListsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w, body := doJSON(t, router, http.MethodGet, "/no-such-route", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Endpoint not found", body["error"])
	assert.Len(t, body["availableEndpoints"], len(endpointList))
}

func TestDashboardPage(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), "Visitor Dashboard")
}

func TestExtractReferrerDomain(t *testing.T) {
	tests := []struct {
		referrer string
		want     string
	}{
		{"", "direct"},
		{"https://google.com/search?q=x", "google.com"},
		{"http://sub.example.org/page", "sub.example.org"},
		{"not a url at all", "invalid-url"},
		{"/relative/path", "invalid-url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractReferrerDomain(tt.referrer), "referrer %q", tt.referrer)
	}
}

func TestClientAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.4:9999"
	assert.Equal(t, "203.0.113.4", clientAddress(c))

	c.Request.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	assert.Equal(t, "198.51.100.1", clientAddress(c))
}
