package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	"github.com/yanqian/travel-advisor/internal/infra/config"
	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
	"github.com/yanqian/travel-advisor/pkg/logger"
)

func TestRouter_GetAdvisorySuccess(t *testing.T) {
	want := advisory.Record{
		Level:     3,
		LevelText: "Reconsider Travel",
		Message:   "Serious risks are present. Reconsider your travel plans.",
		Summary:   "Reconsider travel due to terrorism.",
		Source:    "US Department of State",
		Link:      "https://travel.state.gov/fr",
	}
	svc := &stubAdvisoryService{record: want}

	recorder := performRequest(http.MethodGet, "/api/v1/advisories?countryCode=FR&countryName=France", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got advisory.Record
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, want, got)
	require.Len(t, svc.calls, 1)
	require.Equal(t, advisory.Request{CountryCode: "FR", CountryName: "France"}, svc.calls[0])
}

func TestRouter_PostAdvisorySuccess(t *testing.T) {
	svc := &stubAdvisoryService{record: advisory.Record{Level: 0, LevelText: "Not Available"}}

	recorder := performRequest(http.MethodPost, "/api/v1/advisories", `{"countryCode":" XA ","countryName":" Atlantis "}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, svc.calls, 1)
	require.Equal(t, advisory.Request{CountryCode: "XA", CountryName: "Atlantis"}, svc.calls[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	for _, key := range []string{"level", "levelText", "message", "summary", "source", "link"} {
		require.Contains(t, body, key)
	}
}

func TestRouter_AdvisoryRequiresCountry(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"get without params", http.MethodGet, "/api/v1/advisories", ""},
		{"get with blanks", http.MethodGet, "/api/v1/advisories?countryCode=%20&countryName=", ""},
		{"post empty object", http.MethodPost, "/api/v1/advisories", `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAdvisoryService{}
			recorder := performRequest(tc.method, tc.path, tc.body, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
			require.Equal(t, http.StatusBadRequest, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, "invalid_request", errBody["error"]["code"])
			require.Contains(t, errBody["error"]["message"], "countryCode or countryName")
			require.Empty(t, svc.calls)
		})
	}
}

func TestRouter_PostAdvisoryInvalidJSON(t *testing.T) {
	svc := &stubAdvisoryService{}

	recorder := performRequest(http.MethodPost, "/api/v1/advisories", `{"countryName":123}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
	require.Empty(t, svc.calls)
}

func TestRouter_Health(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/healthz", "", newRouterUnderTest(t, &stubAdvisoryService{}, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/metrics", "", newRouterUnderTest(t, &stubAdvisoryService{}, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "router_test_marker_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisoryService{}, config.RateLimitConfig{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/advisories", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestRouter_CORSRejectsUnlistedOrigin(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisoryService{}, config.RateLimitConfig{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/advisories", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSWildcard(t *testing.T) {
	for _, allowed := range [][]string{nil, {"https://a.example.com", "*"}} {
		engine := gin.New()
		engine.Use(corsMiddleware(allowed))
		engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://b.example.com")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestErrorHandlingMapsAppErrorCodes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"invalid request", badRequest("countryCode or countryName is required", nil), http.StatusBadRequest, "invalid_request", "countryCode or countryName is required"},
		{"upstream", apperrors.Wrap(advisory.CodeUpstream, "advisory request failed", errors.New("dial tcp: refused")), http.StatusBadGateway, "upstream_error", "advisory request failed"},
		{"cache corrupt", apperrors.Wrap(advisory.CodeCacheCorrupt, "decode cached bulletins", nil), http.StatusInternalServerError, "cache_corrupt", "decode cached bulletins"},
		{"rate limit", apperrors.Wrap(codeRateLimitExceeded, "too many requests", nil), http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests"},
		{"unknown code", apperrors.Wrap("mystery", "odd failure", nil), http.StatusInternalServerError, "mystery", "odd failure"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "something went wrong"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(errorHandlingMiddleware(logger.Discard()))
			engine.GET("/fail", func(c *gin.Context) { abortWithError(c, tc.err) })

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			require.Equal(t, tc.wantStatus, rec.Code)
			errBody := decodeErrorBody(t, rec.Body.Bytes())
			require.Equal(t, tc.wantCode, errBody["error"]["code"])
			require.Equal(t, tc.wantMessage, errBody["error"]["message"])
		})
	}
}

func TestRouter_RateLimitExceeded(t *testing.T) {
	svc := &stubAdvisoryService{}
	server := newRouterUnderTest(t, svc, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2})

	for i := 0; i < 2; i++ {
		recorder := performRequest(http.MethodGet, "/api/v1/advisories?countryName=France", "", server)
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	recorder := performRequest(http.MethodGet, "/api/v1/advisories?countryName=France", "", server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "rate_limit_exceeded", errBody["error"]["code"])
	require.Len(t, svc.calls, 2)
}

func TestIPRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1}, func() time.Time { return now })

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	require.NotContains(t, limiter.visitors, "10.0.0.2")
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc advisory.Service, rl config.RateLimitConfig) *http.Server {
	t.Helper()
	handler := NewHandler(svc, logger.Discard())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			AllowedOrigins: []string{"https://dash.example.com"},
			RateLimit:      rl,
		},
	}
	reg := prometheus.NewRegistry()
	marker := prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_marker_total", Help: "marker"})
	reg.MustRegister(marker)
	marker.Inc()
	return NewRouter(cfg, handler, reg)
}

type stubAdvisoryService struct {
	record advisory.Record
	calls  []advisory.Request
}

func (s *stubAdvisoryService) Resolve(_ context.Context, countryCode, countryName string) advisory.Record {
	s.calls = append(s.calls, advisory.Request{CountryCode: countryCode, CountryName: countryName})
	return s.record
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body), strings.TrimSpace(string(raw)))
	return body
}
