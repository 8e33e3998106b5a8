package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/observability"
)

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:  &Config{AppEnv: "development"},
		Metrics: observability.NewMetrics(),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `onebeat_http_requests_total{code="200",method="GET",route="/healthz"} 1`))
}

func TestRouterSkipsUnconfiguredHandlers(t *testing.T) {
	router := NewRouter(RouterParams{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/onebeat/companies/1/reports/status", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
