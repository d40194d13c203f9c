package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"loan-compare/internal/config"
	"loan-compare/internal/services"
	"loan-compare/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{CORSAllowOrigins: []string{"http://localhost:3000"}},
		Security: config.SecurityConfig{RateLimitPerSecond: 100},
		Storage:  config.StorageConfig{MaxUploadBytes: 1 << 20},
	}
}

func newTestServer(t *testing.T, deps serverDeps) *echo.Echo {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newServer(ctx, testConfig(), deps)
}

func TestRegisterRoutes(t *testing.T) {
	e := newTestServer(t, serverDeps{})

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"GET /health",
		"GET /metrics",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/banks",
		"POST /api/v1/banks/match",
		"GET /api/v1/loan-types/:loanType/questions",
		"POST /api/v1/applications",
		"POST /api/v1/applications/:id/documents",
		"POST /api/v1/applications/:id/submit",
		"GET /api/v1/admin/applications/export",
		"POST /api/v1/admin/questions/:id/move",
		"GET /api/v1/admin/audit-logs",
	} {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newTestServer(t, serverDeps{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_002")
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestPublicCatalogIsCacheable(t *testing.T) {
	ctrl := gomock.NewController(t)
	questionService := service_mocks.NewMockQuestionServiceInterface(ctrl)
	questionService.EXPECT().LoanTypes().Return([]services.LoanType{{Key: "home", Label: "Home Loan"}})

	e := newTestServer(t, serverDeps{questionService: questionService})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loan-types", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Home Loan")
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}
