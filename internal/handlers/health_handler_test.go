package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"loan-compare/internal/cache"
	"loan-compare/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type unreachableCache struct{ cache.Cache }

func (unreachableCache) Ping(context.Context) error { return errors.New("connection refused") }

func openHealthDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db
}

type healthBody struct {
	Status string            `json:"status"`
	Time   time.Time         `json:"time"`
	Checks map[string]string `json:"checks"`
}

func TestHealthCheck_Healthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	documents := service_mocks.NewMockDocumentServiceInterface(ctrl)
	documents.EXPECT().Healthy().Return(true)

	h := NewHealthCheckHandler(openHealthDB(t), cache.NewMemoryCache(), documents)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/health", nil)
	require.NoError(t, h.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok", "documents": "ok"}, body.Checks)
}

func TestHealthCheck_DegradedDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	documents := service_mocks.NewMockDocumentServiceInterface(ctrl)
	documents.EXPECT().Healthy().Return(false)

	h := NewHealthCheckHandler(openHealthDB(t), unreachableCache{}, documents)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/health", nil)
	require.NoError(t, h.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Checks["cache"])
	assert.Equal(t, "circuit_open", body.Checks["documents"])
}

func TestHealthCheck_OptionalDependencies(t *testing.T) {
	h := NewHealthCheckHandler(openHealthDB(t), nil, nil)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/health", nil)
	require.NoError(t, h.HealthCheck(c))

	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"database": "ok"}, body.Checks)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	db := openHealthDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	h := NewHealthCheckHandler(db, nil, nil)
	c, rec := jsonContext(newTestEcho(), http.MethodGet, "/health", nil)
	require.NoError(t, h.HealthCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SYSTEM_003", decodeError(rec).Error.Code)
}
