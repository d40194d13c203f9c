package handlers

import (
	"context"
	"net/http"
	"time"

	"loan-compare/internal/cache"
	"loan-compare/internal/errors"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckHandler reports database, cache and document store status
type HealthCheckHandler struct {
	db        *gorm.DB
	cache     cache.Cache
	documents services.DocumentServiceInterface
}

// NewHealthCheckHandler creates a new health check handler. cache and documents may be nil.
func NewHealthCheckHandler(db *gorm.DB, c cache.Cache, documents services.DocumentServiceInterface) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, cache: c, documents: documents}
}

// HealthCheck reports 503 only when the database is unreachable; cache and
// document store problems degrade the status without failing the check.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,time=string,checks=object}
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	status := "healthy"
	checks := map[string]string{"database": "ok"}

	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "unavailable"
			status = "degraded"
		}
	}
	if h.documents != nil {
		checks["documents"] = "ok"
		if !h.documents.Healthy() {
			checks["documents"] = "circuit_open"
			status = "degraded"
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
	})
}
