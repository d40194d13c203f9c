package handlers

import (
	"fmt"
	"strings"

	"loan-compare/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrUnauthorized is returned when user context is invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextEmail    = "user_email"
	ContextRole     = "user_role"
	ContextTokenJTI = "token_jti"
	ContextIsAdmin  = "is_admin"
)

// getUserIDFromContext returns ErrUnauthorized if user ID is missing or invalid
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(ContextUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, ErrUnauthorized
	}
	return userID, nil
}

func getIsAdminFromContext(c echo.Context) bool {
	isAdmin, ok := c.Get(ContextIsAdmin).(bool)
	return ok && isAdmin
}

// actorFromContext describes the caller; anonymous callers get a nil user ID
func actorFromContext(c echo.Context) services.Actor {
	userID, _ := getUserIDFromContext(c)
	return services.Actor{
		UserID:    userID,
		IPAddress: getClientIP(c),
		UserAgent: c.Request().UserAgent(),
	}
}

func getIntParam(c echo.Context, name string, defaultValue int) int {
	param := c.QueryParam(name)
	if param == "" {
		return defaultValue
	}

	var value int
	if _, err := fmt.Sscanf(param, "%d", &value); err != nil {
		return defaultValue
	}

	return value
}

func getUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func getClientIP(c echo.Context) string {
	xff := c.Request().Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := c.Request().Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	return c.RealIP()
}
