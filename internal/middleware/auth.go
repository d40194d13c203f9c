package middleware

import (
	stderrors "errors"

	"loan-compare/internal/errors"
	"loan-compare/internal/handlers"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireAuth creates a middleware that requires a valid JWT token
// and checks that the token has not been blacklisted (e.g., after logout)
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			if code, opts := authenticate(c, authHeader, tokenService, blacklistedTokenRepo); code != "" {
				return handlers.SendError(c, code, opts...)
			}
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present and
// otherwise lets the request through anonymously. Handlers decide whether an
// anonymous caller may proceed.
func OptionalAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			// a token that is present but unusable is still an error
			if code, opts := authenticate(c, authHeader, tokenService, blacklistedTokenRepo); code != "" {
				return handlers.SendError(c, code, opts...)
			}
			return next(c)
		}
	}
}

func authenticate(
	c echo.Context,
	authHeader string,
	tokenService services.TokenServiceInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
) (errors.ErrorCode, []errors.ErrorOption) {
	token, err := tokenService.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return errors.AuthInvalidTokenFormat, nil
	}

	claims, err := tokenService.ValidateAccessToken(token)
	if err != nil {
		if stderrors.Is(err, services.ErrExpiredToken) {
			return errors.AuthExpiredToken, nil
		}
		return errors.AuthInvalidTokenFormat, nil
	}

	blacklistedToken, err := blacklistedTokenRepo.GetByJTI(c.Request().Context(), claims.ID)
	if err == nil && blacklistedToken != nil {
		return errors.AuthInvalidTokenFormat, []errors.ErrorOption{errors.WithDetails("Token has been revoked")}
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return errors.AuthInvalidTokenFormat, []errors.ErrorOption{errors.WithDetails("Invalid user ID in token")}
	}

	c.Set(handlers.ContextUserID, userID)
	c.Set(handlers.ContextEmail, claims.Email)
	c.Set(handlers.ContextRole, claims.Role)
	c.Set(handlers.ContextTokenJTI, claims.ID)
	c.Set(handlers.ContextIsAdmin, claims.Role == models.RoleAdmin)
	return "", nil
}

// RequireRole creates a middleware that requires a specific role
func RequireRole(requiredRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, ok := c.Get(handlers.ContextRole).(string)
			if !ok {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("User role not found in token"))
			}

			for _, role := range requiredRoles {
				if userRole == role {
					return next(c)
				}
			}

			return handlers.SendError(c, errors.AuthInsufficientPermission)
		}
	}
}

// RequireAdmin is a convenience middleware that requires admin role
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}
