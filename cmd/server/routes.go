package main

import (
	"context"
	"strconv"

	"loan-compare/internal/cache"
	"loan-compare/internal/config"
	"loan-compare/internal/handlers"
	"loan-compare/internal/middleware"
	"loan-compare/internal/repositories"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const apiPrefix = "/api/v1"

// multipart framing around an upload is small but not free
const multipartOverheadBytes = 64 << 10

type serverDeps struct {
	db                 *gorm.DB
	cache              cache.Cache
	tokenService       services.TokenServiceInterface
	blacklistRepo      repositories.BlacklistedTokenRepositoryInterface
	authService        services.AuthServiceInterface
	userService        services.UserServiceInterface
	catalogService     services.CatalogServiceInterface
	questionService    services.QuestionServiceInterface
	applicationService services.ApplicationServiceInterface
	documentService    services.DocumentServiceInterface
	auditService       services.AuditServiceInterface
}

func newServer(ctx context.Context, cfg *config.Config, deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders(apiPrefix+"/banks", apiPrefix+"/loan-types"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.Server.CORSAllowOrigins}))
	e.Use(middleware.RateLimiter(ctx, cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitPerSecond*2))

	registerRoutes(e, cfg, deps)
	return e
}

func registerRoutes(e *echo.Echo, cfg *config.Config, deps serverDeps) {
	authHandler := handlers.NewAuthHandler(deps.authService, deps.tokenService)
	bankHandler := handlers.NewBankHandler(deps.catalogService)
	questionHandler := handlers.NewQuestionHandler(deps.questionService)
	applicationHandler := handlers.NewApplicationHandler(deps.applicationService, cfg.Storage.MaxUploadBytes)
	adminHandler := handlers.NewAdminHandler(deps.userService, deps.applicationService, deps.catalogService, deps.questionService, deps.auditService)
	healthHandler := handlers.NewHealthCheckHandler(deps.db, deps.cache, deps.documentService)

	requireAuth := middleware.RequireAuth(deps.tokenService, deps.blacklistRepo)
	optionalAuth := middleware.OptionalAuth(deps.tokenService, deps.blacklistRepo)
	uploadLimit := echomw.BodyLimit(strconv.FormatInt(cfg.Storage.MaxUploadBytes+multipartOverheadBytes, 10))

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group(apiPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout, requireAuth)
	api.GET("/auth/me", authHandler.Me, requireAuth)

	api.GET("/banks", bankHandler.ListBanks)
	api.POST("/banks/match", bankHandler.MatchBanks)
	api.GET("/banks/:id", bankHandler.GetBank)

	api.GET("/loan-types", questionHandler.ListLoanTypes)
	api.GET("/loan-types/:loanType/questions", questionHandler.GetQuestionnaire)

	// create and submit accept anonymous callers so they get a login prompt
	api.POST("/applications", applicationHandler.CreateApplication, optionalAuth)
	api.GET("/applications", applicationHandler.ListMyApplications, requireAuth)
	api.GET("/applications/:id", applicationHandler.GetApplication, requireAuth)
	api.POST("/applications/:id/documents", applicationHandler.UploadDocument, uploadLimit, requireAuth)
	api.POST("/applications/:id/submit", applicationHandler.SubmitApplication, optionalAuth)

	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())

	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:userId", adminHandler.GetUserByID)
	admin.POST("/users/:userId/unlock", adminHandler.UnlockUser)
	admin.PUT("/users/:userId/role", adminHandler.ChangeUserRole)
	admin.DELETE("/users/:userId", adminHandler.DeleteUser)

	admin.GET("/applications", adminHandler.ListApplications)
	admin.GET("/applications/export", adminHandler.ExportApplications)
	admin.PUT("/applications/:id/status", adminHandler.UpdateApplicationStatus)

	admin.GET("/banks", adminHandler.ListBankOffers)
	admin.POST("/banks", adminHandler.CreateBankOffer)
	admin.PUT("/banks/:id", adminHandler.UpdateBankOffer)
	admin.PUT("/banks/:id/active", adminHandler.SetBankOfferActive)

	admin.GET("/loan-types/:loanType/questions", adminHandler.ListQuestions)
	admin.POST("/loan-types/:loanType/questions/seed", adminHandler.SeedQuestions)
	admin.POST("/questions", adminHandler.CreateQuestion)
	admin.PUT("/questions/:id", adminHandler.UpdateQuestion)
	admin.DELETE("/questions/:id", adminHandler.DeleteQuestion)
	admin.POST("/questions/:id/move", adminHandler.MoveQuestion)

	admin.GET("/audit-logs", adminHandler.ListAuditLogs)
}
