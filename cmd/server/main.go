package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"loan-compare/internal/cache"
	"loan-compare/internal/catalog"
	"loan-compare/internal/config"
	"loan-compare/internal/database"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/services"
	"loan-compare/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db.DB)
	blacklistRepo := repositories.NewBlacklistedTokenRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)
	questionRepo := repositories.NewLoanQuestionRepository(db.DB)
	appRepo := repositories.NewLoanApplicationRepository(db.DB)
	docRepo := repositories.NewApplicationDocumentRepository(db.DB)

	metrics := services.NewPrometheusMetrics()
	auditLogger := services.NewAuditLogger(logger)
	auditService := services.NewAuditService(auditRepo, logger)
	passwordService := services.NewPasswordService(cfg.Security)
	tokenService := services.NewTokenService(&cfg.JWT)
	authService := services.NewAuthService(userRepo, blacklistRepo, passwordService, tokenService, auditService, metrics, logger)
	userService := services.NewUserService(userRepo, auditService, logger)

	catalogCache := cache.New(cfg.Cache)
	catalogService, err := newCatalogService(ctx, cfg, db, catalogCache, auditService, auditLogger, metrics, logger)
	if err != nil {
		return err
	}

	questionService := services.NewQuestionService(questionRepo, auditService, auditLogger, logger)
	if cfg.Database.SeedQuestions {
		seedQuestions(ctx, questionService, logger)
	}

	store, err := storage.NewLocalStore(cfg.Storage.DocumentRoot, cfg.Storage.MaxUploadBytes)
	if err != nil {
		return err
	}
	breaker := services.NewCircuitBreaker(services.CircuitBreakerConfig{
		Name:            "document_store",
		MaxFailures:     cfg.Storage.BreakerMaxFailures,
		ResetTimeout:    cfg.Storage.BreakerTimeout,
		HalfOpenMaxSucc: 1,
		OnStateChange: func(name string, from, to models.CircuitBreakerState) {
			auditLogger.LogCircuitBreakerStateChange(context.Background(), name, from.String(), to.String())
			metrics.RecordGauge("circuit_breaker_state", float64(to), map[string]string{"service": name})
		},
	})
	documentService := services.NewDocumentService(store, breaker, auditLogger, metrics)

	applicationService := services.NewApplicationService(
		appRepo, docRepo, userRepo,
		questionService, documentService, services.NewExportService(),
		auditService, auditLogger, metrics, logger,
	)

	if cfg.Admin.Email != "" {
		if err := seedAdmin(cfg.Admin, db, passwordService, logger); err != nil {
			return err
		}
	}

	go services.NewMaintenance(auditService, blacklistRepo, cfg.Security.AuditRetention, cfg.Security.MaintenanceInterval, logger).Run(ctx)

	e := newServer(ctx, cfg, serverDeps{
		db:                 db.DB,
		cache:              catalogCache,
		tokenService:       tokenService,
		blacklistRepo:      blacklistRepo,
		authService:        authService,
		userService:        userService,
		catalogService:     catalogService,
		questionService:    questionService,
		applicationService: applicationService,
		documentService:    documentService,
		auditService:       auditService,
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newCatalogService serves the YAML catalog directly, or seeds it into the
// database on first start when the database source is selected
func newCatalogService(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	c cache.Cache,
	auditService services.AuditServiceInterface,
	auditLogger services.AuditLoggerInterface,
	metrics services.MetricsRecorderInterface,
	logger *slog.Logger,
) (services.CatalogServiceInterface, error) {
	offers, err := loadOffers(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.Source == config.CatalogSourceStatic {
		logger.Info("serving static bank catalog", "offers", len(offers))
		return services.NewStaticCatalogService(offers, auditLogger, metrics, logger), nil
	}

	svc := services.NewCatalogService(repositories.NewBankOfferRepository(db.DB), c, cfg.Cache.TTL, auditService, auditLogger, metrics, logger)
	if _, err := svc.SeedOffers(ctx, offers); err != nil {
		return nil, fmt.Errorf("failed to seed bank catalog: %w", err)
	}
	return svc, nil
}

func loadOffers(cfg config.CatalogConfig) ([]models.BankOffer, error) {
	if strings.TrimSpace(cfg.FilePath) != "" {
		return catalog.LoadFile(cfg.FilePath)
	}
	return catalog.Bundled()
}

func seedQuestions(ctx context.Context, questionService services.QuestionServiceInterface, logger *slog.Logger) {
	for _, loanType := range models.LoanTypeKeys {
		created, err := questionService.SeedDefaults(ctx, services.Actor{}, loanType)
		if err != nil {
			// the built-in questionnaire is still served without stored questions
			logger.Warn("failed to seed questions", "loan_type", loanType, "error", err)
			continue
		}
		if created > 0 {
			logger.Info("seeded questions", "loan_type", loanType, "created", created)
		}
	}
}

func seedAdmin(cfg config.AdminConfig, db *database.DB, passwordService services.PasswordServiceInterface, logger *slog.Logger) error {
	hash, err := passwordService.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}
	admin, err := db.SeedAdminUser(strings.ToLower(cfg.Email), hash, cfg.FullName)
	if err != nil {
		return err
	}
	logger.Info("admin account ready", "user_id", admin.ID, "email", admin.Email)
	return nil
}
