package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	auditService         AuditServiceInterface
	metrics              MetricsRecorderInterface
	logger               *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:             userRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		passwordService:      passwordService,
		tokenService:         tokenService,
		auditService:         auditService,
		metrics:              metrics,
		logger:               logger,
	}
}

// Register creates a new applicant account
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error) {
	actor := Actor{IPAddress: ipAddress, UserAgent: userAgent}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		s.auditService.Record(ctx, actor, models.AuditActionRegister, models.AuditResourceUser, "",
			models.JSONBMap{"email": email, "reason": "email_already_exists"})
		s.countAuthEvent("register", "duplicate")
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         models.RoleApplicant,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	actor.UserID = user.ID
	s.auditService.Record(ctx, actor, models.AuditActionRegister, models.AuditResourceUser, user.ID.String(), nil)
	s.countAuthEvent("register", "success")

	return user, nil
}

// Login authenticates a user and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	actor := Actor{IPAddress: ipAddress, UserAgent: userAgent}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.auditFailedLogin(ctx, actor, email, "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	actor.UserID = user.ID

	if user.IsLocked() {
		s.auditFailedLogin(ctx, actor, email, "account_locked")
		return nil, ErrAccountLocked
	}

	if !s.passwordService.ComparePassword(req.Password, user.PasswordHash) {
		user.RegisterFailedLogin()
		if err := s.userRepo.UpdateFailedLoginAttempts(ctx, user); err != nil {
			// never reveal user existence through this path
			s.logger.ErrorContext(ctx, "failed to update login attempts",
				"error", err,
				"user_id", user.ID)
		}

		if user.IsLocked() {
			s.auditService.Record(ctx, actor, models.AuditActionAccountLocked, models.AuditResourceUser, user.ID.String(), nil)
		}

		s.auditFailedLogin(ctx, actor, email, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	user.RegisterSuccessfulLogin()
	if err := s.userRepo.UpdateFailedLoginAttempts(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login attempts",
			"error", err,
			"user_id", user.ID)
	}

	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionLogin, models.AuditResourceUser, user.ID.String(), nil)
	s.countAuthEvent("login", "success")

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout blacklists the access token's JTI until the token would have expired
func (s *AuthService) Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		// an invalid or expired token is already unusable
		return nil
	}

	userID, err := claims.SubjectID()
	if err != nil || userID == uuid.Nil {
		return nil
	}

	expiry, err := s.tokenService.GetTokenExpiry(accessToken)
	if err != nil {
		expiry = time.Now().Add(24 * time.Hour)
	}

	if err := s.blacklistedTokenRepo.Create(ctx, models.NewBlacklistedToken(claims.ID, userID, expiry)); err != nil {
		s.logger.ErrorContext(ctx, "failed to blacklist token",
			"error", err,
			"jti", claims.ID,
			"user_id", userID)
	}

	s.auditService.Record(ctx, Actor{UserID: userID, IPAddress: ipAddress, UserAgent: userAgent},
		models.AuditActionLogout, models.AuditResourceUser, userID.String(), nil)
	s.countAuthEvent("logout", "success")

	return nil
}

// GetProfile returns the authenticated user's account
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) auditFailedLogin(ctx context.Context, actor Actor, email, reason string) {
	s.auditService.Record(ctx, actor, models.AuditActionFailedLogin, models.AuditResourceUser, "",
		models.JSONBMap{"email": email, "reason": reason})
	s.countAuthEvent("login", reason)
}

func (s *AuthService) countAuthEvent(event, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementCounter("auth_events_total", map[string]string{
		"event":   event,
		"outcome": outcome,
	})
}
