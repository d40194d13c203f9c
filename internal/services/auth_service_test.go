package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-compare/internal/config"
	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/repositories/repository_mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx                  context.Context
	ctrl                 *gomock.Controller
	userRepo             *repository_mocks.MockUserRepositoryInterface
	auditRepo            *repository_mocks.MockAuditLogRepositoryInterface
	blacklistedTokenRepo *repository_mocks.MockBlacklistedTokenRepositoryInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	metrics              *recordingMetrics
	authService          AuthServiceInterface
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.userRepo = repository_mocks.NewMockUserRepositoryInterface(s.ctrl)
	s.auditRepo = repository_mocks.NewMockAuditLogRepositoryInterface(s.ctrl)
	s.blacklistedTokenRepo = repository_mocks.NewMockBlacklistedTokenRepositoryInterface(s.ctrl)
	s.passwordService = NewPasswordService(strictPolicy())

	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)
	s.tokenService = NewTokenService(&config.JWTConfig{
		PrivateKey:          privateKey,
		PublicKey:           publicKey,
		Issuer:              "loan-compare-test",
		AccessTokenDuration: 15 * time.Minute,
	})

	s.metrics = &recordingMetrics{}
	s.authService = NewAuthService(
		s.userRepo,
		s.blacklistedTokenRepo,
		s.passwordService,
		s.tokenService,
		NewAuditService(s.auditRepo, discardLogger()),
		s.metrics,
		discardLogger(),
	)
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) existingUser(password string) *models.User {
	hash, err := s.passwordService.HashPasswordWithoutValidation(password)
	s.Require().NoError(err)
	return &models.User{
		ID:           uuid.New(),
		Email:        gofakeit.Email(),
		PasswordHash: hash,
		FullName:     gofakeit.Name(),
		Role:         models.RoleApplicant,
	}
}

func (s *AuthServiceTestSuite) expectAudit(actions ...string) {
	for _, action := range actions {
		action := action
		s.auditRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, l *models.AuditLog) error {
				s.Equal(action, l.Action)
				return nil
			})
	}
}

func (s *AuthServiceTestSuite) TestRegister_SuccessfulRegistration() {
	req := &dto.RegisterRequest{
		Email:    "  New.Applicant@Example.com ",
		Password: "SecurePass123!",
		FullName: "Asha Rao",
		Phone:    "+919876543210",
	}

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), "new.applicant@example.com").Return(nil, repositories.ErrUserNotFound)
	s.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			u.ID = uuid.New()
			return nil
		})
	s.expectAudit(models.AuditActionRegister)

	user, err := s.authService.Register(s.ctx, req, "192.168.1.1", "Mozilla/5.0")

	s.Require().NoError(err)
	s.Equal("new.applicant@example.com", user.Email)
	s.Equal("Asha Rao", user.FullName)
	s.Equal(models.RoleApplicant, user.Role)
	s.NotEqual(req.Password, user.PasswordHash)
	s.True(s.passwordService.ComparePassword(req.Password, user.PasswordHash))
	s.Equal([]map[string]string{{"event": "register", "outcome": "success"}}, s.metrics.counted("auth_events_total"))
}

func (s *AuthServiceTestSuite) TestRegister_UserAlreadyExists() {
	existing := s.existingUser("SecurePass123!")
	req := &dto.RegisterRequest{Email: existing.Email, Password: "SecurePass123!", FullName: "Jane"}

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), existing.Email).Return(existing, nil)
	s.expectAudit(models.AuditActionRegister)

	user, err := s.authService.Register(s.ctx, req, "192.168.1.1", "Mozilla/5.0")
	s.ErrorIs(err, ErrUserAlreadyExists)
	s.Nil(user)
}

func (s *AuthServiceTestSuite) TestRegister_RaceOnUniqueEmail() {
	req := &dto.RegisterRequest{Email: "race@example.com", Password: "SecurePass123!", FullName: "Race"}

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), req.Email).Return(nil, repositories.ErrUserNotFound)
	s.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repositories.ErrUserAlreadyExists)

	_, err := s.authService.Register(s.ctx, req, "", "")
	s.ErrorIs(err, ErrUserAlreadyExists)
}

func (s *AuthServiceTestSuite) TestRegister_WeakPassword() {
	req := &dto.RegisterRequest{Email: "weak@example.com", Password: "123", FullName: "Weak"}

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), req.Email).Return(nil, repositories.ErrUserNotFound)

	user, err := s.authService.Register(s.ctx, req, "", "")
	s.ErrorIs(err, ErrPasswordTooShort)
	s.Nil(user)
}

func (s *AuthServiceTestSuite) TestRegister_LookupFailure() {
	req := &dto.RegisterRequest{Email: "db@example.com", Password: "SecurePass123!", FullName: "Db"}
	s.userRepo.EXPECT().GetByEmail(gomock.Any(), req.Email).Return(nil, errors.New("connection refused"))

	_, err := s.authService.Register(s.ctx, req, "", "")
	s.ErrorContains(err, "failed to check existing user")
}

func (s *AuthServiceTestSuite) TestLogin_SuccessfulLogin() {
	password := "SecurePass123!@#"
	user := s.existingUser(password)
	user.FailedLoginAttempts = 2

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(gomock.Any(), user).Return(nil)
	s.expectAudit(models.AuditActionLogin)

	tokens, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: user.Email, Password: password}, "192.168.1.1", "Mozilla/5.0")

	s.Require().NoError(err)
	s.Equal("Bearer", tokens.TokenType)
	s.True(tokens.ExpiresAt.After(time.Now()))
	s.Equal(0, user.FailedLoginAttempts)
	s.NotNil(user.LastLoginAt)

	claims, err := s.tokenService.ValidateAccessToken(tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID.String(), claims.Subject)
}

func (s *AuthServiceTestSuite) TestLogin_InvalidPassword() {
	user := s.existingUser("SecurePass123!@#")

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(gomock.Any(), user).Return(nil)
	s.expectAudit(models.AuditActionFailedLogin)

	tokens, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: user.Email, Password: "WrongPassword"}, "", "")

	s.ErrorIs(err, ErrInvalidCredentials)
	s.Nil(tokens)
	s.Equal(1, user.FailedLoginAttempts)
	s.False(user.IsLocked())
}

func (s *AuthServiceTestSuite) TestLogin_NonExistentUser() {
	s.userRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, repositories.ErrUserNotFound)
	s.expectAudit(models.AuditActionFailedLogin)

	tokens, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"}, "", "")

	s.ErrorIs(err, ErrInvalidCredentials)
	s.Nil(tokens)
}

func (s *AuthServiceTestSuite) TestLogin_AccountLockoutAfterFailedAttempts() {
	password := "CorrectPass123!"
	user := s.existingUser(password)
	user.FailedLoginAttempts = models.MaxFailedLoginAttempts - 1

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil).Times(2)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(gomock.Any(), user).Return(nil)
	s.expectAudit(models.AuditActionAccountLocked, models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: user.Email, Password: "WrongPassword"}, "", "")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.True(user.IsLocked())

	s.expectAudit(models.AuditActionFailedLogin)
	tokens, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: user.Email, Password: password}, "", "")
	s.ErrorIs(err, ErrAccountLocked)
	s.Nil(tokens)
}

func (s *AuthServiceTestSuite) TestLogin_AttemptCounterFailureStillRejects() {
	user := s.existingUser("SecurePass123!@#")

	s.userRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(gomock.Any(), user).Return(errors.New("write failed"))
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, &dto.LoginRequest{Email: user.Email, Password: "nope"}, "", "")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLogout_BlacklistsJTI() {
	user := s.existingUser("SecurePass123!@#")
	token, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	s.Require().NoError(err)
	jti, err := s.tokenService.GetJTI(token)
	s.Require().NoError(err)

	s.blacklistedTokenRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, bt *models.BlacklistedToken) error {
			s.Equal(jti, bt.JTI)
			s.Equal(user.ID, bt.UserID)
			s.WithinDuration(expiresAt, bt.ExpiresAt, time.Second)
			return nil
		})
	s.expectAudit(models.AuditActionLogout)

	s.NoError(s.authService.Logout(s.ctx, token, "192.168.1.1", "Mozilla/5.0"))
}

func (s *AuthServiceTestSuite) TestLogout_WithInvalidToken() {
	s.NoError(s.authService.Logout(s.ctx, "invalid_token", "", ""))
}

func (s *AuthServiceTestSuite) TestLogout_BlacklistFailureIsNotReturned() {
	user := s.existingUser("SecurePass123!@#")
	token, _, err := s.tokenService.GenerateAccessToken(user)
	s.Require().NoError(err)

	s.blacklistedTokenRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("duplicate jti"))
	s.expectAudit(models.AuditActionLogout)

	s.NoError(s.authService.Logout(s.ctx, token, "", ""))
}

func (s *AuthServiceTestSuite) TestGetProfile() {
	user := s.existingUser("SecurePass123!@#")

	s.userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	got, err := s.authService.GetProfile(s.ctx, user.ID)
	s.NoError(err)
	s.Equal(user, got)

	missing := uuid.New()
	s.userRepo.EXPECT().GetByID(gomock.Any(), missing).Return(nil, repositories.ErrUserNotFound)
	_, err = s.authService.GetProfile(s.ctx, missing)
	s.ErrorIs(err, ErrUserNotFound)
}
