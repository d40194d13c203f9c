package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loan-compare/internal/models"
	"loan-compare/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrCannotModifySelf = errors.New("administrators cannot change or delete their own account")
)

// UserService backs the admin user management screens
type UserService struct {
	userRepo     repositories.UserRepositoryInterface
	auditService AuditServiceInterface
	logger       *slog.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, auditService AuditServiceInterface, logger *slog.Logger) UserServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		userRepo:     userRepo,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *UserService) ListUsers(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error) {
	if filter.Role != "" && !models.IsValidRole(filter.Role) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidRole, filter.Role)
	}
	users, total, err := s.userRepo.ListUsers(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UnlockUser clears the failed login counter and the lock
func (s *UserService) UnlockUser(ctx context.Context, actor Actor, userID uuid.UUID) (*models.User, error) {
	if err := s.userRepo.UnlockAccount(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to unlock user: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionAccountUnlock, models.AuditResourceUser, userID.String(), nil)
	return s.GetUser(ctx, userID)
}

func (s *UserService) ChangeRole(ctx context.Context, actor Actor, userID uuid.UUID, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if actor.UserID == userID {
		return nil, ErrCannotModifySelf
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	previous := user.Role
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	user.Role = role

	s.logger.InfoContext(ctx, "user role changed", "user_id", userID, "from", previous, "to", role)
	s.auditService.Record(ctx, actor, models.AuditActionRoleChanged, models.AuditResourceUser, userID.String(),
		models.JSONBMap{"from": previous, "to": role})
	return user, nil
}

// DeleteUser soft deletes the account; its applications are kept for the back office
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if actor.UserID == userID {
		return ErrCannotModifySelf
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionUserDeleted, models.AuditResourceUser, userID.String(), nil)
	return nil
}
