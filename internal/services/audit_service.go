package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
)

// AuditService handles audit logging operations
type AuditService struct {
	repo   repositories.AuditLogRepositoryInterface
	logger *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo repositories.AuditLogRepositoryInterface, logger *slog.Logger) AuditServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

var (
	ErrInvalidAuditLog = errors.New("invalid audit log")
	ErrInvalidAction   = errors.New("invalid audit action")
)

var validActions = map[string]bool{
	models.AuditActionRegister:           true,
	models.AuditActionLogin:              true,
	models.AuditActionLogout:             true,
	models.AuditActionFailedLogin:        true,
	models.AuditActionAccountLocked:      true,
	models.AuditActionAccountUnlock:      true,
	models.AuditActionRoleChanged:        true,
	models.AuditActionUserDeleted:        true,
	models.AuditActionApplicationCreated: true,
	models.AuditActionDocumentUploaded:   true,
	models.AuditActionApplicationSubmit:  true,
	models.AuditActionStatusChanged:      true,
	models.AuditActionApplicationsExport: true,
	models.AuditActionQuestionCreated:    true,
	models.AuditActionQuestionUpdated:    true,
	models.AuditActionQuestionDeleted:    true,
	models.AuditActionQuestionMoved:      true,
	models.AuditActionQuestionsSeeded:    true,
	models.AuditActionBankOfferCreated:   true,
	models.AuditActionBankOfferUpdated:   true,
	models.AuditActionBankOfferToggled:   true,
}

// ValidateActivityType validates that the action is one the audit trail records
func ValidateActivityType(action string) error {
	if !validActions[action] {
		return fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}
	return nil
}

// CreateAuditLog creates a new audit log entry with validation
func (s *AuditService) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return ErrInvalidAuditLog
	}

	if err := ValidateActivityType(log.Action); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// Record writes an audit entry for actor. Failures are logged and never returned:
// the audited operation has already happened.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, resource, resourceID string, metadata models.JSONBMap) {
	log := models.NewAuditLog(actor.userIDPtr(), action, resource, resourceID)
	log.IPAddress = actor.IPAddress
	log.UserAgent = actor.UserAgent
	for k, v := range metadata {
		log.SetMetadata(k, v)
	}

	if err := s.CreateAuditLog(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log",
			"error", err,
			"action", action,
			"resource", resource,
			"resource_id", resourceID)
	}
}

// ListAuditLogs returns audit entries newest first. Only one filter field is
// applied, checked in the order user, action, resource.
func (s *AuditService) ListAuditLogs(ctx context.Context, filter AuditLogFilter, offset, limit int) ([]*models.AuditLog, int64, error) {
	switch {
	case filter.UserID != nil:
		return s.repo.GetByUserID(ctx, *filter.UserID, offset, limit)
	case filter.Action != "":
		return s.repo.GetByAction(ctx, filter.Action, offset, limit)
	case filter.Resource != "":
		return s.repo.GetByResource(ctx, filter.Resource, filter.ResourceID, offset, limit)
	default:
		return s.repo.List(ctx, offset, limit)
	}
}

// PurgeOlderThan deletes entries older than age
func (s *AuditService) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", age)
	}
	deleted, err := s.repo.DeleteOlderThan(ctx, age)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}
	return deleted, nil
}
