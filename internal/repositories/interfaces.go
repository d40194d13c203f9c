package repositories

import (
	"context"
	"time"

	"loan-compare/internal/models"

	"github.com/google/uuid"
)

// UserFilter narrows the admin user listing
type UserFilter struct {
	Role  string
	Query string // matched against email and full name
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFailedLoginAttempts(ctx context.Context, user *models.User) error
	UnlockAccount(ctx context.Context, userID uuid.UUID) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
	Delete(ctx context.Context, userID uuid.UUID) error
	ListUsers(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, offset, limit int) ([]*models.AuditLog, int64, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	GetByAction(ctx context.Context, action string, offset, limit int) ([]*models.AuditLog, int64, error)
	GetByResource(ctx context.Context, resource, resourceID string, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(ctx context.Context, duration time.Duration) (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for blacklisted token repository operations
type BlacklistedTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.BlacklistedToken) error
	GetByJTI(ctx context.Context, jti string) (*models.BlacklistedToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// BankOfferRepositoryInterface defines the contract for the persisted bank catalog
type BankOfferRepositoryInterface interface {
	ListActive(ctx context.Context) ([]models.BankOffer, error)
	List(ctx context.Context) ([]models.BankOffer, error)
	GetByID(ctx context.Context, id string) (*models.BankOffer, error)
	Create(ctx context.Context, offer *models.BankOffer) error
	CreateBatch(ctx context.Context, offers []models.BankOffer) error
	Update(ctx context.Context, offer *models.BankOffer) error
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int64, error)
}

// ApplicationFilter narrows the admin application listing
type ApplicationFilter struct {
	Status   string
	LoanType string
	UserID   *uuid.UUID
}

// LoanApplicationRepositoryInterface defines the contract for loan application persistence
type LoanApplicationRepositoryInterface interface {
	Create(ctx context.Context, app *models.LoanApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LoanApplication, error)
	List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]*models.LoanApplication, int64, error)
	ListAll(ctx context.Context, filter ApplicationFilter) ([]*models.LoanApplication, error)
	Update(ctx context.Context, app *models.LoanApplication) error
}

// ApplicationDocumentRepositoryInterface defines the contract for uploaded document metadata
type ApplicationDocumentRepositoryInterface interface {
	// Upsert stores doc, replacing any earlier upload of the same type and returning it
	Upsert(ctx context.Context, doc *models.ApplicationDocument) (replaced *models.ApplicationDocument, err error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationDocument, error)
	DocumentTypes(ctx context.Context, applicationID uuid.UUID) ([]string, error)
}

// MoveDirection is the way a question travels in its loan type's sequence
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// LoanQuestionRepositoryInterface defines the contract for admin-managed questions
type LoanQuestionRepositoryInterface interface {
	ListByLoanType(ctx context.Context, loanType string) ([]models.LoanQuestion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.LoanQuestion, error)
	Create(ctx context.Context, question *models.LoanQuestion) error
	CreateBatch(ctx context.Context, questions []models.LoanQuestion) error
	Update(ctx context.Context, question *models.LoanQuestion) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByLoanType(ctx context.Context, loanType string) (int64, error)
	NextSequenceOrder(ctx context.Context, loanType string) (int, error)
	Move(ctx context.Context, id uuid.UUID, direction MoveDirection) (*models.LoanQuestion, error)
}
