package services

import (
	"context"
	"io"
	"time"

	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"

	"github.com/google/uuid"
)

// Actor identifies the caller of an operation for authorization and auditing.
// A nil UserID means the caller is not logged in.
type Actor struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != uuid.Nil
}

func (a Actor) userIDPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
	HashPasswordWithoutValidation(password string) (string, error)
}

// AuditLogFilter narrows the audit trail listing; the first set field wins
type AuditLogFilter struct {
	UserID     *uuid.UUID
	Action     string
	Resource   string
	ResourceID string
}

// AuditServiceInterface records who did what to which resource
type AuditServiceInterface interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	Record(ctx context.Context, actor Actor, action, resource, resourceID string, metadata models.JSONBMap)
	ListAuditLogs(ctx context.Context, filter AuditLogFilter, offset, limit int) ([]*models.AuditLog, int64, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// UserServiceInterface is the back-office view of user accounts
type UserServiceInterface interface {
	ListUsers(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UnlockUser(ctx context.Context, actor Actor, userID uuid.UUID) (*models.User, error)
	ChangeRole(ctx context.Context, actor Actor, userID uuid.UUID, role string) (*models.User, error)
	DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error
}

// CatalogServiceInterface serves bank offers and matches borrowers against them
type CatalogServiceInterface interface {
	ListOffers(ctx context.Context) ([]models.BankOffer, error)
	GetOffer(ctx context.Context, id string) (*models.BankOffer, error)
	MatchOffers(ctx context.Context, prefs models.UserPreferences) ([]models.BankOffer, error)
	ListAllOffers(ctx context.Context) ([]models.BankOffer, error)
	CreateOffer(ctx context.Context, actor Actor, offer *models.BankOffer) error
	UpdateOffer(ctx context.Context, actor Actor, offer *models.BankOffer) error
	SetOfferActive(ctx context.Context, actor Actor, id string, active bool) (*models.BankOffer, error)
	SeedOffers(ctx context.Context, offers []models.BankOffer) (int, error)
}

// QuestionServiceInterface serves questionnaires and manages admin-defined questions
type QuestionServiceInterface interface {
	LoanTypes() []LoanType
	// Questionnaire resolves labelOrKey to a loan type and returns its questions and their source
	Questionnaire(ctx context.Context, labelOrKey string) (loanType string, questions []models.LoanQuestion, source string, err error)
	ListQuestions(ctx context.Context, loanType string) ([]models.LoanQuestion, error)
	CreateQuestion(ctx context.Context, actor Actor, question *models.LoanQuestion) error
	UpdateQuestion(ctx context.Context, actor Actor, id uuid.UUID, req *dto.UpdateQuestionRequest) (*models.LoanQuestion, error)
	DeleteQuestion(ctx context.Context, actor Actor, id uuid.UUID) error
	MoveQuestion(ctx context.Context, actor Actor, id uuid.UUID, direction repositories.MoveDirection) (*models.LoanQuestion, error)
	SeedDefaults(ctx context.Context, actor Actor, loanType string) (int, error)
}

// DocumentUpload is one file attached to an application
type DocumentUpload struct {
	DocumentType string
	FileName     string
	ContentType  string
	Content      io.Reader
}

// ApplicationServiceInterface runs the application wizard against persisted state
type ApplicationServiceInterface interface {
	CreateApplication(ctx context.Context, actor Actor, loanType string, answers map[string]string) (*models.LoanApplication, error)
	// GetApplication loads an application; a non-nil ownerID restricts it to that user
	GetApplication(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*models.LoanApplication, error)
	ListUserApplications(ctx context.Context, userID uuid.UUID, page, limit int) ([]*models.LoanApplication, int64, error)
	UploadDocument(ctx context.Context, actor Actor, applicationID uuid.UUID, upload DocumentUpload) (*models.ApplicationDocument, error)
	SubmitApplication(ctx context.Context, actor Actor, applicationID uuid.UUID) (*models.LoanApplication, error)
	ListApplications(ctx context.Context, filter repositories.ApplicationFilter, page, limit int) ([]*models.LoanApplication, int64, error)
	UpdateStatus(ctx context.Context, actor Actor, applicationID uuid.UUID, status, notes string) (*models.LoanApplication, error)
	ExportApplications(ctx context.Context, actor Actor, filter repositories.ApplicationFilter, w io.Writer) (int, error)
}

// DocumentServiceInterface stores uploaded document bytes
type DocumentServiceInterface interface {
	Store(ctx context.Context, ownerID, applicationID uuid.UUID, upload DocumentUpload) (storagePath string, size int64, err error)
	Remove(ctx context.Context, storagePath string) error
	Healthy() bool
}

// ExportServiceInterface renders applications as a spreadsheet
type ExportServiceInterface interface {
	WriteApplications(ctx context.Context, apps []*models.LoanApplication, w io.Writer) error
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

// AuditLoggerInterface emits structured operational events to the application log
type AuditLoggerInterface interface {
	LogBankMatch(ctx context.Context, prefs models.UserPreferences, catalogSize, matched int, durationMs int64)
	LogCatalogCache(ctx context.Context, key string, hit bool)
	LogApplicationStateChange(ctx context.Context, applicationID uuid.UUID, oldStatus, newStatus string)
	LogDocumentStored(ctx context.Context, applicationID uuid.UUID, documentType string, sizeBytes int64, replaced bool)
	LogDocumentStoreFailed(ctx context.Context, applicationID uuid.UUID, documentType, errorMsg string)
	LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string)
	LogQuestionMoved(ctx context.Context, questionID uuid.UUID, direction string, fromOrder, toOrder int)
	LogExportGenerated(ctx context.Context, rows int, durationMs int64)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}
