package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"loan-compare/internal/models"
	"loan-compare/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var (
	ErrApplicationNotFound   = errors.New("loan application not found")
	ErrApplicationSubmitted  = errors.New("application has already been submitted")
	ErrInvalidLoanAmount     = errors.New("loan amount must be a positive number")
	ErrInvalidMonthlyIncome  = errors.New("monthly income must be a positive number")
	ErrStatusChangeForbidden = errors.New("application status change not allowed")
)

// ApplicationService persists applications produced by the wizard and runs the
// document and review steps that follow
type ApplicationService struct {
	appRepo         repositories.LoanApplicationRepositoryInterface
	docRepo         repositories.ApplicationDocumentRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	questionService QuestionServiceInterface
	documentService DocumentServiceInterface
	exportService   ExportServiceInterface
	auditService    AuditServiceInterface
	auditLogger     AuditLoggerInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

func NewApplicationService(
	appRepo repositories.LoanApplicationRepositoryInterface,
	docRepo repositories.ApplicationDocumentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	questionService QuestionServiceInterface,
	documentService DocumentServiceInterface,
	exportService ExportServiceInterface,
	auditService AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) ApplicationServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationService{
		appRepo:         appRepo,
		docRepo:         docRepo,
		userRepo:        userRepo,
		questionService: questionService,
		documentService: documentService,
		exportService:   exportService,
		auditService:    auditService,
		auditLogger:     auditLogger,
		metrics:         metrics,
		logger:          logger,
	}
}

// wizardStore is the wizard's view of the service, bound to the acting user
type wizardStore struct {
	svc   *ApplicationService
	actor Actor
}

func (w wizardStore) CreateApplication(ctx context.Context, userID uuid.UUID, loanType string, answers map[string]string) (*models.LoanApplication, error) {
	return w.svc.persist(ctx, w.actor, userID, loanType, answers)
}

func (w wizardStore) SubmitApplication(ctx context.Context, app *models.LoanApplication) error {
	return w.svc.markSubmitted(ctx, w.actor, app)
}

// CreateApplication replays answers through the loan type's questionnaire. The
// application is stored in pending_documents once every question is satisfied.
func (s *ApplicationService) CreateApplication(ctx context.Context, actor Actor, loanType string, answers map[string]string) (*models.LoanApplication, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrLoginRequired
	}

	key, questions, _, err := s.questionService.Questionnaire(ctx, loanType)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}

	wizard := NewApplicationWizard(key, questions, wizardStore{svc: s, actor: actor})
	wizard.Authenticate(actor.UserID)

	for wizard.State() == WizardAnswering {
		if err := wizard.Answer(answers[wizard.Current().Field]); err != nil {
			return nil, err
		}
		if err := wizard.Next(ctx); err != nil {
			return nil, err
		}
	}

	return wizard.Application(), nil
}

func (s *ApplicationService) persist(ctx context.Context, actor Actor, userID uuid.UUID, loanType string, answers map[string]string) (*models.LoanApplication, error) {
	app, err := s.buildApplication(ctx, userID, loanType, answers)
	if err != nil {
		return nil, err
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionApplicationCreated, models.AuditResourceApplication, app.ID.String(),
		models.JSONBMap{"loan_type": app.LoanType})
	s.stateChanged(ctx, app, "")
	return app, nil
}

func (s *ApplicationService) buildApplication(ctx context.Context, userID uuid.UUID, loanType string, answers map[string]string) (*models.LoanApplication, error) {
	loanAmount, err := parseAmount(answers["loanAmount"])
	if err != nil {
		return nil, ErrInvalidLoanAmount
	}
	monthlyIncome, err := parseAmount(answers["monthlyIncome"])
	if err != nil {
		return nil, ErrInvalidMonthlyIncome
	}

	name := strings.TrimSpace(answers["fullName"])
	email := strings.TrimSpace(answers["email"])
	phone := strings.TrimSpace(answers["phone"])
	if name == "" || email == "" {
		// custom questionnaires may drop the contact questions
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load applicant: %w", err)
		}
		if name == "" {
			name = user.FullName
		}
		if email == "" {
			email = user.Email
		}
		if phone == "" {
			phone = user.Phone
		}
	}

	data := make(models.JSONBMap, len(answers))
	for k, v := range answers {
		data[k] = v
	}

	return &models.LoanApplication{
		UserID:           userID,
		ApplicantName:    name,
		Email:            email,
		Phone:            phone,
		LoanType:         loanType,
		LoanAmount:       loanAmount,
		MonthlyIncome:    monthlyIncome,
		CreditScore:      models.CreditScoreFromBucket(answers["creditScore"]),
		EmploymentStatus: answers["employmentType"],
		ApplicationData:  data,
		Status:           models.ApplicationStatusPendingDocuments,
	}, nil
}

// parseAmount accepts digit grouping and a leading rupee sign
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(raw)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return amount.Round(2), nil
}

func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*models.LoanApplication, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	// another user's application is reported as missing
	if ownerID != nil && !app.BelongsTo(*ownerID) {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) ListUserApplications(ctx context.Context, userID uuid.UUID, page, limit int) ([]*models.LoanApplication, int64, error) {
	return s.ListApplications(ctx, repositories.ApplicationFilter{UserID: &userID}, page, limit)
}

func (s *ApplicationService) ListApplications(ctx context.Context, filter repositories.ApplicationFilter, page, limit int) ([]*models.LoanApplication, int64, error) {
	page, limit = normalizePage(page, limit)
	apps, total, err := s.appRepo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

// UploadDocument stores one required document, replacing an earlier upload of the same type
func (s *ApplicationService) UploadDocument(ctx context.Context, actor Actor, applicationID uuid.UUID, upload DocumentUpload) (*models.ApplicationDocument, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrLoginRequired
	}
	if !models.IsValidDocumentType(upload.DocumentType) {
		return nil, models.ErrInvalidDocumentType
	}

	app, err := s.GetApplication(ctx, applicationID, &actor.UserID)
	if err != nil {
		return nil, err
	}
	if !app.IsAwaitingDocuments() {
		return nil, ErrApplicationSubmitted
	}

	path, size, err := s.documentService.Store(ctx, app.UserID, app.ID, upload)
	if err != nil {
		return nil, err
	}

	doc := &models.ApplicationDocument{
		ApplicationID: app.ID,
		UserID:        app.UserID,
		DocumentType:  upload.DocumentType,
		FileName:      upload.FileName,
		StoragePath:   path,
		ContentType:   upload.ContentType,
		SizeBytes:     size,
	}

	replaced, err := s.docRepo.Upsert(ctx, doc)
	if err != nil {
		if rmErr := s.documentService.Remove(ctx, path); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned document", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}
	if replaced != nil && replaced.StoragePath != path {
		if err := s.documentService.Remove(ctx, replaced.StoragePath); err != nil {
			s.logger.WarnContext(ctx, "failed to remove replaced document", "path", replaced.StoragePath, "error", err)
		}
	}

	if s.auditLogger != nil {
		s.auditLogger.LogDocumentStored(ctx, app.ID, doc.DocumentType, size, replaced != nil)
	}
	s.auditService.Record(ctx, actor, models.AuditActionDocumentUploaded, models.AuditResourceApplication, app.ID.String(),
		models.JSONBMap{"document_type": doc.DocumentType, "size_bytes": size})
	return doc, nil
}

// SubmitApplication moves the application to pending once every required document is attached
func (s *ApplicationService) SubmitApplication(ctx context.Context, actor Actor, applicationID uuid.UUID) (*models.LoanApplication, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrLoginRequired
	}

	app, err := s.GetApplication(ctx, applicationID, &actor.UserID)
	if err != nil {
		return nil, err
	}

	attached, err := s.docRepo.DocumentTypes(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attached documents: %w", err)
	}

	wizard := ResumeApplicationWizard(app, wizardStore{svc: s, actor: actor})
	wizard.Authenticate(actor.UserID)
	if err := wizard.Submit(ctx, attached); err != nil {
		if errors.Is(err, ErrWizardWrongState) {
			return nil, ErrApplicationSubmitted
		}
		return nil, err
	}

	return wizard.Application(), nil
}

func (s *ApplicationService) markSubmitted(ctx context.Context, actor Actor, app *models.LoanApplication) error {
	previousStatus, previousSubmittedAt := app.Status, app.SubmittedAt
	if err := app.MarkSubmitted(); err != nil {
		return ErrApplicationSubmitted
	}

	if err := s.appRepo.Update(ctx, app); err != nil {
		app.Status, app.SubmittedAt = previousStatus, previousSubmittedAt
		return fmt.Errorf("failed to submit application: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionApplicationSubmit, models.AuditResourceApplication, app.ID.String(), nil)
	s.stateChanged(ctx, app, previousStatus)
	return nil
}

// UpdateStatus applies a back-office review decision
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor Actor, applicationID uuid.UUID, status, notes string) (*models.LoanApplication, error) {
	app, err := s.GetApplication(ctx, applicationID, nil)
	if err != nil {
		return nil, err
	}

	previous := *app
	if err := app.Review(status, notes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusChangeForbidden, err)
	}

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionStatusChanged, models.AuditResourceApplication, app.ID.String(),
		models.JSONBMap{"from": previous.Status, "to": app.Status})
	s.stateChanged(ctx, app, previous.Status)
	return app, nil
}

// ExportApplications writes every application matching filter to w as XLSX and returns the row count
func (s *ApplicationService) ExportApplications(ctx context.Context, actor Actor, filter repositories.ApplicationFilter, w io.Writer) (int, error) {
	apps, err := s.appRepo.ListAll(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to load applications for export: %w", err)
	}

	start := time.Now()
	if err := s.exportService.WriteApplications(ctx, apps, w); err != nil {
		return 0, err
	}
	elapsed := time.Since(start)

	if s.auditLogger != nil {
		s.auditLogger.LogExportGenerated(ctx, len(apps), elapsed.Milliseconds())
	}
	if s.metrics != nil {
		s.metrics.RecordProcessingTime("applications_export", elapsed)
	}
	s.auditService.Record(ctx, actor, models.AuditActionApplicationsExport, models.AuditResourceApplication, "",
		models.JSONBMap{"rows": len(apps), "status": filter.Status, "loan_type": filter.LoanType})
	return len(apps), nil
}

func (s *ApplicationService) stateChanged(ctx context.Context, app *models.LoanApplication, from string) {
	if s.auditLogger != nil {
		s.auditLogger.LogApplicationStateChange(ctx, app.ID, from, app.Status)
	}
	if s.metrics != nil {
		s.metrics.IncrementCounter("applications_total", map[string]string{
			"loan_type": app.LoanType,
			"status":    app.Status,
		})
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
