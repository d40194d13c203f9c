package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/repositories/repository_mocks"
	"loan-compare/internal/storage"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ApplicationServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	appRepo   *repository_mocks.MockLoanApplicationRepositoryInterface
	docRepo   *repository_mocks.MockApplicationDocumentRepositoryInterface
	userRepo  *repository_mocks.MockUserRepositoryInterface
	auditRepo *repository_mocks.MockAuditLogRepositoryInterface
	store     *flakyStore
	metrics   *recordingMetrics
	service   ApplicationServiceInterface
	actor     Actor
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceTestSuite))
}

func (s *ApplicationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.appRepo = repository_mocks.NewMockLoanApplicationRepositoryInterface(s.ctrl)
	s.docRepo = repository_mocks.NewMockApplicationDocumentRepositoryInterface(s.ctrl)
	s.userRepo = repository_mocks.NewMockUserRepositoryInterface(s.ctrl)
	s.auditRepo = repository_mocks.NewMockAuditLogRepositoryInterface(s.ctrl)
	s.store = &flakyStore{}
	s.metrics = &recordingMetrics{}

	auditLogger := NewAuditLogger(discardLogger())
	breaker := NewCircuitBreaker(DefaultCircuitBreakerConfig("documents"))

	s.service = NewApplicationService(
		s.appRepo,
		s.docRepo,
		s.userRepo,
		NewQuestionService(nil, nil, nil, discardLogger()),
		NewDocumentService(s.store, breaker, auditLogger, s.metrics),
		NewExportService(),
		NewAuditService(s.auditRepo, discardLogger()),
		auditLogger,
		s.metrics,
		discardLogger(),
	)
	s.actor = Actor{UserID: uuid.New(), IPAddress: gofakeit.IPv4Address(), UserAgent: gofakeit.UserAgent()}
}

func (s *ApplicationServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ApplicationServiceTestSuite) personalAnswers() map[string]string {
	return map[string]string{
		"fullName":       "Asha Rao",
		"dateOfBirth":    "14/02/1990",
		"email":          "asha@example.com",
		"phone":          "9876543210",
		"address":        gofakeit.Street(),
		"loanAmount":     "5,00,000",
		"loanPurpose":    "medical",
		"employmentType": "salaried",
		"monthlyIncome":  "85000.50",
		"employerName":   gofakeit.Company(),
		"creditScore":    "700-749",
		"existingLoans":  "none",
		"loanTenure":     "24",
	}
}

func (s *ApplicationServiceTestSuite) pendingApp() *models.LoanApplication {
	return &models.LoanApplication{
		ID:            uuid.New(),
		UserID:        s.actor.UserID,
		ApplicantName: "Asha Rao",
		Email:         "asha@example.com",
		LoanType:      models.LoanTypePersonal,
		LoanAmount:    decimal.NewFromInt(500000),
		MonthlyIncome: decimal.NewFromInt(85000),
		Status:        models.ApplicationStatusPendingDocuments,
	}
}

func (s *ApplicationServiceTestSuite) expectAudit(action string) {
	s.auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *models.AuditLog) error {
			s.Equal(action, l.Action)
			return nil
		})
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_PersistsMappedFields() {
	s.appRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, app *models.LoanApplication) error {
			app.ID = uuid.New()
			return nil
		})
	s.expectAudit(models.AuditActionApplicationCreated)

	app, err := s.service.CreateApplication(s.ctx, s.actor, "Personal Loan", s.personalAnswers())
	s.Require().NoError(err)

	s.Equal(s.actor.UserID, app.UserID)
	s.Equal(models.LoanTypePersonal, app.LoanType)
	s.Equal("Asha Rao", app.ApplicantName)
	s.Equal("asha@example.com", app.Email)
	s.Equal("9876543210", app.Phone)
	s.True(decimal.NewFromInt(500000).Equal(app.LoanAmount))
	s.True(decimal.RequireFromString("85000.50").Equal(app.MonthlyIncome))
	s.Require().NotNil(app.CreditScore)
	s.Equal(700, *app.CreditScore)
	s.Equal("salaried", app.EmploymentStatus)
	s.Equal("medical", app.ApplicationData.GetString("loanPurpose"))
	s.Equal(models.ApplicationStatusPendingDocuments, app.Status)
	s.Equal([]map[string]string{{"loan_type": "personal", "status": "pending_documents"}}, s.metrics.counted("applications_total"))
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_RequiresLogin() {
	_, err := s.service.CreateApplication(s.ctx, Actor{}, "personal", s.personalAnswers())
	s.ErrorIs(err, ErrLoginRequired)
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_MissingAnswer() {
	answers := s.personalAnswers()
	delete(answers, "employerName")

	_, err := s.service.CreateApplication(s.ctx, s.actor, "personal", answers)

	var missing *MissingAnswerError
	s.Require().ErrorAs(err, &missing)
	s.Equal("employerName", missing.Field)
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_InvalidOption() {
	answers := s.personalAnswers()
	answers["loanTenure"] = "999"

	_, err := s.service.CreateApplication(s.ctx, s.actor, "personal", answers)
	s.ErrorIs(err, ErrAnswerNotAnOption)
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_InvalidAmount() {
	answers := s.personalAnswers()
	answers["loanAmount"] = "a lot"

	_, err := s.service.CreateApplication(s.ctx, s.actor, "personal", answers)
	s.ErrorIs(err, ErrInvalidLoanAmount)

	answers["loanAmount"] = "100000"
	answers["monthlyIncome"] = "-5"
	_, err = s.service.CreateApplication(s.ctx, s.actor, "personal", answers)
	s.ErrorIs(err, ErrInvalidMonthlyIncome)
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_CreditScoreBucket() {
	answers := s.personalAnswers()
	s.appRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.expectAudit(models.AuditActionApplicationCreated)

	answers["creditScore"] = "750+"
	app, err := s.service.CreateApplication(s.ctx, s.actor, "personal", answers)
	s.Require().NoError(err)
	s.Equal(750, *app.CreditScore)

	s.Nil(models.CreditScoreFromBucket("excellent"))
}

func (s *ApplicationServiceTestSuite) TestCreateApplication_RepositoryFailure() {
	s.appRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	_, err := s.service.CreateApplication(s.ctx, s.actor, "personal", s.personalAnswers())
	s.ErrorContains(err, "failed to save application")
}

func (s *ApplicationServiceTestSuite) TestGetApplication_Ownership() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil).Times(3)

	got, err := s.service.GetApplication(s.ctx, app.ID, &s.actor.UserID)
	s.NoError(err)
	s.Equal(app, got)

	stranger := uuid.New()
	_, err = s.service.GetApplication(s.ctx, app.ID, &stranger)
	s.ErrorIs(err, ErrApplicationNotFound)

	_, err = s.service.GetApplication(s.ctx, app.ID, nil)
	s.NoError(err)
}

func (s *ApplicationServiceTestSuite) TestGetApplication_NotFound() {
	id := uuid.New()
	s.appRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, repositories.ErrApplicationNotFound)

	_, err := s.service.GetApplication(s.ctx, id, nil)
	s.ErrorIs(err, ErrApplicationNotFound)
}

func (s *ApplicationServiceTestSuite) TestListUserApplications_Paginates() {
	s.appRepo.EXPECT().
		List(gomock.Any(), repositories.ApplicationFilter{UserID: &s.actor.UserID}, 40, 20).
		Return([]*models.LoanApplication{}, int64(41), nil)

	_, total, err := s.service.ListUserApplications(s.ctx, s.actor.UserID, 3, 20)
	s.NoError(err)
	s.Equal(int64(41), total)
}

func (s *ApplicationServiceTestSuite) TestListApplications_ClampsPaging() {
	filter := repositories.ApplicationFilter{Status: models.ApplicationStatusPending}
	s.appRepo.EXPECT().List(gomock.Any(), filter, 0, maxPageSize).Return(nil, int64(0), nil)

	_, _, err := s.service.ListApplications(s.ctx, filter, 0, 1000)
	s.NoError(err)
}

func (s *ApplicationServiceTestSuite) TestUploadDocument() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.expectAudit(models.AuditActionDocumentUploaded)

	doc, err := s.service.UploadDocument(s.ctx, s.actor, app.ID, DocumentUpload{
		DocumentType: models.DocumentTypePanCard,
		FileName:     "pan.pdf",
		ContentType:  "application/pdf",
		Content:      strings.NewReader("pdf-bytes"),
	})
	s.Require().NoError(err)
	s.Equal(models.DocumentTypePanCard, doc.DocumentType)
	s.Equal(int64(9), doc.SizeBytes)
	s.Equal(storage.StoragePath(app.UserID, app.ID, models.DocumentTypePanCard, "pan.pdf"), doc.StoragePath)
}

func (s *ApplicationServiceTestSuite) TestUploadDocument_ReplacementRemovesOldFile() {
	app := s.pendingApp()
	old := &models.ApplicationDocument{StoragePath: "old/path/pan_card/first.pdf"}

	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(old, nil)
	s.expectAudit(models.AuditActionDocumentUploaded)

	_, err := s.service.UploadDocument(s.ctx, s.actor, app.ID, DocumentUpload{
		DocumentType: models.DocumentTypePanCard,
		FileName:     "second.pdf",
		Content:      strings.NewReader("x"),
	})
	s.Require().NoError(err)
	s.Equal([]string{old.StoragePath}, s.store.deleted)
}

func (s *ApplicationServiceTestSuite) TestUploadDocument_MetadataFailureRemovesFile() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))

	_, err := s.service.UploadDocument(s.ctx, s.actor, app.ID, DocumentUpload{
		DocumentType: models.DocumentTypeAddressProof,
		FileName:     "bill.pdf",
		Content:      strings.NewReader("x"),
	})
	s.Error(err)
	s.Len(s.store.deleted, 1)
}

func (s *ApplicationServiceTestSuite) TestUploadDocument_Rejections() {
	upload := DocumentUpload{DocumentType: models.DocumentTypePanCard, FileName: "a.pdf", Content: strings.NewReader("x")}

	_, err := s.service.UploadDocument(s.ctx, Actor{}, uuid.New(), upload)
	s.ErrorIs(err, ErrLoginRequired)

	_, err = s.service.UploadDocument(s.ctx, s.actor, uuid.New(), DocumentUpload{DocumentType: "passport"})
	s.ErrorIs(err, models.ErrInvalidDocumentType)

	submitted := s.pendingApp()
	submitted.Status = models.ApplicationStatusPending
	s.appRepo.EXPECT().GetByID(gomock.Any(), submitted.ID).Return(submitted, nil)
	_, err = s.service.UploadDocument(s.ctx, s.actor, submitted.ID, upload)
	s.ErrorIs(err, ErrApplicationSubmitted)
	s.Zero(s.store.saves)
}

func (s *ApplicationServiceTestSuite) TestSubmitApplication_MissingDocuments() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().DocumentTypes(gomock.Any(), app.ID).Return([]string{models.DocumentTypePanCard}, nil)

	_, err := s.service.SubmitApplication(s.ctx, s.actor, app.ID)

	var missing *MissingDocumentsError
	s.Require().ErrorAs(err, &missing)
	s.Len(missing.Types, 4)
	s.Equal(models.ApplicationStatusPendingDocuments, app.Status)
}

func (s *ApplicationServiceTestSuite) TestSubmitApplication() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().DocumentTypes(gomock.Any(), app.ID).Return(models.RequiredDocumentTypes, nil)
	s.appRepo.EXPECT().Update(gomock.Any(), app).Return(nil)
	s.expectAudit(models.AuditActionApplicationSubmit)

	got, err := s.service.SubmitApplication(s.ctx, s.actor, app.ID)
	s.Require().NoError(err)
	s.Equal(models.ApplicationStatusPending, got.Status)
	s.NotNil(got.SubmittedAt)
}

func (s *ApplicationServiceTestSuite) TestSubmitApplication_UpdateFailureRestoresStatus() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().DocumentTypes(gomock.Any(), app.ID).Return(models.RequiredDocumentTypes, nil)
	s.appRepo.EXPECT().Update(gomock.Any(), app).Return(errors.New("write failed"))

	_, err := s.service.SubmitApplication(s.ctx, s.actor, app.ID)
	s.Error(err)
	s.Equal(models.ApplicationStatusPendingDocuments, app.Status)
	s.Nil(app.SubmittedAt)
}

func (s *ApplicationServiceTestSuite) TestSubmitApplication_AlreadySubmitted() {
	app := s.pendingApp()
	app.Status = models.ApplicationStatusUnderReview
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.docRepo.EXPECT().DocumentTypes(gomock.Any(), app.ID).Return(models.RequiredDocumentTypes, nil)

	_, err := s.service.SubmitApplication(s.ctx, s.actor, app.ID)
	s.ErrorIs(err, ErrApplicationSubmitted)
}

func (s *ApplicationServiceTestSuite) TestSubmitApplication_RequiresLogin() {
	_, err := s.service.SubmitApplication(s.ctx, Actor{}, uuid.New())
	s.ErrorIs(err, ErrLoginRequired)
}

func (s *ApplicationServiceTestSuite) TestUpdateStatus() {
	app := s.pendingApp()
	app.Status = models.ApplicationStatusPending
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	s.appRepo.EXPECT().Update(gomock.Any(), app).Return(nil)
	s.auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *models.AuditLog) error {
			s.Equal(models.AuditActionStatusChanged, l.Action)
			s.Equal("pending", l.Metadata["from"])
			s.Equal("approved", l.Metadata["to"])
			return nil
		})

	got, err := s.service.UpdateStatus(s.ctx, s.actor, app.ID, models.ApplicationStatusApproved, "documents verified")
	s.Require().NoError(err)
	s.Equal(models.ApplicationStatusApproved, got.Status)
	s.Equal("documents verified", got.ReviewNotes)
	s.NotNil(got.ReviewedAt)
}

func (s *ApplicationServiceTestSuite) TestUpdateStatus_InvalidTransition() {
	app := s.pendingApp()
	s.appRepo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)

	_, err := s.service.UpdateStatus(s.ctx, s.actor, app.ID, models.ApplicationStatusApproved, "")
	s.ErrorIs(err, ErrStatusChangeForbidden)
	s.Equal(models.ApplicationStatusPendingDocuments, app.Status)
}

func (s *ApplicationServiceTestSuite) TestExportApplications() {
	filter := repositories.ApplicationFilter{LoanType: models.LoanTypePersonal}
	app := s.pendingApp()
	app.CreatedAt = time.Now()
	s.appRepo.EXPECT().ListAll(gomock.Any(), filter).Return([]*models.LoanApplication{app}, nil)
	s.expectAudit(models.AuditActionApplicationsExport)

	var buf bytes.Buffer
	rows, err := s.service.ExportApplications(s.ctx, s.actor, filter, &buf)
	s.Require().NoError(err)
	s.Equal(1, rows)
	s.NotZero(buf.Len())
	s.Contains(s.metrics.timings, "applications_export")
}
