package repositories

import (
	"context"
	"testing"
	"time"

	"loan-compare/internal/database"
	"loan-compare/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestAuditLogRepository(t *testing.T) {
	suite.Run(t, new(AuditLogRepositorySuite))
}

type AuditLogRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	db   *database.DB
	repo AuditLogRepositoryInterface
}

func (s *AuditLogRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestDB(s.T())
	s.repo = NewAuditLogRepository(s.db.DB)
}

func (s *AuditLogRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *AuditLogRepositorySuite) TestAuditLogRepository_Create() {
	userID := uuid.New()
	log := models.NewAuditLog(&userID, models.AuditActionLogin, models.AuditResourceUser, userID.String())
	log.IPAddress = "192.168.1.1"

	s.NoError(s.repo.Create(s.ctx, log))
	s.NotEqual(uuid.Nil, log.ID)
	s.NotZero(log.CreatedAt)
}

func (s *AuditLogRepositorySuite) TestAuditLogRepository_CreateWithoutUserID() {
	log := models.NewAuditLog(nil, models.AuditActionFailedLogin, models.AuditResourceUser, "")
	log.SetMetadata("email", "someone@example.com")

	s.NoError(s.repo.Create(s.ctx, log))
	s.Nil(log.UserID)
}

func (s *AuditLogRepositorySuite) TestAuditLogRepository_CreateNil() {
	s.Error(s.repo.Create(s.ctx, nil))
}

func (s *AuditLogRepositorySuite) TestAuditLogRepository_Queries() {
	userID := uuid.New()
	appID := uuid.New().String()

	entries := []*models.AuditLog{
		models.NewAuditLog(&userID, models.AuditActionApplicationCreated, models.AuditResourceApplication, appID),
		models.NewAuditLog(&userID, models.AuditActionDocumentUploaded, models.AuditResourceApplication, appID),
		models.NewAuditLog(&userID, models.AuditActionApplicationSubmit, models.AuditResourceApplication, appID),
		models.NewAuditLog(nil, models.AuditActionQuestionMoved, models.AuditResourceQuestion, uuid.NewString()),
	}
	for i, entry := range entries {
		entry.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.repo.Create(s.ctx, entry))
	}

	logs, total, err := s.repo.GetByUserID(s.ctx, userID, 0, 2)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Len(logs, 2)
	s.Equal(models.AuditActionApplicationSubmit, logs[0].Action)

	logs, total, err = s.repo.GetByResource(s.ctx, models.AuditResourceApplication, appID, 0, 10)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Len(logs, 3)

	logs, total, err = s.repo.GetByAction(s.ctx, models.AuditActionQuestionMoved, 0, 10)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Nil(logs[0].UserID)

	logs, total, err = s.repo.List(s.ctx, 0, 10)
	s.NoError(err)
	s.Equal(int64(4), total)
	s.Equal(models.AuditActionQuestionMoved, logs[0].Action)
}

func (s *AuditLogRepositorySuite) TestAuditLogRepository_DeleteOlderThan() {
	old := models.NewAuditLog(nil, models.AuditActionLogin, models.AuditResourceUser, "")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	recent := models.NewAuditLog(nil, models.AuditActionLogin, models.AuditResourceUser, "")
	s.Require().NoError(s.repo.Create(s.ctx, old))
	s.Require().NoError(s.repo.Create(s.ctx, recent))

	deleted, err := s.repo.DeleteOlderThan(s.ctx, 24*time.Hour)
	s.NoError(err)
	s.Equal(int64(1), deleted)
}

func TestBlacklistedTokenRepository(t *testing.T) {
	ctx := context.Background()
	db := database.SetupTestDB(t)
	repo := NewBlacklistedTokenRepository(db.DB)
	user := database.CreateTestUser(t, db, "logout@example.com")

	jti := uuid.NewString()
	token := models.NewBlacklistedToken(jti, user.ID, time.Now().Add(time.Hour))

	if err := repo.Create(ctx, token); err != nil {
		t.Fatalf("create: %v", err)
	}
	// second logout with the same token
	if err := repo.Create(ctx, models.NewBlacklistedToken(jti, user.ID, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("duplicate create should be ignored: %v", err)
	}

	found, err := repo.GetByJTI(ctx, jti)
	if err != nil || found.UserID != user.ID {
		t.Fatalf("GetByJTI = %v, %v", found, err)
	}

	if _, err := repo.GetByJTI(ctx, "missing"); err != ErrTokenNotFound {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	expired := models.NewBlacklistedToken(uuid.NewString(), user.ID, time.Now().Add(-time.Hour))
	if err := repo.Create(ctx, expired); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	removed, err := repo.DeleteExpired(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("DeleteExpired = %d, %v", removed, err)
	}
}
