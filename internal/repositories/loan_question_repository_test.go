package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-compare/internal/database"
	"loan-compare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoanQuestionRepository(t *testing.T) {
	suite.Run(t, new(LoanQuestionRepositorySuite))
}

type LoanQuestionRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	db   *database.DB
	repo LoanQuestionRepositoryInterface
}

func (s *LoanQuestionRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestDB(s.T())
	s.repo = NewLoanQuestionRepository(s.db.DB)
}

func (s *LoanQuestionRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *LoanQuestionRepositorySuite) seed(loanType string, fields ...string) []models.LoanQuestion {
	questions := make([]models.LoanQuestion, len(fields))
	for i, field := range fields {
		questions[i] = models.LoanQuestion{
			LoanType:      loanType,
			Field:         field,
			Type:          models.QuestionTypeText,
			Label:         gofakeit.Question(),
			Required:      true,
			SequenceOrder: i + 1,
		}
	}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, questions))
	return questions
}

func (s *LoanQuestionRepositorySuite) fieldsOf(loanType string) []string {
	questions, err := s.repo.ListByLoanType(s.ctx, loanType)
	s.Require().NoError(err)
	fields := make([]string, len(questions))
	for i, q := range questions {
		fields[i] = q.Field
	}
	return fields
}

func (s *LoanQuestionRepositorySuite) TestListByLoanTypeOrdersBySequence() {
	s.seed(models.LoanTypeHome, "fullName", "email", "loanAmount")
	s.seed(models.LoanTypeCar, "carModel")

	s.Equal([]string{"fullName", "email", "loanAmount"}, s.fieldsOf(models.LoanTypeHome))

	count, err := s.repo.CountByLoanType(s.ctx, models.LoanTypeCar)
	s.NoError(err)
	s.Equal(int64(1), count)
}

func (s *LoanQuestionRepositorySuite) TestCreateDuplicateField() {
	s.seed(models.LoanTypeHome, "email")

	err := s.repo.Create(s.ctx, &models.LoanQuestion{
		LoanType: models.LoanTypeHome,
		Field:    "email",
		Type:     models.QuestionTypeText,
		Label:    "Email again",
	})
	s.Equal(ErrQuestionDuplicateField, err)

	// same field under another loan type is fine
	s.NoError(s.repo.Create(s.ctx, &models.LoanQuestion{
		LoanType: models.LoanTypeCar,
		Field:    "email",
		Type:     models.QuestionTypeText,
		Label:    "Email",
	}))
}

func (s *LoanQuestionRepositorySuite) TestCreateBatchIsAtomic() {
	err := s.repo.CreateBatch(s.ctx, []models.LoanQuestion{
		{LoanType: models.LoanTypeBusiness, Field: "businessName", Type: models.QuestionTypeText, Label: "Business name"},
		{LoanType: models.LoanTypeBusiness, Field: "businessName", Type: models.QuestionTypeText, Label: "Duplicate"},
	})
	s.Error(err)

	count, err := s.repo.CountByLoanType(s.ctx, models.LoanTypeBusiness)
	s.NoError(err)
	s.Zero(count)
}

func (s *LoanQuestionRepositorySuite) TestNextSequenceOrder() {
	next, err := s.repo.NextSequenceOrder(s.ctx, models.LoanTypeEducation)
	s.NoError(err)
	s.Equal(1, next)

	s.seed(models.LoanTypeEducation, "courseName", "institution")
	next, err = s.repo.NextSequenceOrder(s.ctx, models.LoanTypeEducation)
	s.NoError(err)
	s.Equal(3, next)
}

func (s *LoanQuestionRepositorySuite) TestUpdateAndDelete() {
	questions := s.seed(models.LoanTypePersonal, "loanPurpose")

	q, err := s.repo.GetByID(s.ctx, questions[0].ID)
	s.Require().NoError(err)
	q.Type = models.QuestionTypeRadio
	q.Options = models.QuestionOptions{{Value: "wedding", Label: "Wedding"}}
	s.Require().NoError(s.repo.Update(s.ctx, q))

	stored, err := s.repo.GetByID(s.ctx, q.ID)
	s.Require().NoError(err)
	s.True(stored.HasOption("wedding"))

	s.NoError(s.repo.Delete(s.ctx, q.ID))
	_, err = s.repo.GetByID(s.ctx, q.ID)
	s.Equal(ErrQuestionNotFound, err)
	s.Equal(ErrQuestionNotFound, s.repo.Delete(s.ctx, q.ID))
}

func (s *LoanQuestionRepositorySuite) TestMoveSwapsWithNeighbour() {
	questions := s.seed(models.LoanTypeHome, "a", "b", "c")

	moved, err := s.repo.Move(s.ctx, questions[2].ID, MoveUp)
	s.Require().NoError(err)
	s.Equal(2, moved.SequenceOrder)
	s.Equal([]string{"a", "c", "b"}, s.fieldsOf(models.LoanTypeHome))

	moved, err = s.repo.Move(s.ctx, questions[0].ID, MoveDown)
	s.Require().NoError(err)
	s.Equal(2, moved.SequenceOrder)
	s.Equal([]string{"c", "a", "b"}, s.fieldsOf(models.LoanTypeHome))
}

func (s *LoanQuestionRepositorySuite) TestMoveAtBoundary() {
	questions := s.seed(models.LoanTypeHome, "first", "last")
	s.seed(models.LoanTypeCar, "other")

	_, err := s.repo.Move(s.ctx, questions[0].ID, MoveUp)
	s.Equal(ErrQuestionCannotMove, err)

	// neighbours never cross loan types
	_, err = s.repo.Move(s.ctx, questions[1].ID, MoveDown)
	s.Equal(ErrQuestionCannotMove, err)

	_, err = s.repo.Move(s.ctx, uuid.New(), MoveUp)
	s.Equal(ErrQuestionNotFound, err)

	s.Equal([]string{"first", "last"}, s.fieldsOf(models.LoanTypeHome))
}

func (s *LoanQuestionRepositorySuite) seedOrders(loanType string, orders map[string]int, fields ...string) []models.LoanQuestion {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	questions := make([]models.LoanQuestion, len(fields))
	for i, field := range fields {
		questions[i] = models.LoanQuestion{
			LoanType:      loanType,
			Field:         field,
			Type:          models.QuestionTypeText,
			Label:         gofakeit.Question(),
			SequenceOrder: orders[field],
			CreatedAt:     created.Add(time.Duration(i) * time.Minute),
		}
	}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, questions))
	return questions
}

func (s *LoanQuestionRepositorySuite) ordersOf(loanType string) []int {
	questions, err := s.repo.ListByLoanType(s.ctx, loanType)
	s.Require().NoError(err)
	orders := make([]int, len(questions))
	for i, q := range questions {
		orders[i] = q.SequenceOrder
	}
	return orders
}

func (s *LoanQuestionRepositorySuite) TestMoveWithTiedOrders() {
	orders := map[string]int{"a": 1, "b": 2, "c": 2, "d": 3}

	s.Run("down past a tied neighbour", func() {
		questions := s.seedOrders(models.LoanTypeHome, orders, "a", "b", "c", "d")
		s.Require().Equal([]string{"a", "b", "c", "d"}, s.fieldsOf(models.LoanTypeHome))

		moved, err := s.repo.Move(s.ctx, questions[1].ID, MoveDown)
		s.Require().NoError(err)
		s.Equal(3, moved.SequenceOrder)
		s.Equal([]string{"a", "c", "b", "d"}, s.fieldsOf(models.LoanTypeHome))
		s.Equal([]int{1, 2, 3, 4}, s.ordersOf(models.LoanTypeHome))
	})

	s.Run("up past a tied neighbour", func() {
		questions := s.seedOrders(models.LoanTypeCar, orders, "a", "b", "c", "d")

		moved, err := s.repo.Move(s.ctx, questions[2].ID, MoveUp)
		s.Require().NoError(err)
		s.Equal(2, moved.SequenceOrder)
		s.Equal([]string{"a", "c", "b", "d"}, s.fieldsOf(models.LoanTypeCar))
		s.Equal([]int{1, 2, 3, 4}, s.ordersOf(models.LoanTypeCar))
	})

	s.Run("elsewhere in a list with ties", func() {
		questions := s.seedOrders(models.LoanTypePersonal, orders, "a", "b", "c", "d")

		_, err := s.repo.Move(s.ctx, questions[3].ID, MoveUp)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b", "d", "c"}, s.fieldsOf(models.LoanTypePersonal))
		s.Equal([]int{1, 2, 3, 4}, s.ordersOf(models.LoanTypePersonal))
	})
}

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

type questionRow struct {
	id    uuid.UUID
	field string
	order int
}

func questionRows(rows ...questionRow) *sqlmock.Rows {
	result := sqlmock.NewRows([]string{"id", "loan_type", "field", "type", "label", "required", "sequence_order"})
	for _, r := range rows {
		result.AddRow(r.id.String(), models.LoanTypeHome, r.field, models.QuestionTypeText, r.field, true, r.order)
	}
	return result
}

const orderedQuestionsQuery = `SELECT \* FROM "loan_questions" WHERE loan_type = .* ORDER BY sequence_order ASC, created_at ASC, id ASC FOR UPDATE`

func TestLoanQuestionRepository_MoveRunsInOneTransaction(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewLoanQuestionRepository(db)
	movedID, neighbourID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "loan_questions" WHERE id = .* FOR UPDATE`).
		WillReturnRows(questionRows(questionRow{movedID, "propertyType", 3}))
	mock.ExpectQuery(orderedQuestionsQuery).
		WillReturnRows(questionRows(
			questionRow{uuid.New(), "fullName", 1},
			questionRow{neighbourID, "loanAmount", 2},
			questionRow{movedID, "propertyType", 3},
		))
	mock.ExpectExec(`UPDATE "loan_questions" SET "sequence_order"=`).
		WithArgs(2, movedID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "loan_questions" SET "sequence_order"=`).
		WithArgs(3, neighbourID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	moved, err := repo.Move(context.Background(), movedID, MoveUp)

	require.NoError(t, err)
	assert.Equal(t, 2, moved.SequenceOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanQuestionRepository_MoveRollsBackOnFailure(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewLoanQuestionRepository(db)
	movedID, neighbourID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "loan_questions" WHERE id = .* FOR UPDATE`).
		WillReturnRows(questionRows(questionRow{movedID, "propertyType", 3}))
	mock.ExpectQuery(orderedQuestionsQuery).
		WillReturnRows(questionRows(
			questionRow{movedID, "propertyType", 3},
			questionRow{neighbourID, "propertyValue", 4},
		))
	mock.ExpectExec(`UPDATE "loan_questions" SET "sequence_order"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "loan_questions" SET "sequence_order"=`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	moved, err := repo.Move(context.Background(), movedID, MoveDown)

	assert.Nil(t, moved)
	assert.ErrorContains(t, err, "failed to update neighbour order")
	assert.NoError(t, mock.ExpectationsWereMet())
}
