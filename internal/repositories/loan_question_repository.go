package repositories

import (
	"context"
	"errors"
	"fmt"

	"loan-compare/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrQuestionNotFound       = errors.New("loan question not found")
	ErrQuestionDuplicateField = errors.New("question field already exists for loan type")
	ErrQuestionCannotMove     = errors.New("question has no neighbour in that direction")
)

type LoanQuestionRepository struct {
	db *gorm.DB
}

func NewLoanQuestionRepository(db *gorm.DB) LoanQuestionRepositoryInterface {
	return &LoanQuestionRepository{db: db}
}

func (r *LoanQuestionRepository) ListByLoanType(ctx context.Context, loanType string) ([]models.LoanQuestion, error) {
	var questions []models.LoanQuestion
	if err := r.db.WithContext(ctx).
		Where("loan_type = ?", loanType).
		Order("sequence_order ASC, created_at ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (r *LoanQuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LoanQuestion, error) {
	var question models.LoanQuestion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (r *LoanQuestionRepository) Create(ctx context.Context, question *models.LoanQuestion) error {
	if question == nil {
		return errors.New("question cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrQuestionDuplicateField
		}
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// CreateBatch inserts all questions or none
func (r *LoanQuestionRepository) CreateBatch(ctx context.Context, questions []models.LoanQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrQuestionDuplicateField
		}
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

func (r *LoanQuestionRepository) Update(ctx context.Context, question *models.LoanQuestion) error {
	if question == nil {
		return errors.New("question cannot be nil")
	}
	result := r.db.WithContext(ctx).Save(question)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrQuestionDuplicateField
		}
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	return nil
}

func (r *LoanQuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LoanQuestion{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *LoanQuestionRepository) CountByLoanType(ctx context.Context, loanType string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LoanQuestion{}).Where("loan_type = ?", loanType).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// NextSequenceOrder is one past the highest order in use, starting at 1
func (r *LoanQuestionRepository) NextSequenceOrder(ctx context.Context, loanType string) (int, error) {
	var maxOrder int
	if err := r.db.WithContext(ctx).
		Model(&models.LoanQuestion{}).
		Where("loan_type = ?", loanType).
		Select("COALESCE(MAX(sequence_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("failed to get max sequence order: %w", err)
	}
	return maxOrder + 1, nil
}

// Move swaps the question's position with its neighbour in the same loan type,
// using the same ordering as ListByLoanType. Distinct orders are swapped; if the
// loan type has duplicate orders the whole list is renumbered from 1. Every write
// happens in one transaction so readers never see a half-applied move.
func (r *LoanQuestionRepository) Move(ctx context.Context, id uuid.UUID, direction MoveDirection) (*models.LoanQuestion, error) {
	var step int
	switch direction {
	case MoveUp:
		step = -1
	case MoveDown:
		step = 1
	default:
		return nil, fmt.Errorf("invalid move direction: %s", direction)
	}

	var moved models.LoanQuestion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx
		if tx.Dialector.Name() == "postgres" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"}).Session(&gorm.Session{})
		}

		var target models.LoanQuestion
		if err := locked.Where("id = ?", id).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to load question: %w", err)
		}

		var ordered []models.LoanQuestion
		if err := locked.Where("loan_type = ?", target.LoanType).
			Order("sequence_order ASC, created_at ASC, id ASC").
			Find(&ordered).Error; err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}

		pos := -1
		for i := range ordered {
			if ordered[i].ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return ErrQuestionNotFound
		}
		other := pos + step
		if other < 0 || other >= len(ordered) {
			return ErrQuestionCannotMove
		}

		if hasDuplicateOrder(ordered) {
			ordered[pos], ordered[other] = ordered[other], ordered[pos]
			for i := range ordered {
				if ordered[i].SequenceOrder == i+1 {
					continue
				}
				if err := tx.Model(&models.LoanQuestion{}).Where("id = ?", ordered[i].ID).
					UpdateColumn("sequence_order", i+1).Error; err != nil {
					return fmt.Errorf("failed to renumber questions: %w", err)
				}
				ordered[i].SequenceOrder = i + 1
			}
			moved = ordered[other]
			return nil
		}

		moved = ordered[pos]
		neighbour := ordered[other]
		movedOrder, neighbourOrder := neighbour.SequenceOrder, moved.SequenceOrder

		if err := tx.Model(&models.LoanQuestion{}).Where("id = ?", moved.ID).
			UpdateColumn("sequence_order", movedOrder).Error; err != nil {
			return fmt.Errorf("failed to update question order: %w", err)
		}
		if err := tx.Model(&models.LoanQuestion{}).Where("id = ?", neighbour.ID).
			UpdateColumn("sequence_order", neighbourOrder).Error; err != nil {
			return fmt.Errorf("failed to update neighbour order: %w", err)
		}

		moved.SequenceOrder = movedOrder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &moved, nil
}

// hasDuplicateOrder expects questions sorted by sequence_order
func hasDuplicateOrder(questions []models.LoanQuestion) bool {
	for i := 1; i < len(questions); i++ {
		if questions[i].SequenceOrder == questions[i-1].SequenceOrder {
			return true
		}
	}
	return false
}
