package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrQuestionNotFound    = errors.New("question not found")
	ErrQuestionFieldExists = errors.New("a question with this field already exists for the loan type")
	ErrQuestionCannotMove  = errors.New("question is already at the edge of the sequence")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrUnknownLoanType     = errors.New("unknown loan type")
)

// QuestionService serves questionnaires. Admin-managed questions for a loan type
// replace the built-in set once at least one exists.
type QuestionService struct {
	repo         repositories.LoanQuestionRepositoryInterface
	auditService AuditServiceInterface
	auditLogger  AuditLoggerInterface
	logger       *slog.Logger
}

func NewQuestionService(
	repo repositories.LoanQuestionRepositoryInterface,
	auditService AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	logger *slog.Logger,
) QuestionServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{
		repo:         repo,
		auditService: auditService,
		auditLogger:  auditLogger,
		logger:       logger,
	}
}

func (s *QuestionService) LoanTypes() []LoanType {
	out := make([]LoanType, len(LoanTypes))
	copy(out, LoanTypes)
	return out
}

// Questionnaire resolves a label or key (unknown values become personal) and
// returns the stored questions, or the built-in ones when none are stored or
// the store cannot be read.
func (s *QuestionService) Questionnaire(ctx context.Context, labelOrKey string) (string, []models.LoanQuestion, string, error) {
	key := MapLoanTypeToKey(labelOrKey)

	if s.repo != nil {
		stored, err := s.repo.ListByLoanType(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "falling back to built-in questions",
				"loan_type", key,
				"error", err)
		case len(stored) > 0:
			return key, stored, dto.QuestionSourceCustom, nil
		}
	}

	return key, QuestionsFor(key), dto.QuestionSourceDefault, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, loanType string) ([]models.LoanQuestion, error) {
	if !models.IsValidLoanType(loanType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLoanType, loanType)
	}
	questions, err := s.repo.ListByLoanType(ctx, loanType)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if questions == nil {
		questions = []models.LoanQuestion{}
	}
	return questions, nil
}

// CreateQuestion appends question to its loan type unless a sequence order is given
func (s *QuestionService) CreateQuestion(ctx context.Context, actor Actor, question *models.LoanQuestion) error {
	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}

	if question.SequenceOrder <= 0 {
		next, err := s.repo.NextSequenceOrder(ctx, question.LoanType)
		if err != nil {
			return fmt.Errorf("failed to allocate sequence order: %w", err)
		}
		question.SequenceOrder = next
	}

	if err := s.repo.Create(ctx, question); err != nil {
		if errors.Is(err, repositories.ErrQuestionDuplicateField) {
			return ErrQuestionFieldExists
		}
		return fmt.Errorf("failed to create question: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionQuestionCreated, models.AuditResourceQuestion, question.ID.String(),
		models.JSONBMap{"loan_type": question.LoanType, "field": question.Field})
	return nil
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, actor Actor, id uuid.UUID, req *dto.UpdateQuestionRequest) (*models.LoanQuestion, error) {
	question, err := s.getQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(question)
	if question.Type != models.QuestionTypeRadio {
		question.Options = nil
	}
	if err := question.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}

	if err := s.repo.Update(ctx, question); err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionQuestionUpdated, models.AuditResourceQuestion, id.String(), nil)
	return question, nil
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionQuestionDeleted, models.AuditResourceQuestion, id.String(), nil)
	return nil
}

// MoveQuestion swaps the question with its neighbour in one transaction
func (s *QuestionService) MoveQuestion(ctx context.Context, actor Actor, id uuid.UUID, direction repositories.MoveDirection) (*models.LoanQuestion, error) {
	before, err := s.getQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	moved, err := s.repo.Move(ctx, id, direction)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrQuestionCannotMove):
			return nil, ErrQuestionCannotMove
		case errors.Is(err, repositories.ErrQuestionNotFound):
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to move question: %w", err)
	}

	if s.auditLogger != nil {
		s.auditLogger.LogQuestionMoved(ctx, id, string(direction), before.SequenceOrder, moved.SequenceOrder)
	}
	s.auditService.Record(ctx, actor, models.AuditActionQuestionMoved, models.AuditResourceQuestion, id.String(),
		models.JSONBMap{
			"direction":  string(direction),
			"from_order": before.SequenceOrder,
			"to_order":   moved.SequenceOrder,
		})
	return moved, nil
}

// SeedDefaults copies the built-in questions for loanType into the store when it
// has none, returning how many were written
func (s *QuestionService) SeedDefaults(ctx context.Context, actor Actor, loanType string) (int, error) {
	if !models.IsValidLoanType(loanType) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLoanType, loanType)
	}

	count, err := s.repo.CountByLoanType(ctx, loanType)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	defaults := QuestionsFor(loanType)
	if err := s.repo.CreateBatch(ctx, defaults); err != nil {
		return 0, fmt.Errorf("failed to seed questions: %w", err)
	}

	s.auditService.Record(ctx, actor, models.AuditActionQuestionsSeeded, models.AuditResourceQuestion, loanType,
		models.JSONBMap{"count": len(defaults)})
	return len(defaults), nil
}

func (s *QuestionService) getQuestion(ctx context.Context, id uuid.UUID) (*models.LoanQuestion, error) {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}
