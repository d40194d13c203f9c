package repositories

import (
	"context"
	"errors"
	"fmt"

	"loan-compare/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound = errors.New("loan application not found")
)

type LoanApplicationRepository struct {
	db *gorm.DB
}

func NewLoanApplicationRepository(db *gorm.DB) LoanApplicationRepositoryInterface {
	return &LoanApplicationRepository{db: db}
}

func (r *LoanApplicationRepository) Create(ctx context.Context, app *models.LoanApplication) error {
	if app == nil {
		return errors.New("loan application cannot be nil")
	}

	if err := r.db.WithContext(ctx).Omit("User", "Documents").Create(app).Error; err != nil {
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	return nil
}

// GetByID loads the application with its documents in required-type order
func (r *LoanApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LoanApplication, error) {
	var app models.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get loan application: %w", err)
	}
	return &app, nil
}

func (r *LoanApplicationRepository) filtered(ctx context.Context, filter ApplicationFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.LoanApplication{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LoanType != "" {
		query = query.Where("loan_type = ?", filter.LoanType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	return query
}

func (r *LoanApplicationRepository) List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]*models.LoanApplication, int64, error) {
	var apps []*models.LoanApplication
	var total int64

	query := r.filtered(ctx, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count loan applications: %w", err)
	}

	if err := query.Preload("Documents").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list loan applications: %w", err)
	}

	return apps, total, nil
}

// ListAll returns every matching application, newest first, for exports
func (r *LoanApplicationRepository) ListAll(ctx context.Context, filter ApplicationFilter) ([]*models.LoanApplication, error) {
	var apps []*models.LoanApplication
	if err := r.filtered(ctx, filter).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to export loan applications: %w", err)
	}
	return apps, nil
}

func (r *LoanApplicationRepository) Update(ctx context.Context, app *models.LoanApplication) error {
	if app == nil {
		return errors.New("loan application cannot be nil")
	}

	result := r.db.WithContext(ctx).Omit("User", "Documents").Save(app)
	if result.Error != nil {
		return fmt.Errorf("failed to update loan application: %w", result.Error)
	}
	return nil
}
