package repositories

import (
	"context"
	"errors"
	"fmt"

	"loan-compare/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationDocumentRepository struct {
	db *gorm.DB
}

func NewApplicationDocumentRepository(db *gorm.DB) ApplicationDocumentRepositoryInterface {
	return &ApplicationDocumentRepository{db: db}
}

// Upsert keeps at most one document per (application, type). Re-uploading a type
// deletes the earlier row in the same transaction and hands it back so the caller
// can remove the stored file.
func (r *ApplicationDocumentRepository) Upsert(ctx context.Context, doc *models.ApplicationDocument) (*models.ApplicationDocument, error) {
	if doc == nil {
		return nil, errors.New("document cannot be nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var replaced *models.ApplicationDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ApplicationDocument
		err := tx.Where("application_id = ? AND document_type = ?", doc.ApplicationID, doc.DocumentType).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to replace document: %w", err)
			}
			replaced = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to look up document: %w", err)
		}

		if err := tx.Omit("Application").Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return replaced, nil
}

func (r *ApplicationDocumentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationDocument, error) {
	var docs []models.ApplicationDocument
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *ApplicationDocumentRepository) DocumentTypes(ctx context.Context, applicationID uuid.UUID) ([]string, error) {
	var types []string
	if err := r.db.WithContext(ctx).
		Model(&models.ApplicationDocument{}).
		Where("application_id = ?", applicationID).
		Distinct().
		Pluck("document_type", &types).Error; err != nil {
		return nil, fmt.Errorf("failed to list document types: %w", err)
	}
	return types, nil
}
