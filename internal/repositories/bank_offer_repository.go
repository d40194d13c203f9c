package repositories

import (
	"context"
	"errors"
	"fmt"

	"loan-compare/internal/models"

	"gorm.io/gorm"
)

var (
	ErrBankOfferNotFound      = errors.New("bank offer not found")
	ErrBankOfferAlreadyExists = errors.New("bank offer already exists")
)

// BankOfferRepository persists the bank catalog when it is served from the database
type BankOfferRepository struct {
	db *gorm.DB
}

func NewBankOfferRepository(db *gorm.DB) BankOfferRepositoryInterface {
	return &BankOfferRepository{db: db}
}

// ListActive returns the catalog the matcher sees, in display order
func (r *BankOfferRepository) ListActive(ctx context.Context) ([]models.BankOffer, error) {
	var offers []models.BankOffer
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list active bank offers: %w", err)
	}
	return offers, nil
}

func (r *BankOfferRepository) List(ctx context.Context) ([]models.BankOffer, error) {
	var offers []models.BankOffer
	if err := r.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list bank offers: %w", err)
	}
	return offers, nil
}

func (r *BankOfferRepository) GetByID(ctx context.Context, id string) (*models.BankOffer, error) {
	var offer models.BankOffer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankOfferNotFound
		}
		return nil, fmt.Errorf("failed to get bank offer: %w", err)
	}
	return &offer, nil
}

func (r *BankOfferRepository) Create(ctx context.Context, offer *models.BankOffer) error {
	if offer == nil {
		return errors.New("bank offer cannot be nil")
	}
	if err := offer.Validate(); err != nil {
		return err
	}

	// new offers go to the end of the catalog
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.BankOffer{}).Select("COALESCE(MAX(display_order) + 1, 0)").Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to read catalog order: %w", err)
		}
		offer.DisplayOrder = next
		return insertOffers(tx, []*models.BankOffer{offer})
	})
}

// CreateBatch inserts offers with their given display order in one transaction,
// so a failure leaves the table as it was
func (r *BankOfferRepository) CreateBatch(ctx context.Context, offers []models.BankOffer) error {
	if len(offers) == 0 {
		return nil
	}
	batch := make([]*models.BankOffer, len(offers))
	for i := range offers {
		if err := offers[i].Validate(); err != nil {
			return fmt.Errorf("bank offer %s: %w", offers[i].ID, err)
		}
		batch[i] = &offers[i]
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertOffers(tx, batch)
	})
}

func insertOffers(tx *gorm.DB, offers []*models.BankOffer) error {
	var inactive []*models.BankOffer
	var inactiveIDs []string
	for _, offer := range offers {
		if !offer.Active {
			inactive = append(inactive, offer)
			inactiveIDs = append(inactiveIDs, offer.ID)
		}
	}

	if err := tx.Create(offers).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrBankOfferAlreadyExists
		}
		return fmt.Errorf("failed to create bank offer: %w", err)
	}

	// gorm substitutes the column default for a false bool on insert
	if len(inactive) > 0 {
		if err := tx.Model(&models.BankOffer{}).Where("id IN ?", inactiveIDs).Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate bank offer: %w", err)
		}
		for _, offer := range inactive {
			offer.Active = false
		}
	}
	return nil
}

// Update replaces an offer's content. Its position in the catalog is kept.
func (r *BankOfferRepository) Update(ctx context.Context, offer *models.BankOffer) error {
	if offer == nil {
		return errors.New("bank offer cannot be nil")
	}
	if err := offer.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.BankOffer{}).Where("id = ?", offer.ID).Select("*").Omit("created_at", "display_order").Updates(offer)
	if result.Error != nil {
		return fmt.Errorf("failed to update bank offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBankOfferNotFound
	}
	return nil
}

func (r *BankOfferRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.BankOffer{}).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle bank offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBankOfferNotFound
	}
	return nil
}

func (r *BankOfferRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BankOffer{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count bank offers: %w", err)
	}
	return count, nil
}
