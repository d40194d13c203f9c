package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocationOnline marks an offer that is available regardless of where the borrower lives.
const LocationOnline = "Online"

var (
	ErrBankOfferIDRequired   = errors.New("bank offer id is required")
	ErrBankOfferNameRequired = errors.New("bank offer name is required")
	ErrInvalidRating         = errors.New("rating must be between 0 and 5")
	ErrNegativeRate          = errors.New("interest rates cannot be negative")
)

// InterestRates holds the advertised percentage for each product.
// A zero rate means the product is not offered.
type InterestRates struct {
	Savings  float64 `gorm:"column:rate_savings;not null;default:0" json:"savings" yaml:"savings"`
	Checking float64 `gorm:"column:rate_checking;not null;default:0" json:"checking" yaml:"checking"`
	Mortgage float64 `gorm:"column:rate_mortgage;not null;default:0" json:"mortgage" yaml:"mortgage"`
	Personal float64 `gorm:"column:rate_personal;not null;default:0" json:"personal" yaml:"personal"`
}

// BankOffer is one lending institution's public profile in the comparison catalog
type BankOffer struct {
	ID            string        `gorm:"type:varchar(50);primary_key" json:"id" yaml:"id"`
	Name          string        `gorm:"type:varchar(150);not null" json:"name" yaml:"name"`
	LogoText      string        `gorm:"type:varchar(10)" json:"logo_text" yaml:"logoText"`
	Description   string        `gorm:"type:text" json:"description" yaml:"description"`
	Rating        float64       `gorm:"not null;default:0" json:"rating" yaml:"rating"`
	Features      StringList    `gorm:"type:text" json:"features" yaml:"features"`
	AccountTypes  StringList    `gorm:"type:text" json:"account_types" yaml:"accountTypes"`
	InterestRates InterestRates `gorm:"embedded" json:"interest_rates" yaml:"interestRates"`
	Locations     StringList    `gorm:"type:text" json:"locations" yaml:"locations"`
	Active        bool          `gorm:"not null;default:true;index" json:"active" yaml:"-"`
	DisplayOrder  int           `gorm:"not null;default:0" json:"-" yaml:"-"`
	CreatedAt     time.Time     `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty" yaml:"-"`
}

func (b *BankOffer) TableName() string {
	return "bank_offers"
}

// Validate checks the catalog invariants for an offer
func (b *BankOffer) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrBankOfferIDRequired
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrBankOfferNameRequired
	}
	if b.Rating < 0 || b.Rating > 5 {
		return ErrInvalidRating
	}
	r := b.InterestRates
	if r.Savings < 0 || r.Checking < 0 || r.Mortgage < 0 || r.Personal < 0 {
		return ErrNegativeRate
	}
	return nil
}

func (b *BankOffer) OffersMortgage() bool {
	return b.InterestRates.Mortgage > 0
}

func (b *BankOffer) OffersPersonalLoans() bool {
	return b.InterestRates.Personal > 0
}

// StringList is a text column holding a JSON array of strings
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(bytes) == 0 {
		*l = StringList{}
		return nil
	}

	var items []string
	if err := json.Unmarshal(bytes, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
