package dto

import (
	"time"

	"loan-compare/internal/models"
)

// MatchBanksRequest is the borrower's comparison query. Location and account type
// take "Any" for no constraint; they may not be omitted.
type MatchBanksRequest struct {
	BankingNeed          string   `json:"bankingNeed" validate:"omitempty,banking_need"`
	PreferredFeatures    []string `json:"preferredFeatures" validate:"max=20,dive,min=1,max=100"`
	LocationPreference   string   `json:"locationPreference" validate:"required,max=100"`
	AccountType          string   `json:"accountType" validate:"required,max=100"`
	InterestRatePriority string   `json:"interestRatePriority,omitempty" validate:"omitempty,rate_priority"`
}

func (r *MatchBanksRequest) ToPreferences() models.UserPreferences {
	prefs := models.NewUserPreferences()
	prefs.BankingNeed = r.BankingNeed
	prefs.LocationPreference = r.LocationPreference
	prefs.AccountType = r.AccountType
	if r.PreferredFeatures != nil {
		prefs.PreferredFeatures = append([]string{}, r.PreferredFeatures...)
	}
	if r.InterestRatePriority != "" {
		prefs = prefs.WithPriority(models.RatePriority(r.InterestRatePriority))
	}
	return prefs
}

type InterestRatesPayload struct {
	Savings  float64 `json:"savings" validate:"gte=0,lte=100"`
	Checking float64 `json:"checking" validate:"gte=0,lte=100"`
	Mortgage float64 `json:"mortgage" validate:"gte=0,lte=100"`
	Personal float64 `json:"personal" validate:"gte=0,lte=100"`
}

// BankOfferResponse is the public view of a catalog entry
type BankOfferResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	LogoText      string               `json:"logoText"`
	Description   string               `json:"description"`
	Rating        float64              `json:"rating"`
	Features      []string             `json:"features"`
	AccountTypes  []string             `json:"accountTypes"`
	InterestRates InterestRatesPayload `json:"interestRates"`
	Locations     []string             `json:"locations"`
	Active        bool                 `json:"active"`
	UpdatedAt     *time.Time           `json:"updatedAt,omitempty"`
}

func NewBankOfferResponse(o models.BankOffer) BankOfferResponse {
	resp := BankOfferResponse{
		ID:           o.ID,
		Name:         o.Name,
		LogoText:     o.LogoText,
		Description:  o.Description,
		Rating:       o.Rating,
		Features:     nonNil(o.Features),
		AccountTypes: nonNil(o.AccountTypes),
		InterestRates: InterestRatesPayload{
			Savings:  o.InterestRates.Savings,
			Checking: o.InterestRates.Checking,
			Mortgage: o.InterestRates.Mortgage,
			Personal: o.InterestRates.Personal,
		},
		Locations: nonNil(o.Locations),
		Active:    o.Active,
	}
	if !o.UpdatedAt.IsZero() {
		updated := o.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func NewBankOfferListResponse(offers []models.BankOffer) BankOfferListResponse {
	banks := make([]BankOfferResponse, 0, len(offers))
	for _, o := range offers {
		banks = append(banks, NewBankOfferResponse(o))
	}
	return BankOfferListResponse{Banks: banks, Total: len(banks)}
}

type BankOfferListResponse struct {
	Banks []BankOfferResponse `json:"banks"`
	Total int                 `json:"total"`
}

// UpsertBankOfferRequest creates or replaces a catalog entry in the database
type UpsertBankOfferRequest struct {
	ID            string               `json:"id" validate:"required,max=50,slug"`
	Name          string               `json:"name" validate:"required,max=150"`
	LogoText      string               `json:"logoText" validate:"max=10"`
	Description   string               `json:"description" validate:"max=2000"`
	Rating        float64              `json:"rating" validate:"gte=0,lte=5"`
	Features      []string             `json:"features" validate:"dive,min=1,max=100"`
	AccountTypes  []string             `json:"accountTypes" validate:"dive,min=1,max=100"`
	InterestRates InterestRatesPayload `json:"interestRates"`
	Locations     []string             `json:"locations" validate:"dive,min=1,max=100"`
	Active        *bool                `json:"active"`
}

func (r *UpsertBankOfferRequest) ToModel() models.BankOffer {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return models.BankOffer{
		ID:           r.ID,
		Name:         r.Name,
		LogoText:     r.LogoText,
		Description:  r.Description,
		Rating:       r.Rating,
		Features:     models.StringList(nonNil(r.Features)),
		AccountTypes: models.StringList(nonNil(r.AccountTypes)),
		InterestRates: models.InterestRates{
			Savings:  r.InterestRates.Savings,
			Checking: r.InterestRates.Checking,
			Mortgage: r.InterestRates.Mortgage,
			Personal: r.InterestRates.Personal,
		},
		Locations: models.StringList(nonNil(r.Locations)),
		Active:    active,
	}
}

// SetActiveRequest toggles whether an offer is shown to borrowers
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
