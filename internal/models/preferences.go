package models

// AnyPreference is the sentinel meaning "no constraint" for location and account type.
const AnyPreference = "Any"

const (
	BankingNeedSavings  = "savings"
	BankingNeedChecking = "checking"
	BankingNeedMortgage = "mortgage"
	BankingNeedPersonal = "personal"
)

// RatePriority optionally narrows matches to offers beating the catalog average
type RatePriority string

const (
	RatePriorityHighSavings RatePriority = "high_savings"
	RatePriorityLowMortgage RatePriority = "low_mortgage"
	RatePriorityLowPersonal RatePriority = "low_personal"
)

// UserPreferences is a one-shot matching query. Location and account type must
// carry a value or AnyPreference; only InterestRatePriority may be left unset.
type UserPreferences struct {
	BankingNeed          string
	PreferredFeatures    []string
	LocationPreference   string
	AccountType          string
	InterestRatePriority *RatePriority
}

// NewUserPreferences returns preferences with every filter at its no-constraint value
func NewUserPreferences() UserPreferences {
	return UserPreferences{
		PreferredFeatures:  []string{},
		LocationPreference: AnyPreference,
		AccountType:        AnyPreference,
	}
}

func (p UserPreferences) WithPriority(priority RatePriority) UserPreferences {
	p.InterestRatePriority = &priority
	return p
}

// maxBankingNeedLength bounds the open vocabulary accepted from clients
const maxBankingNeedLength = 30

// IsKnownBankingNeed reports whether the matcher applies a filter for need
func IsKnownBankingNeed(need string) bool {
	switch need {
	case BankingNeedSavings, BankingNeedChecking, BankingNeedMortgage, BankingNeedPersonal:
		return true
	}
	return false
}

// IsValidBankingNeed accepts any short lowercase token. Needs outside the known
// four are allowed and simply do not filter.
func IsValidBankingNeed(need string) bool {
	if len(need) > maxBankingNeedLength {
		return false
	}
	for _, r := range need {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func IsValidRatePriority(priority string) bool {
	switch RatePriority(priority) {
	case RatePriorityHighSavings, RatePriorityLowMortgage, RatePriorityLowPersonal:
		return true
	}
	return false
}
