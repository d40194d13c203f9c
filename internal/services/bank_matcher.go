package services

import (
	"sort"
	"strings"

	"loan-compare/internal/models"
)

// MatchBanks returns the offers in catalog that satisfy every preference, best rated first.
// Offers with equal rating keep their catalog order. The catalog is not modified.
func MatchBanks(prefs models.UserPreferences, catalog []models.BankOffer) []models.BankOffer {
	if len(catalog) == 0 {
		return []models.BankOffer{}
	}

	averages := catalogAverages(catalog)

	matches := make([]models.BankOffer, 0, len(catalog))
	for _, offer := range catalog {
		if !matchesLocation(offer, prefs.LocationPreference) {
			continue
		}
		if !matchesAccountType(offer, prefs.AccountType) {
			continue
		}
		if !matchesFeatures(offer, prefs.PreferredFeatures) {
			continue
		}
		if !matchesBankingNeed(offer, prefs.BankingNeed) {
			continue
		}
		if prefs.InterestRatePriority != nil && !matchesRatePriority(offer, *prefs.InterestRatePriority, averages) {
			continue
		}
		matches = append(matches, offer)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rating > matches[j].Rating
	})

	return matches
}

// Only the first location is checked for "Online"; an offer listing it later
// still has to match the requested location.
func matchesLocation(offer models.BankOffer, preference string) bool {
	if preference == models.AnyPreference {
		return true
	}
	for _, loc := range offer.Locations {
		if loc == preference {
			return true
		}
	}
	return len(offer.Locations) > 0 && offer.Locations[0] == models.LocationOnline
}

func matchesAccountType(offer models.BankOffer, accountType string) bool {
	if accountType == models.AnyPreference {
		return true
	}
	return containsFold(offer.AccountTypes, accountType)
}

// matchesFeatures passes when any requested feature appears inside any offered feature
func matchesFeatures(offer models.BankOffer, features []string) bool {
	if len(features) == 0 {
		return true
	}
	for _, want := range features {
		if containsFold(offer.Features, want) {
			return true
		}
	}
	return false
}

func matchesBankingNeed(offer models.BankOffer, need string) bool {
	switch need {
	case models.BankingNeedSavings, models.BankingNeedChecking:
		return containsFold(offer.AccountTypes, need)
	case models.BankingNeedMortgage:
		return offer.OffersMortgage()
	case models.BankingNeedPersonal:
		return offer.OffersPersonalLoans()
	}
	// other needs are accepted without a constraint
	return true
}

func matchesRatePriority(offer models.BankOffer, priority models.RatePriority, avg rateAverages) bool {
	switch priority {
	case models.RatePriorityHighSavings:
		return offer.InterestRates.Savings > avg.savings
	case models.RatePriorityLowMortgage:
		rate := offer.InterestRates.Mortgage
		return rate <= 0 || rate < avg.mortgage
	case models.RatePriorityLowPersonal:
		rate := offer.InterestRates.Personal
		return rate <= 0 || rate < avg.personal
	}
	return true
}

type rateAverages struct {
	savings  float64
	mortgage float64
	personal float64
}

// catalogAverages computes the savings mean over every offer and the loan
// means over offers that actually lend (rate > 0).
func catalogAverages(catalog []models.BankOffer) rateAverages {
	var (
		avg                           rateAverages
		savingsSum, mortgSum, persSum float64
		mortgCount, persCount         int
	)

	for _, offer := range catalog {
		savingsSum += offer.InterestRates.Savings
		if offer.InterestRates.Mortgage > 0 {
			mortgSum += offer.InterestRates.Mortgage
			mortgCount++
		}
		if offer.InterestRates.Personal > 0 {
			persSum += offer.InterestRates.Personal
			persCount++
		}
	}

	avg.savings = savingsSum / float64(len(catalog))
	if mortgCount > 0 {
		avg.mortgage = mortgSum / float64(mortgCount)
	}
	if persCount > 0 {
		avg.personal = persSum / float64(persCount)
	}
	return avg
}

func containsFold(values []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
