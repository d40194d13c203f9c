package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/services"
	"loan-compare/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestBankHandler(t *testing.T) {
	suite.Run(t, new(BankHandlerSuite))
}

type BankHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	catalog *service_mocks.MockCatalogServiceInterface
	handler *BankHandler
	e       *echo.Echo
}

func (s *BankHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.catalog = service_mocks.NewMockCatalogServiceInterface(s.ctrl)
	s.handler = NewBankHandler(s.catalog)
	s.e = newTestEcho()
}

func (s *BankHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sampleOffers() []models.BankOffer {
	return []models.BankOffer{
		{
			ID:            "chase",
			Name:          "Chase Bank",
			Rating:        4.5,
			Features:      models.StringList{"Mobile Banking", "No Monthly Fees"},
			AccountTypes:  models.StringList{"Checking", "Savings"},
			InterestRates: models.InterestRates{Savings: 0.01, Checking: 0.01, Mortgage: 6.5, Personal: 10.99},
			Locations:     models.StringList{"Online", "Nationwide"},
			Active:        true,
		},
		{
			ID:            "ally",
			Name:          "Ally Bank",
			Rating:        4.7,
			Features:      models.StringList{"High Yield Savings"},
			AccountTypes:  models.StringList{"Savings"},
			InterestRates: models.InterestRates{Savings: 4.25, Mortgage: 6.75, Personal: 8.99},
			Locations:     models.StringList{"Online"},
			Active:        true,
		},
	}
}

func (s *BankHandlerSuite) TestListBanks() {
	s.catalog.EXPECT().ListOffers(gomock.Any()).Return(sampleOffers(), nil)

	c, rec := jsonContext(s.e, http.MethodGet, "/banks", nil)
	s.Require().NoError(s.handler.ListBanks(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.BankOfferListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(2, resp.Total)
	s.Equal("chase", resp.Banks[0].ID)
	s.InDelta(10.99, resp.Banks[0].InterestRates.Personal, 0.0001)
}

func (s *BankHandlerSuite) TestListBanks_CatalogFailure() {
	s.catalog.EXPECT().ListOffers(gomock.Any()).Return(nil, errors.New("database down"))

	c, rec := jsonContext(s.e, http.MethodGet, "/banks", nil)
	s.Require().NoError(s.handler.ListBanks(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "database down")
}

func (s *BankHandlerSuite) TestGetBank() {
	s.Run("found", func() {
		offer := sampleOffers()[1]
		s.catalog.EXPECT().GetOffer(gomock.Any(), "ally").Return(&offer, nil)

		c, rec := jsonContext(s.e, http.MethodGet, "/banks/ally", nil)
		withParams(c, "id", "ally")
		s.Require().NoError(s.handler.GetBank(c))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("not found", func() {
		s.catalog.EXPECT().GetOffer(gomock.Any(), "nope").Return(nil, services.ErrBankOfferNotFound)

		c, rec := jsonContext(s.e, http.MethodGet, "/banks/nope", nil)
		withParams(c, "id", "nope")
		s.Require().NoError(s.handler.GetBank(c))
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("BANK_001", decodeError(rec).Error.Code)
	})
}

func (s *BankHandlerSuite) TestMatchBanks_PassesPreferences() {
	s.catalog.EXPECT().
		MatchOffers(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prefs models.UserPreferences) ([]models.BankOffer, error) {
			s.Equal("savings", prefs.BankingNeed)
			s.Equal([]string{"Mobile Banking"}, prefs.PreferredFeatures)
			s.Equal("Online", prefs.LocationPreference)
			s.Equal("Any", prefs.AccountType)
			return sampleOffers()[:1], nil
		})

	c, rec := jsonContext(s.e, http.MethodPost, "/banks/match", map[string]interface{}{
		"bankingNeed":        "savings",
		"preferredFeatures":  []string{"Mobile Banking"},
		"locationPreference": "Online",
		"accountType":        "Any",
	})
	s.Require().NoError(s.handler.MatchBanks(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.BankOfferListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.Total)
}

func (s *BankHandlerSuite) TestMatchBanks_EmptyResultIsNotAnError() {
	s.catalog.EXPECT().MatchOffers(gomock.Any(), gomock.Any()).Return([]models.BankOffer{}, nil)

	c, rec := jsonContext(s.e, http.MethodPost, "/banks/match", map[string]interface{}{
		"locationPreference": "Texas",
		"accountType":        "Checking",
	})
	s.Require().NoError(s.handler.MatchBanks(c))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"banks":[],"total":0}`, rec.Body.String())
}

func (s *BankHandlerSuite) TestMatchBanks_AcceptsOpenNeed() {
	s.catalog.EXPECT().
		MatchOffers(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prefs models.UserPreferences) ([]models.BankOffer, error) {
			s.Equal("auto", prefs.BankingNeed)
			return sampleOffers(), nil
		})

	c, rec := jsonContext(s.e, http.MethodPost, "/banks/match", map[string]interface{}{
		"bankingNeed":        "auto",
		"locationPreference": "Any",
		"accountType":        "Any",
	})
	s.Require().NoError(s.handler.MatchBanks(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *BankHandlerSuite) TestMatchBanks_RejectsMalformedNeed() {
	c, _ := jsonContext(s.e, http.MethodPost, "/banks/match", map[string]interface{}{
		"bankingNeed":        "<script>",
		"locationPreference": "Any",
		"accountType":        "Any",
	})
	s.Error(s.handler.MatchBanks(c))
}

func (s *BankHandlerSuite) TestMatchBanks_RequiresLocationAndAccountType() {
	c, _ := jsonContext(s.e, http.MethodPost, "/banks/match", map[string]interface{}{
		"bankingNeed": "savings",
	})
	s.Error(s.handler.MatchBanks(c))
}

func (s *BankHandlerSuite) TestMatchBanks_MalformedBody() {
	c, rec := jsonContext(s.e, http.MethodPost, "/banks/match", "{")
	s.Require().NoError(s.handler.MatchBanks(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("BANK_003", decodeError(rec).Error.Code)
}
