package handlers

import (
	"net/http"

	"loan-compare/internal/dto"
	"loan-compare/internal/errors"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
)

// BankHandler serves the public bank catalog and the comparison matcher
type BankHandler struct {
	catalogService services.CatalogServiceInterface
}

func NewBankHandler(catalogService services.CatalogServiceInterface) *BankHandler {
	return &BankHandler{catalogService: catalogService}
}

// ListBanks returns every active offer
// @Summary List bank offers
// @Tags Banks
// @Produce json
// @Success 200 {object} dto.BankOfferListResponse
// @Router /banks [get]
func (h *BankHandler) ListBanks(c echo.Context) error {
	offers, err := h.catalogService.ListOffers(c.Request().Context())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferListResponse(offers))
}

// GetBank returns one active offer
// @Summary Get bank offer
// @Tags Banks
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} dto.BankOfferResponse
// @Failure 404 {object} errors.ErrorResponse "BANK_001"
// @Router /banks/{id} [get]
func (h *BankHandler) GetBank(c echo.Context) error {
	offer, err := h.catalogService.GetOffer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferResponse(*offer))
}

// MatchBanks filters the catalog by the borrower's preferences.
// An empty result is a valid answer, not an error.
// @Summary Compare banks
// @Tags Banks
// @Accept json
// @Produce json
// @Param request body dto.MatchBanksRequest true "Borrower preferences"
// @Success 200 {object} dto.BankOfferListResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Router /banks/match [post]
func (h *BankHandler) MatchBanks(c echo.Context) error {
	var req dto.MatchBanksRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.BankInvalidPreferences, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	matches, err := h.catalogService.MatchOffers(c.Request().Context(), req.ToPreferences())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferListResponse(matches))
}
