package handlers

import (
	"net/http"

	"loan-compare/internal/dto"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
)

// QuestionHandler serves loan types and their questionnaires to applicants
type QuestionHandler struct {
	questionService services.QuestionServiceInterface
}

func NewQuestionHandler(questionService services.QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListLoanTypes
// @Summary List loan types
// @Tags Questionnaire
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]dto.LoanTypeResponse}
// @Router /loan-types [get]
func (h *QuestionHandler) ListLoanTypes(c echo.Context) error {
	types := h.questionService.LoanTypes()
	resp := make([]dto.LoanTypeResponse, 0, len(types))
	for _, lt := range types {
		resp = append(resp, dto.LoanTypeResponse{Key: lt.Key, Label: lt.Label})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: resp})
}

// GetQuestionnaire returns the ordered questions for a loan type. The loan type
// may be a key or a label; unrecognized values get the personal questionnaire.
// @Summary Questionnaire for a loan type
// @Tags Questionnaire
// @Produce json
// @Param loanType path string true "Loan type key or label"
// @Success 200 {object} dto.QuestionnaireResponse
// @Router /loan-types/{loanType}/questions [get]
func (h *QuestionHandler) GetQuestionnaire(c echo.Context) error {
	loanType, questions, source, err := h.questionService.Questionnaire(c.Request().Context(), c.Param("loanType"))
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewQuestionnaireResponse(loanType, source, questions))
}
