package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"loan-compare/internal/dto"
	"loan-compare/internal/errors"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler handles the back-office endpoints
type AdminHandler struct {
	userService        services.UserServiceInterface
	applicationService services.ApplicationServiceInterface
	catalogService     services.CatalogServiceInterface
	questionService    services.QuestionServiceInterface
	auditService       services.AuditServiceInterface
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	userService services.UserServiceInterface,
	applicationService services.ApplicationServiceInterface,
	catalogService services.CatalogServiceInterface,
	questionService services.QuestionServiceInterface,
	auditService services.AuditServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		userService:        userService,
		applicationService: applicationService,
		catalogService:     catalogService,
		questionService:    questionService,
		auditService:       auditService,
	}
}

// ListUsers lists users with optional role and text filters
// @Summary List users (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param role query string false "applicant or admin"
// @Param q query string false "Matches email or name"
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} dto.UsersListResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005"
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	req := dto.ListUsersRequest{Limit: defaultPageSize}
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	users, total, err := h.userService.ListUsers(c.Request().Context(),
		repositories.UserFilter{Role: req.Role, Query: req.Query}, req.Offset, req.Limit)
	if err != nil {
		return SendServiceError(c, err)
	}

	resp := dto.UsersListResponse{
		Users:  make([]dto.UserResponse, 0, len(users)),
		Total:  total,
		Offset: req.Offset,
		Limit:  req.Limit,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetUserByID
// @Summary Get user (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} errors.ErrorResponse "USER_003"
// @Failure 404 {object} errors.ErrorResponse "USER_001"
// @Router /admin/users/{userId} [get]
func (h *AdminHandler) GetUserByID(c echo.Context) error {
	userID, err := getUUIDParam(c, "userId")
	if err != nil {
		return SendError(c, errors.UserInvalidID, errors.WithDetails("User ID must be a valid UUID"))
	}

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewUserResponse(user)})
}

// UnlockUser clears the lock left by repeated failed logins
// @Summary Unlock user account (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 404 {object} errors.ErrorResponse "USER_001"
// @Router /admin/users/{userId}/unlock [post]
func (h *AdminHandler) UnlockUser(c echo.Context) error {
	userID, err := getUUIDParam(c, "userId")
	if err != nil {
		return SendError(c, errors.UserInvalidID, errors.WithDetails("User ID must be a valid UUID"))
	}

	user, err := h.userService.UnlockUser(c.Request().Context(), actorFromContext(c), userID)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    dto.NewUserResponse(user),
		Message: "User account unlocked successfully",
	})
}

// ChangeUserRole
// @Summary Change user role (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Param request body dto.ChangeRoleRequest true "New role"
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} errors.ErrorResponse "USER_004 - Cannot change own role"
// @Router /admin/users/{userId}/role [put]
func (h *AdminHandler) ChangeUserRole(c echo.Context) error {
	userID, err := getUUIDParam(c, "userId")
	if err != nil {
		return SendError(c, errors.UserInvalidID, errors.WithDetails("User ID must be a valid UUID"))
	}

	var req dto.ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.userService.ChangeRole(c.Request().Context(), actorFromContext(c), userID, req.Role)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewUserResponse(user), Message: "Role updated"})
}

// DeleteUser soft deletes a user. Administrators cannot delete themselves.
// @Summary Delete user (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse "USER_004"
// @Failure 404 {object} errors.ErrorResponse "USER_001"
// @Router /admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	userID, err := getUUIDParam(c, "userId")
	if err != nil {
		return SendError(c, errors.UserInvalidID, errors.WithDetails("User ID must be a valid UUID"))
	}

	if err := h.userService.DeleteUser(c.Request().Context(), actorFromContext(c), userID); err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "User deleted successfully",
	})
}

// ListApplications lists every applicant's applications
// @Summary List applications (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "Application status"
// @Param loanType query string false "Loan type key"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} dto.ApplicationListResponse
// @Router /admin/applications [get]
func (h *AdminHandler) ListApplications(c echo.Context) error {
	req := dto.ListApplicationsRequest{Page: 1, Limit: defaultPageSize}
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	apps, total, err := h.applicationService.ListApplications(c.Request().Context(),
		repositories.ApplicationFilter{Status: req.Status, LoanType: req.LoanType}, req.Page, req.Limit)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewApplicationListResponse(apps, req.Page, req.Limit, total))
}

// UpdateApplicationStatus records a review decision
// @Summary Review application (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body dto.UpdateApplicationStatusRequest true "Decision"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} errors.ErrorResponse "APPLICATION_005"
// @Router /admin/applications/{id}/status [put]
func (h *AdminHandler) UpdateApplicationStatus(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ApplicationInvalidID)
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	app, err := h.applicationService.UpdateStatus(c.Request().Context(), actorFromContext(c), id, req.Status, req.Notes)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewApplicationResponse(app), Message: "Status updated"})
}

// ExportApplications streams the filtered applications as an XLSX workbook
// @Summary Export applications (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Application status"
// @Param loanType query string false "Loan type key"
// @Success 200 {file} file
// @Router /admin/applications/export [get]
func (h *AdminHandler) ExportApplications(c echo.Context) error {
	req := dto.ListApplicationsRequest{Page: 1, Limit: 1}
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	// buffered so a failed render still produces a JSON error instead of a truncated file
	var buf bytes.Buffer
	_, err := h.applicationService.ExportApplications(c.Request().Context(), actorFromContext(c),
		repositories.ApplicationFilter{Status: req.Status, LoanType: req.LoanType}, &buf)
	if err != nil {
		return SendServiceError(c, err)
	}

	filename := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListBankOffers includes inactive offers
// @Summary List all bank offers (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.BankOfferListResponse
// @Router /admin/banks [get]
func (h *AdminHandler) ListBankOffers(c echo.Context) error {
	offers, err := h.catalogService.ListAllOffers(c.Request().Context())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferListResponse(offers))
}

// CreateBankOffer
// @Summary Create bank offer (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpsertBankOfferRequest true "Offer"
// @Success 201 {object} dto.BankOfferResponse
// @Failure 409 {object} errors.ErrorResponse "BANK_002"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - Catalog is read-only"
// @Router /admin/banks [post]
func (h *AdminHandler) CreateBankOffer(c echo.Context) error {
	var req dto.UpsertBankOfferRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	offer := req.ToModel()
	if err := h.catalogService.CreateOffer(c.Request().Context(), actorFromContext(c), &offer); err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewBankOfferResponse(offer))
}

// UpdateBankOffer replaces an offer. The path ID wins over the body.
// @Summary Update bank offer (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body dto.UpsertBankOfferRequest true "Offer"
// @Success 200 {object} dto.BankOfferResponse
// @Failure 404 {object} errors.ErrorResponse "BANK_001"
// @Router /admin/banks/{id} [put]
func (h *AdminHandler) UpdateBankOffer(c echo.Context) error {
	var req dto.UpsertBankOfferRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	req.ID = c.Param("id")
	if err := c.Validate(req); err != nil {
		return err
	}

	offer := req.ToModel()
	if err := h.catalogService.UpdateOffer(c.Request().Context(), actorFromContext(c), &offer); err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferResponse(offer))
}

// SetBankOfferActive shows or hides an offer
// @Summary Toggle bank offer (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body dto.SetActiveRequest true "Active flag"
// @Success 200 {object} dto.BankOfferResponse
// @Router /admin/banks/{id}/active [put]
func (h *AdminHandler) SetBankOfferActive(c echo.Context) error {
	var req dto.SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	offer, err := h.catalogService.SetOfferActive(c.Request().Context(), actorFromContext(c), c.Param("id"), *req.Active)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewBankOfferResponse(*offer))
}

// ListQuestions returns the stored questions for a loan type, which may be empty
// @Summary List stored questions (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param loanType path string true "Loan type key"
// @Success 200 {object} dto.QuestionnaireResponse
// @Router /admin/loan-types/{loanType}/questions [get]
func (h *AdminHandler) ListQuestions(c echo.Context) error {
	loanType := c.Param("loanType")
	questions, err := h.questionService.ListQuestions(c.Request().Context(), loanType)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewQuestionnaireResponse(loanType, dto.QuestionSourceCustom, questions))
}

// CreateQuestion
// @Summary Create question (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateQuestionRequest true "Question"
// @Success 201 {object} dto.QuestionResponse
// @Failure 409 {object} errors.ErrorResponse "QUESTION_003"
// @Router /admin/questions [post]
func (h *AdminHandler) CreateQuestion(c echo.Context) error {
	var req dto.CreateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	question := req.ToModel()
	if err := h.questionService.CreateQuestion(c.Request().Context(), actorFromContext(c), &question); err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewQuestionResponse(question))
}

// UpdateQuestion
// @Summary Update question (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param request body dto.UpdateQuestionRequest true "Changed fields"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} errors.ErrorResponse "QUESTION_001"
// @Router /admin/questions/{id} [put]
func (h *AdminHandler) UpdateQuestion(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.QuestionInvalidID)
	}

	var req dto.UpdateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	question, err := h.questionService.UpdateQuestion(c.Request().Context(), actorFromContext(c), id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewQuestionResponse(*question))
}

// DeleteQuestion
// @Summary Delete question (admin)
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse "QUESTION_001"
// @Router /admin/questions/{id} [delete]
func (h *AdminHandler) DeleteQuestion(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.QuestionInvalidID)
	}

	if err := h.questionService.DeleteQuestion(c.Request().Context(), actorFromContext(c), id); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MoveQuestion swaps a question with its neighbour in one transaction
// @Summary Reorder question (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param request body dto.MoveQuestionRequest true "up or down"
// @Success 200 {object} dto.QuestionResponse
// @Failure 409 {object} errors.ErrorResponse "QUESTION_004"
// @Router /admin/questions/{id}/move [post]
func (h *AdminHandler) MoveQuestion(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.QuestionInvalidID)
	}

	var req dto.MoveQuestionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	question, err := h.questionService.MoveQuestion(c.Request().Context(), actorFromContext(c), id, repositories.MoveDirection(req.Direction))
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewQuestionResponse(*question))
}

// SeedQuestions writes the built-in questionnaire for a loan type into the store
// @Summary Seed default questions (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param loanType path string true "Loan type key"
// @Success 200 {object} dto.SeedQuestionsResponse
// @Router /admin/loan-types/{loanType}/questions/seed [post]
func (h *AdminHandler) SeedQuestions(c echo.Context) error {
	loanType := c.Param("loanType")
	created, err := h.questionService.SeedDefaults(c.Request().Context(), actorFromContext(c), loanType)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SeedQuestionsResponse{LoanType: loanType, Created: created})
}

// ListAuditLogs lists the audit trail, optionally narrowed by user, action or resource
// @Summary List audit logs (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId query string false "User ID"
// @Param action query string false "Action"
// @Param resource query string false "Resource"
// @Param resourceId query string false "Resource ID"
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} dto.AuditLogsListResponse
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c echo.Context) error {
	offset := getIntParam(c, "offset", 0)
	limit := getIntParam(c, "limit", defaultPageSize)
	if offset < 0 || limit < 1 || limit > maxPageSize {
		return SendError(c, errors.ValidationOutOfRange, errors.WithDetails("offset must be non-negative and limit between 1 and 100"))
	}

	filter := services.AuditLogFilter{
		Action:     c.QueryParam("action"),
		Resource:   c.QueryParam("resource"),
		ResourceID: c.QueryParam("resourceId"),
	}
	if raw := c.QueryParam("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return SendError(c, errors.UserInvalidID, errors.WithDetails("userId must be a valid UUID"))
		}
		filter.UserID = &userID
	}

	logs, total, err := h.auditService.ListAuditLogs(c.Request().Context(), filter, offset, limit)
	if err != nil {
		return SendServiceError(c, err)
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}

	return c.JSON(http.StatusOK, dto.AuditLogsListResponse{
		Logs:   logs,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}
