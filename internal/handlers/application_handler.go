package handlers

import (
	"net/http"
	"strings"

	"loan-compare/internal/dto"
	"loan-compare/internal/errors"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ApplicationHandler runs the applicant side of the loan application wizard
type ApplicationHandler struct {
	applicationService services.ApplicationServiceInterface
	maxUploadBytes     int64
}

func NewApplicationHandler(applicationService services.ApplicationServiceInterface, maxUploadBytes int64) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		maxUploadBytes:     maxUploadBytes,
	}
}

// CreateApplication stores a completed questionnaire. The route accepts
// anonymous callers so they can be told to log in rather than rejected by middleware.
// @Summary Create loan application
// @Tags Applications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateApplicationRequest true "Loan type and answers"
// @Success 201 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 401 {object} errors.ErrorResponse "AUTH_007"
// @Failure 422 {object} errors.ErrorResponse "APPLICATION_003"
// @Router /applications [post]
func (h *ApplicationHandler) CreateApplication(c echo.Context) error {
	var req dto.CreateApplicationRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	app, err := h.applicationService.CreateApplication(c.Request().Context(), actorFromContext(c), req.LoanType, req.Answers)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewApplicationResponse(app),
		Message: "Application created, upload the required documents to submit",
	})
}

// ListMyApplications
// @Summary List the caller's applications
// @Tags Applications
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} dto.ApplicationListResponse
// @Router /applications [get]
func (h *ApplicationHandler) ListMyApplications(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	page, limit, ok := pagination(c)
	if !ok {
		return SendError(c, errors.ValidationOutOfRange, errors.WithDetails("page must be at least 1 and limit between 1 and 100"))
	}

	apps, total, err := h.applicationService.ListUserApplications(c.Request().Context(), userID, page, limit)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewApplicationListResponse(apps, page, limit, total))
}

// GetApplication returns one application. Applicants only see their own;
// anyone else's is reported as not found.
// @Summary Get loan application
// @Tags Applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 404 {object} errors.ErrorResponse "APPLICATION_001"
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ApplicationInvalidID)
	}

	owner := &userID
	if getIsAdminFromContext(c) {
		owner = nil
	}

	app, err := h.applicationService.GetApplication(c.Request().Context(), id, owner)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewApplicationResponse(app)})
}

// UploadDocument attaches one required document. Uploading the same type again
// replaces the earlier file.
// @Summary Upload application document
// @Tags Applications
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param documentType formData string true "pan_card, aadhar_card, income_certificate, bank_statement or address_proof"
// @Param file formData file true "Document"
// @Success 201 {object} SuccessResponse{data=dto.DocumentResponse}
// @Failure 400 {object} errors.ErrorResponse "DOCUMENT_001 or DOCUMENT_002"
// @Failure 413 {object} errors.ErrorResponse "DOCUMENT_003"
// @Failure 503 {object} errors.ErrorResponse "DOCUMENT_005"
// @Router /applications/{id}/documents [post]
func (h *ApplicationHandler) UploadDocument(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ApplicationInvalidID)
	}

	documentType := strings.TrimSpace(c.FormValue("documentType"))
	if documentType == "" {
		return SendError(c, errors.DocumentInvalidType, errors.WithDetails("documentType is required"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return SendError(c, errors.DocumentMissingFile)
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return SendError(c, errors.DocumentTooLarge)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return SendError(c, errors.DocumentUploadFailed, errors.WithDetails("Could not read uploaded file"))
	}
	defer file.Close()

	doc, err := h.applicationService.UploadDocument(c.Request().Context(), actorFromContext(c), id, services.DocumentUpload{
		DocumentType: documentType,
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Content:      file,
	})
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewDocumentResponse(*doc),
		Message: "Document uploaded",
	})
}

// SubmitApplication moves an application with every required document into review
// @Summary Submit loan application
// @Tags Applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 401 {object} errors.ErrorResponse "AUTH_007"
// @Failure 409 {object} errors.ErrorResponse "APPLICATION_006"
// @Failure 422 {object} errors.ErrorResponse "APPLICATION_004"
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) SubmitApplication(c echo.Context) error {
	id, err := getUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ApplicationInvalidID)
	}

	app, err := h.applicationService.SubmitApplication(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    dto.NewApplicationResponse(app),
		Message: "Application submitted for review",
	})
}

// pagination reads page and limit query parameters with their defaults
func pagination(c echo.Context) (page, limit int, ok bool) {
	page = getIntParam(c, "page", 1)
	limit = getIntParam(c, "limit", defaultPageSize)
	return page, limit, page >= 1 && limit >= 1 && limit <= maxPageSize
}
