package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"loan-compare/internal/errors"
	"loan-compare/internal/models"
	"loan-compare/internal/services"

	"github.com/labstack/echo/v4"
)

// Handlers report failures through SendError for client and business errors,
// SendServiceError for anything returned by a service, and SendSystemError for
// failures whose details must not reach the client.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError wraps a system error with generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, _ := errors.WrapSystemError(err, traceID)
	slog.ErrorContext(c.Request().Context(), "request failed",
		"trace_id", traceID,
		"path", c.Request().URL.Path,
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

// SendServiceError translates a service error into its API error code.
// Errors without a mapping are treated as system errors.
func SendServiceError(c echo.Context, err error) error {
	var missingAnswer *services.MissingAnswerError
	if stderrors.As(err, &missingAnswer) {
		label := missingAnswer.Label
		if label == "" {
			label = missingAnswer.Field
		}
		return c.JSON(http.StatusUnprocessableEntity,
			errors.NewMissingItemsError(errors.ApplicationMissingAnswer, []string{label}, getTraceID(c)))
	}

	var missingDocs *services.MissingDocumentsError
	if stderrors.As(err, &missingDocs) {
		return c.JSON(http.StatusUnprocessableEntity,
			errors.NewMissingItemsError(errors.ApplicationMissingDocuments, missingDocs.Labels(), getTraceID(c)))
	}

	var policy *services.PasswordPolicyError
	if stderrors.As(err, &policy) {
		return SendError(c, errors.ValidationGeneral,
			errors.WithMessage("Password does not meet the security policy"),
			errors.WithDetails(policy.Messages()...))
	}

	if code, ok := serviceErrorCode(err); ok {
		return SendError(c, code, errors.WithDetails(err.Error()))
	}
	return SendSystemError(c, err)
}

var serviceErrorCodes = []struct {
	target error
	code   errors.ErrorCode
}{
	{services.ErrLoginRequired, errors.AuthLoginRequired},
	{services.ErrInvalidCredentials, errors.AuthInvalidCredentials},
	{services.ErrAccountLocked, errors.AuthAccountLocked},
	{services.ErrUserAlreadyExists, errors.UserAlreadyExists},
	{services.ErrUserNotFound, errors.UserNotFound},
	{services.ErrCannotModifySelf, errors.UserSelfAction},
	{services.ErrInvalidRole, errors.ValidationInvalidFormat},
	{services.ErrPasswordEmpty, errors.ValidationRequiredField},
	{services.ErrPasswordTooLong, errors.ValidationGeneral},
	{services.ErrApplicationNotFound, errors.ApplicationNotFound},
	{services.ErrApplicationSubmitted, errors.ApplicationAlreadySubmitted},
	{services.ErrInvalidLoanAmount, errors.ApplicationInvalidLoanAmount},
	{services.ErrInvalidMonthlyIncome, errors.ApplicationInvalidLoanAmount},
	{services.ErrStatusChangeForbidden, errors.ApplicationInvalidStatus},
	{services.ErrAnswerNotAnOption, errors.ValidationInvalidFormat},
	{services.ErrUnknownLoanType, errors.ValidationInvalidFormat},
	{models.ErrInvalidDocumentType, errors.DocumentInvalidType},
	{services.ErrDocumentTooLarge, errors.DocumentTooLarge},
	{services.ErrDocumentStoreUnhealthy, errors.DocumentStoreDegraded},
	{services.ErrBankOfferNotFound, errors.BankNotFound},
	{services.ErrBankOfferExists, errors.BankAlreadyExists},
	{services.ErrInvalidBankOffer, errors.ValidationGeneral},
	{models.ErrInvalidLoanType, errors.ValidationInvalidFormat},
	{models.ErrInvalidApplicationStatus, errors.ApplicationInvalidStatus},
	{services.ErrCatalogReadOnly, errors.SystemServiceUnavailable},
	{services.ErrQuestionNotFound, errors.QuestionNotFound},
	{services.ErrQuestionFieldExists, errors.QuestionDuplicateField},
	{services.ErrQuestionCannotMove, errors.QuestionCannotMove},
	{services.ErrInvalidQuestion, errors.ValidationGeneral},
	{services.ErrInvalidAuditLog, errors.ValidationGeneral},
	{services.ErrInvalidAction, errors.ValidationInvalidFormat},
}

func serviceErrorCode(err error) (errors.ErrorCode, bool) {
	for _, m := range serviceErrorCodes {
		if stderrors.Is(err, m.target) {
			return m.code, true
		}
	}
	return "", false
}
