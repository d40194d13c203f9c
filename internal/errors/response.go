package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorResponse is the envelope for every API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

type ErrorOption func(*ErrorResponse)

func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage overrides the default message for the error code
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
			Details: []string{},
		},
	}
	for _, opt := range opts {
		opt(response)
	}
	return response
}

// NewValidationError reports one "field: message" detail per field, sorted by
// field name so responses are stable
func NewValidationError(fieldErrors map[string]string, traceID string) *ErrorResponse {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, fmt.Sprintf("%s: %s", field, fieldErrors[field]))
	}
	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// NewMissingItemsError reports a blocked wizard transition, listing every missing answer or document label
func NewMissingItemsError(code ErrorCode, missing []string, traceID string) *ErrorResponse {
	details := make([]string, 0, len(missing))
	for _, label := range missing {
		details = append(details, "missing: "+label)
	}

	return NewErrorResponse(code, traceID,
		WithMessage(fmt.Sprintf("%s: %s", GetErrorMessage(code), strings.Join(missing, ", "))),
		WithDetails(details...),
	)
}

// WrapSystemError hides err behind SYSTEM_001 and hands it back for logging
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

var httpStatusByCode = map[ErrorCode]int{
	UserInvalidID:                http.StatusBadRequest,
	ApplicationInvalidID:         http.StatusBadRequest,
	ApplicationInvalidLoanAmount: http.StatusBadRequest,
	QuestionInvalidID:            http.StatusBadRequest,
	BankInvalidPreferences:       http.StatusBadRequest,
	DocumentInvalidType:          http.StatusBadRequest,
	DocumentMissingFile:          http.StatusBadRequest,

	AuthInvalidCredentials: http.StatusUnauthorized,
	AuthMissingToken:       http.StatusUnauthorized,
	AuthExpiredToken:       http.StatusUnauthorized,
	AuthInvalidTokenFormat: http.StatusUnauthorized,
	AuthLoginRequired:      http.StatusUnauthorized,

	AuthInsufficientPermission: http.StatusForbidden,
	AuthAccountLocked:          http.StatusForbidden,
	ApplicationAccessDenied:    http.StatusForbidden,

	UserNotFound:        http.StatusNotFound,
	ApplicationNotFound: http.StatusNotFound,
	BankNotFound:        http.StatusNotFound,
	QuestionNotFound:    http.StatusNotFound,
	SystemNotFound:      http.StatusNotFound,

	UserAlreadyExists:           http.StatusConflict,
	BankAlreadyExists:           http.StatusConflict,
	QuestionDuplicateField:      http.StatusConflict,
	ApplicationAlreadySubmitted: http.StatusConflict,

	DocumentTooLarge: http.StatusRequestEntityTooLarge,

	// the request was understood but the wizard or catalog state forbids it
	ApplicationMissingAnswer:    http.StatusUnprocessableEntity,
	ApplicationMissingDocuments: http.StatusUnprocessableEntity,
	ApplicationInvalidStatus:    http.StatusUnprocessableEntity,
	QuestionCannotMove:          http.StatusUnprocessableEntity,
	UserSelfAction:              http.StatusUnprocessableEntity,

	SystemRateLimitExceeded:  http.StatusTooManyRequests,
	DocumentUploadFailed:     http.StatusBadGateway,
	SystemServiceUnavailable: http.StatusServiceUnavailable,
	DocumentStoreDegraded:    http.StatusServiceUnavailable,
}

// GetHTTPStatus maps an error code to its status. Every VALIDATION_ code is a
// 400; anything unmapped is a 500.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	if strings.HasPrefix(string(code), "VALIDATION_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}

func (er *ErrorResponse) String() string {
	return fmt.Sprintf("[%s] %s (trace: %s)", er.Error.Code, er.Error.Message, er.Error.TraceID)
}
