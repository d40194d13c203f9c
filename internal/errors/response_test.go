package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ResponseTestSuite struct {
	suite.Suite
	traceID string
}

func (s *ResponseTestSuite) SetupTest() {
	s.traceID = "550e8400-e29b-41d4-a716-446655440000"
}

func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestNewErrorResponse_BasicUsage() {
	response := NewErrorResponse(AuthInvalidCredentials, s.traceID)

	s.Equal("AUTH_001", response.Error.Code)
	s.Equal("Invalid email or password", response.Error.Message)
	s.Equal(s.traceID, response.Error.TraceID)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestNewErrorResponse_WithOptions() {
	response := NewErrorResponse(
		ApplicationNotFound,
		s.traceID,
		WithMessage("Custom message"),
		WithDetails("Detail 1", "Detail 2"),
	)

	s.Equal("APPLICATION_001", response.Error.Code)
	s.Equal("Custom message", response.Error.Message)
	s.Equal([]string{"Detail 1", "Detail 2"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestWithOptions_LastInvocationWins() {
	response := NewErrorResponse(
		ValidationGeneral,
		s.traceID,
		WithDetails("detail1", "detail2"),
		WithDetails("detail3"),
		WithMessage("First message"),
		WithMessage("Second message"),
	)

	s.Equal([]string{"detail3"}, response.Error.Details)
	s.Equal("Second message", response.Error.Message)
}

func (s *ResponseTestSuite) TestNewValidationError_WithFieldErrors() {
	response := NewValidationError(map[string]string{
		"email":    "must be a valid email address",
		"loanType": "is required",
	}, s.traceID)

	s.Equal("VALIDATION_001", response.Error.Code)
	s.Equal([]string{
		"email: must be a valid email address",
		"loanType: is required",
	}, response.Error.Details)
}

func (s *ResponseTestSuite) TestNewMissingItemsError_ListsLabels() {
	response := NewMissingItemsError(ApplicationMissingDocuments, []string{"PAN Card", "Bank Statement"}, s.traceID)

	s.Equal("APPLICATION_004", response.Error.Code)
	s.Equal("Please upload all required documents: PAN Card, Bank Statement", response.Error.Message)
	s.Equal([]string{"missing: PAN Card", "missing: Bank Statement"}, response.Error.Details)
	s.Equal(http.StatusUnprocessableEntity, response.GetHTTPStatus())
}

func (s *ResponseTestSuite) TestWrapSystemError_NoInternalDetailsExposed() {
	internalErr := errors.New("SQL error: relation \"loan_applications\" does not exist")

	response, originalErr := WrapSystemError(internalErr, s.traceID)

	s.Equal("SYSTEM_001", response.Error.Code)
	s.NotContains(response.Error.Message, "SQL")
	s.Empty(response.Error.Details)
	s.Equal(internalErr, originalErr)
}

func (s *ResponseTestSuite) TestJSONShape() {
	response := NewErrorResponse(BankNotFound, s.traceID, WithDetails("id: ally"))

	jsonBytes, err := json.Marshal(response)
	s.Require().NoError(err)

	var jsonMap map[string]interface{}
	s.Require().NoError(json.Unmarshal(jsonBytes, &jsonMap))

	errorObj := jsonMap["error"].(map[string]interface{})
	s.Equal("BANK_001", errorObj["code"])
	s.Equal("Bank offer not found", errorObj["message"])
	s.Equal(s.traceID, errorObj["trace_id"])
	s.Equal([]interface{}{"id: ally"}, errorObj["details"])
}

func (s *ResponseTestSuite) TestJSONOmitsEmptyDetails() {
	jsonBytes, err := json.Marshal(NewErrorResponse(AuthInvalidCredentials, s.traceID))
	s.Require().NoError(err)

	var jsonMap map[string]interface{}
	s.Require().NoError(json.Unmarshal(jsonBytes, &jsonMap))

	_, hasDetails := jsonMap["error"].(map[string]interface{})["details"]
	s.False(hasDetails)
}

func (s *ResponseTestSuite) TestGetHTTPStatus_AllFamilies() {
	testCases := []struct {
		code           ErrorCode
		expectedStatus int
	}{
		{ValidationGeneral, http.StatusBadRequest},
		{DocumentInvalidType, http.StatusBadRequest},
		{BankInvalidPreferences, http.StatusBadRequest},
		{AuthMissingToken, http.StatusUnauthorized},
		{AuthLoginRequired, http.StatusUnauthorized},
		{AuthInsufficientPermission, http.StatusForbidden},
		{ApplicationAccessDenied, http.StatusForbidden},
		{UserNotFound, http.StatusNotFound},
		{QuestionNotFound, http.StatusNotFound},
		{UserAlreadyExists, http.StatusConflict},
		{ApplicationAlreadySubmitted, http.StatusConflict},
		{DocumentTooLarge, http.StatusRequestEntityTooLarge},
		{ApplicationMissingAnswer, http.StatusUnprocessableEntity},
		{QuestionCannotMove, http.StatusUnprocessableEntity},
		{SystemRateLimitExceeded, http.StatusTooManyRequests},
		{DocumentUploadFailed, http.StatusBadGateway},
		{DocumentStoreDegraded, http.StatusServiceUnavailable},
		{SystemDatabaseError, http.StatusInternalServerError},
		{"VALIDATION_099", http.StatusBadRequest},
		{"UNKNOWN_999", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Equal(tc.expectedStatus, GetHTTPStatus(tc.code))
		})
	}
}

func (s *ResponseTestSuite) TestEveryCodeIsAnErrorStatus() {
	for _, code := range allCodes {
		status := GetHTTPStatus(code)
		s.GreaterOrEqual(status, 400, string(code))
		s.Less(status, 600, string(code))
	}
}

func (s *ResponseTestSuite) TestString_FormatsCorrectly() {
	str := NewErrorResponse(QuestionNotFound, s.traceID).String()

	s.Contains(str, "QUESTION_001")
	s.Contains(str, "Loan question not found")
	s.Contains(str, s.traceID)
}
