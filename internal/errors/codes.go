package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"
	AuthLoginRequired          ErrorCode = "AUTH_007"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_005"
	ValidationInvalidPhone  ErrorCode = "VALIDATION_006"
	ValidationInvalidDate   ErrorCode = "VALIDATION_007"
)

// User error codes (USER_*)
const (
	UserNotFound      ErrorCode = "USER_001"
	UserAlreadyExists ErrorCode = "USER_002"
	UserInvalidID     ErrorCode = "USER_003"
	UserSelfAction    ErrorCode = "USER_004"
)

// Application error codes (APPLICATION_*)
const (
	ApplicationNotFound          ErrorCode = "APPLICATION_001"
	ApplicationInvalidID         ErrorCode = "APPLICATION_002"
	ApplicationMissingAnswer     ErrorCode = "APPLICATION_003"
	ApplicationMissingDocuments  ErrorCode = "APPLICATION_004"
	ApplicationInvalidStatus     ErrorCode = "APPLICATION_005"
	ApplicationAlreadySubmitted  ErrorCode = "APPLICATION_006"
	ApplicationAccessDenied      ErrorCode = "APPLICATION_007"
	ApplicationInvalidLoanAmount ErrorCode = "APPLICATION_008"
)

// Document error codes (DOCUMENT_*)
const (
	DocumentInvalidType   ErrorCode = "DOCUMENT_001"
	DocumentMissingFile   ErrorCode = "DOCUMENT_002"
	DocumentTooLarge      ErrorCode = "DOCUMENT_003"
	DocumentUploadFailed  ErrorCode = "DOCUMENT_004"
	DocumentStoreDegraded ErrorCode = "DOCUMENT_005"
)

// Bank catalog error codes (BANK_*)
const (
	BankNotFound           ErrorCode = "BANK_001"
	BankAlreadyExists      ErrorCode = "BANK_002"
	BankInvalidPreferences ErrorCode = "BANK_003"
)

// Question error codes (QUESTION_*)
const (
	QuestionNotFound       ErrorCode = "QUESTION_001"
	QuestionInvalidID      ErrorCode = "QUESTION_002"
	QuestionDuplicateField ErrorCode = "QUESTION_003"
	QuestionCannotMove     ErrorCode = "QUESTION_004"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemNotFound           ErrorCode = "SYSTEM_007"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials:     "Invalid email or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthAccountLocked:          "Account is locked or disabled",
	AuthLoginRequired:          "Please log in to submit your application",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidEmail:  "Invalid email address format",
	ValidationInvalidPhone:  "Invalid phone number format",
	ValidationInvalidDate:   "Invalid date format or range",

	// User errors
	UserNotFound:      "User not found",
	UserAlreadyExists: "An account with this email already exists",
	UserInvalidID:     "Invalid user ID format",
	UserSelfAction:    "This action cannot be performed on your own account",

	// Application errors
	ApplicationNotFound:          "Loan application not found",
	ApplicationInvalidID:         "Invalid loan application ID format",
	ApplicationMissingAnswer:     "Please answer all required questions",
	ApplicationMissingDocuments:  "Please upload all required documents",
	ApplicationInvalidStatus:     "Invalid loan application status",
	ApplicationAlreadySubmitted:  "Loan application has already been submitted",
	ApplicationAccessDenied:      "Loan application belongs to another user",
	ApplicationInvalidLoanAmount: "Loan amount and monthly income must be positive numbers",

	// Document errors
	DocumentInvalidType:   "Unsupported document type",
	DocumentMissingFile:   "A file is required for upload",
	DocumentTooLarge:      "Uploaded file exceeds the maximum allowed size",
	DocumentUploadFailed:  "Failed to upload document. Please try again",
	DocumentStoreDegraded: "Document storage is temporarily unavailable. Please try again later",

	// Bank errors
	BankNotFound:           "Bank offer not found",
	BankAlreadyExists:      "A bank offer with this ID already exists",
	BankInvalidPreferences: "Invalid bank matching preferences",

	// Question errors
	QuestionNotFound:       "Loan question not found",
	QuestionInvalidID:      "Invalid loan question ID format",
	QuestionDuplicateField: "A question with this field already exists for the loan type",
	QuestionCannotMove:     "Question cannot be moved further in that direction",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemNotFound:           "Resource not found",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
