package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"loan-compare/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Validator wraps the go-playground validator with the loan domain's custom tags
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a validator with custom tags registered and json field names in errors
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("loan_type", validateLoanType)
	_ = v.RegisterValidation("banking_need", validateBankingNeed)
	_ = v.RegisterValidation("rate_priority", validateRatePriority)
	_ = v.RegisterValidation("document_type", validateDocumentType)
	_ = v.RegisterValidation("application_status", validateApplicationStatus)
	_ = v.RegisterValidation("slug", validateSlug)
	_ = v.RegisterValidation("phone", validatePhone)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{validate: v}
}

// Struct validates a struct against its validate tags
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// validateLoanType accepts canonical questionnaire keys only
func validateLoanType(fl validator.FieldLevel) bool {
	return models.IsValidLoanType(fl.Field().String())
}

func validateBankingNeed(fl validator.FieldLevel) bool {
	return models.IsValidBankingNeed(fl.Field().String())
}

func validateRatePriority(fl validator.FieldLevel) bool {
	return models.IsValidRatePriority(fl.Field().String())
}

func validateDocumentType(fl validator.FieldLevel) bool {
	return models.IsValidDocumentType(fl.Field().String())
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	return models.IsValidApplicationStatus(fl.Field().String())
}

// validateSlug accepts lowercase identifiers such as catalog ids ("wellsfargo", "bank-of-x")
func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
