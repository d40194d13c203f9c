package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionTypeText   = "text"
	QuestionTypeNumber = "number"
	QuestionTypeRadio  = "radio"

	LoanTypePersonal  = "personal"
	LoanTypeHome      = "home"
	LoanTypeCar       = "car"
	LoanTypeEducation = "education"
	LoanTypeBusiness  = "business"
)

// LoanTypeKeys lists the recognized questionnaire keys in display order
var LoanTypeKeys = []string{LoanTypePersonal, LoanTypeHome, LoanTypeCar, LoanTypeEducation, LoanTypeBusiness}

var (
	ErrInvalidLoanType     = errors.New("invalid loan type")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrRadioWithoutOptions = errors.New("radio questions require at least one option")
)

// QuestionOption is one selectable answer of a radio question
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LoanQuestion is one step of a loan-type questionnaire
type LoanQuestion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	LoanType      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_loan_questions_type_field;index:idx_loan_questions_type_order,priority:1" json:"loan_type"`
	Field         string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_loan_questions_type_field" json:"field"`
	Type          string          `gorm:"type:varchar(10);not null" json:"type"`
	Label         string          `gorm:"type:varchar(255);not null" json:"label"`
	Placeholder   string          `gorm:"type:varchar(255)" json:"placeholder,omitempty"`
	HelpText      string          `gorm:"type:text" json:"help_text,omitempty"`
	Options       QuestionOptions `gorm:"type:text" json:"options,omitempty"`
	Required      bool            `gorm:"not null;default:false" json:"required"`
	SequenceOrder int             `gorm:"not null;default:0;index:idx_loan_questions_type_order,priority:2" json:"sequence_order"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (q *LoanQuestion) TableName() string {
	return "loan_questions"
}

func (q *LoanQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = now
	}

	return q.Validate()
}

func (q *LoanQuestion) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}
	q.UpdatedAt = time.Now()
	return q.Validate()
}

func (q *LoanQuestion) Validate() error {
	if !IsValidLoanType(q.LoanType) {
		return fmt.Errorf("%w: %s", ErrInvalidLoanType, q.LoanType)
	}
	if strings.TrimSpace(q.Field) == "" {
		return errors.New("field is required")
	}
	if strings.TrimSpace(q.Label) == "" {
		return errors.New("label is required")
	}
	if !IsValidQuestionType(q.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidQuestionType, q.Type)
	}
	if q.Type == QuestionTypeRadio && len(q.Options) == 0 {
		return ErrRadioWithoutOptions
	}
	return nil
}

func (q *LoanQuestion) IsRadio() bool {
	return q.Type == QuestionTypeRadio
}

// HasOption reports whether value is one of the question's radio options
func (q *LoanQuestion) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func IsValidLoanType(loanType string) bool {
	for _, key := range LoanTypeKeys {
		if key == loanType {
			return true
		}
	}
	return false
}

func IsValidQuestionType(questionType string) bool {
	switch questionType {
	case QuestionTypeText, QuestionTypeNumber, QuestionTypeRadio:
		return true
	}
	return false
}

// QuestionOptions is stored as a JSON array in a text column
type QuestionOptions []QuestionOption

func (o QuestionOptions) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	bytes, err := json.Marshal([]QuestionOption(o))
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (o *QuestionOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into QuestionOptions", value)
	}

	if len(bytes) == 0 {
		*o = nil
		return nil
	}

	return json.Unmarshal(bytes, (*[]QuestionOption)(o))
}
