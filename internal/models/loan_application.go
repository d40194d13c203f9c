package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ApplicationStatusPendingDocuments = "pending_documents"
	ApplicationStatusPending          = "pending"
	ApplicationStatusUnderReview      = "under_review"
	ApplicationStatusApproved         = "approved"
	ApplicationStatusRejected         = "rejected"
)

var (
	ErrInvalidApplicationStatus = errors.New("invalid application status")
	ErrInvalidStatusTransition  = errors.New("invalid application status transition")
	ErrApplicationSubmitted     = errors.New("application has already been submitted")
	ErrNonPositiveAmount        = errors.New("loan amount and monthly income must be positive")
)

// allowedTransitions lists the statuses reachable from each status
var allowedTransitions = map[string][]string{
	ApplicationStatusPendingDocuments: {ApplicationStatusPending},
	ApplicationStatusPending:          {ApplicationStatusUnderReview, ApplicationStatusApproved, ApplicationStatusRejected},
	ApplicationStatusUnderReview:      {ApplicationStatusApproved, ApplicationStatusRejected},
}

// creditScoreBuckets maps the questionnaire's credit score answers to a representative score
var creditScoreBuckets = map[string]int{
	"750+":      750,
	"700-749":   700,
	"650-699":   650,
	"below-650": 600,
}

// LoanApplication is a borrower's submitted questionnaire plus the fields the back office filters on
type LoanApplication struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ApplicantName    string          `gorm:"type:varchar(200);not null" json:"applicant_name"`
	Email            string          `gorm:"type:varchar(255);not null" json:"email"`
	Phone            string          `gorm:"type:varchar(20)" json:"phone,omitempty"`
	LoanType         string          `gorm:"type:varchar(20);not null;index" json:"loan_type"`
	LoanAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"loan_amount"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"monthly_income"`
	CreditScore      *int            `json:"credit_score,omitempty"`
	EmploymentStatus string          `gorm:"type:varchar(50)" json:"employment_status,omitempty"`
	ApplicationData  JSONBMap        `gorm:"type:text" json:"application_data,omitempty"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending_documents';index" json:"status"`
	ReviewNotes      string          `gorm:"type:text" json:"review_notes,omitempty"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	User      User                  `gorm:"foreignKey:UserID" json:"-"`
	Documents []ApplicationDocument `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
}

func (a *LoanApplication) TableName() string {
	return "loan_applications"
}

func (a *LoanApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.Status == "" {
		a.Status = ApplicationStatusPendingDocuments
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	return a.Validate()
}

func (a *LoanApplication) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}
	a.UpdatedAt = time.Now()
	return a.Validate()
}

func (a *LoanApplication) Validate() error {
	if a.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if strings.TrimSpace(a.ApplicantName) == "" {
		return errors.New("applicant name is required")
	}
	if !emailRegex.MatchString(a.Email) {
		return errors.New("invalid email format")
	}
	if !IsValidLoanType(a.LoanType) {
		return fmt.Errorf("%w: %s", ErrInvalidLoanType, a.LoanType)
	}
	if !a.LoanAmount.IsPositive() || !a.MonthlyIncome.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !IsValidApplicationStatus(a.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidApplicationStatus, a.Status)
	}
	return nil
}

func (a *LoanApplication) IsAwaitingDocuments() bool {
	return a.Status == ApplicationStatusPendingDocuments
}

func (a *LoanApplication) BelongsTo(userID uuid.UUID) bool {
	return a.UserID == userID
}

// CanTransitionTo reports whether the back office or the wizard may move the application to status
func (a *LoanApplication) CanTransitionTo(status string) bool {
	for _, next := range allowedTransitions[a.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// MarkSubmitted moves an application out of pending_documents once its documents are attached
func (a *LoanApplication) MarkSubmitted() error {
	if !a.IsAwaitingDocuments() {
		return ErrApplicationSubmitted
	}
	now := time.Now()
	a.Status = ApplicationStatusPending
	a.SubmittedAt = &now
	return nil
}

// Review applies a back-office decision
func (a *LoanApplication) Review(status, notes string) error {
	if !IsValidApplicationStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidApplicationStatus, status)
	}
	if !a.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, status)
	}
	now := time.Now()
	a.Status = status
	a.ReviewNotes = notes
	a.ReviewedAt = &now
	return nil
}

func IsValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusPendingDocuments, ApplicationStatusPending, ApplicationStatusUnderReview,
		ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// CreditScoreFromBucket converts a credit score answer to a representative score.
// Unrecognized buckets yield nil rather than an error.
func CreditScoreFromBucket(bucket string) *int {
	score, ok := creditScoreBuckets[bucket]
	if !ok {
		return nil
	}
	return &score
}
