package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() LoanApplication {
	return LoanApplication{
		UserID:        uuid.New(),
		ApplicantName: "Priya Sharma",
		Email:         "priya@example.com",
		LoanType:      LoanTypeHome,
		LoanAmount:    decimal.NewFromInt(2500000),
		MonthlyIncome: decimal.NewFromInt(120000),
		Status:        ApplicationStatusPendingDocuments,
	}
}

func TestLoanApplication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoanApplication)
		wantErr error
		errMsg  string
	}{
		{name: "valid application", mutate: func(*LoanApplication) {}},
		{name: "missing user", mutate: func(a *LoanApplication) { a.UserID = uuid.Nil }, errMsg: "user ID is required"},
		{name: "missing applicant name", mutate: func(a *LoanApplication) { a.ApplicantName = "" }, errMsg: "applicant name is required"},
		{name: "invalid email", mutate: func(a *LoanApplication) { a.Email = "priya" }, errMsg: "invalid email format"},
		{name: "unknown loan type", mutate: func(a *LoanApplication) { a.LoanType = "gold" }, wantErr: ErrInvalidLoanType},
		{name: "zero loan amount", mutate: func(a *LoanApplication) { a.LoanAmount = decimal.Zero }, wantErr: ErrNonPositiveAmount},
		{name: "negative income", mutate: func(a *LoanApplication) { a.MonthlyIncome = decimal.NewFromInt(-1) }, wantErr: ErrNonPositiveAmount},
		{name: "unknown status", mutate: func(a *LoanApplication) { a.Status = "draft" }, wantErr: ErrInvalidApplicationStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			err := app.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoanApplication_BeforeCreateDefaultsStatus(t *testing.T) {
	app := validApplication()
	app.Status = ""

	require.NoError(t, app.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.Equal(t, ApplicationStatusPendingDocuments, app.Status)
	assert.True(t, app.IsAwaitingDocuments())
}

func TestLoanApplication_MarkSubmitted(t *testing.T) {
	app := validApplication()

	require.NoError(t, app.MarkSubmitted())
	assert.Equal(t, ApplicationStatusPending, app.Status)
	assert.NotNil(t, app.SubmittedAt)

	assert.ErrorIs(t, app.MarkSubmitted(), ErrApplicationSubmitted)
}

func TestLoanApplication_Review(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "pending to under review", from: ApplicationStatusPending, to: ApplicationStatusUnderReview},
		{name: "pending to approved", from: ApplicationStatusPending, to: ApplicationStatusApproved},
		{name: "under review to rejected", from: ApplicationStatusUnderReview, to: ApplicationStatusRejected},
		{name: "documents outstanding cannot be approved", from: ApplicationStatusPendingDocuments, to: ApplicationStatusApproved, wantErr: ErrInvalidStatusTransition},
		{name: "approved is final", from: ApplicationStatusApproved, to: ApplicationStatusRejected, wantErr: ErrInvalidStatusTransition},
		{name: "unknown target", from: ApplicationStatusPending, to: "archived", wantErr: ErrInvalidApplicationStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			app.Status = tt.from

			err := app.Review(tt.to, "checked")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, app.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, app.Status)
			assert.Equal(t, "checked", app.ReviewNotes)
			assert.NotNil(t, app.ReviewedAt)
		})
	}
}

func TestCreditScoreFromBucket(t *testing.T) {
	tests := []struct {
		bucket   string
		expected *int
	}{
		{"750+", intPtr(750)},
		{"700-749", intPtr(700)},
		{"650-699", intPtr(650)},
		{"below-650", intPtr(600)},
		{"not-sure", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreditScoreFromBucket(tt.bucket))
		})
	}
}

func intPtr(v int) *int {
	return &v
}
