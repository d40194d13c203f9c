package dto

import (
	"time"

	"loan-compare/internal/models"
)

// CreateApplicationRequest carries a completed questionnaire. LoanType may be a
// label ("Home Loan") or a key ("home").
type CreateApplicationRequest struct {
	LoanType string            `json:"loanType" validate:"required,max=50"`
	Answers  map[string]string `json:"answers" validate:"required"`
}

// ListApplicationsRequest filters the back-office application list
type ListApplicationsRequest struct {
	Status   string `query:"status" validate:"omitempty,application_status"`
	LoanType string `query:"loanType" validate:"omitempty,loan_type"`
	Page     int    `query:"page" validate:"min=1"`
	Limit    int    `query:"limit" validate:"min=1,max=100"`
}

// UpdateApplicationStatusRequest records a back-office decision
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=under_review approved rejected"`
	Notes  string `json:"notes" validate:"max=2000"`
}

type DocumentResponse struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"documentType"`
	Label        string    `json:"label"`
	FileName     string    `json:"fileName"`
	SizeBytes    int64     `json:"sizeBytes"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func NewDocumentResponse(d models.ApplicationDocument) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID.String(),
		DocumentType: d.DocumentType,
		Label:        models.DocumentTypeLabel(d.DocumentType),
		FileName:     d.FileName,
		SizeBytes:    d.SizeBytes,
		UploadedAt:   d.CreatedAt,
	}
}

// RequiredDocumentResponse names a document type the applicant still has to upload
type RequiredDocumentResponse struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type ApplicationResponse struct {
	ID               string                     `json:"id"`
	UserID           string                     `json:"userId"`
	LoanType         string                     `json:"loanType"`
	ApplicantName    string                     `json:"applicantName"`
	Email            string                     `json:"email"`
	Phone            string                     `json:"phone,omitempty"`
	LoanAmount       string                     `json:"loanAmount"`
	MonthlyIncome    string                     `json:"monthlyIncome"`
	CreditScore      *int                       `json:"creditScore"`
	EmploymentStatus string                     `json:"employmentStatus,omitempty"`
	Status           string                     `json:"status"`
	ApplicationData  models.JSONBMap            `json:"applicationData,omitempty"`
	Documents        []DocumentResponse         `json:"documents"`
	MissingDocuments []RequiredDocumentResponse `json:"missingDocuments"`
	ReviewNotes      string                     `json:"reviewNotes,omitempty"`
	SubmittedAt      *time.Time                 `json:"submittedAt,omitempty"`
	ReviewedAt       *time.Time                 `json:"reviewedAt,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

func NewApplicationResponse(a *models.LoanApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:               a.ID.String(),
		UserID:           a.UserID.String(),
		LoanType:         a.LoanType,
		ApplicantName:    a.ApplicantName,
		Email:            a.Email,
		Phone:            a.Phone,
		LoanAmount:       a.LoanAmount.StringFixed(2),
		MonthlyIncome:    a.MonthlyIncome.StringFixed(2),
		CreditScore:      a.CreditScore,
		EmploymentStatus: a.EmploymentStatus,
		Status:           a.Status,
		ApplicationData:  a.ApplicationData,
		Documents:        make([]DocumentResponse, 0, len(a.Documents)),
		MissingDocuments: []RequiredDocumentResponse{},
		ReviewNotes:      a.ReviewNotes,
		SubmittedAt:      a.SubmittedAt,
		ReviewedAt:       a.ReviewedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}

	attached := make([]string, 0, len(a.Documents))
	for _, d := range a.Documents {
		resp.Documents = append(resp.Documents, NewDocumentResponse(d))
		attached = append(attached, d.DocumentType)
	}
	if a.IsAwaitingDocuments() {
		for _, t := range models.MissingDocumentTypes(attached) {
			resp.MissingDocuments = append(resp.MissingDocuments, RequiredDocumentResponse{Type: t, Label: models.DocumentTypeLabel(t)})
		}
	}
	return resp
}

type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Pagination   PaginationMeta        `json:"pagination"`
}

func NewApplicationListResponse(apps []*models.LoanApplication, page, limit int, total int64) ApplicationListResponse {
	resp := ApplicationListResponse{
		Applications: make([]ApplicationResponse, 0, len(apps)),
		Pagination:   NewPaginationMeta(page, limit, total),
	}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, NewApplicationResponse(app))
	}
	return resp
}
