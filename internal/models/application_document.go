package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocumentTypePanCard           = "pan_card"
	DocumentTypeAadharCard        = "aadhar_card"
	DocumentTypeIncomeCertificate = "income_certificate"
	DocumentTypeBankStatement     = "bank_statement"
	DocumentTypeAddressProof      = "address_proof"
)

// RequiredDocumentTypes must all be attached before any application can be submitted
var RequiredDocumentTypes = []string{
	DocumentTypePanCard,
	DocumentTypeAadharCard,
	DocumentTypeIncomeCertificate,
	DocumentTypeBankStatement,
	DocumentTypeAddressProof,
}

var documentTypeLabels = map[string]string{
	DocumentTypePanCard:           "PAN Card",
	DocumentTypeAadharCard:        "Aadhar Card",
	DocumentTypeIncomeCertificate: "Income Certificate",
	DocumentTypeBankStatement:     "Bank Statement",
	DocumentTypeAddressProof:      "Address Proof",
}

var ErrInvalidDocumentType = errors.New("invalid document type")

// ApplicationDocument is the metadata record written for each uploaded file
type ApplicationDocument struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index:idx_application_documents_app_type,priority:1" json:"application_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	DocumentType  string    `gorm:"type:varchar(30);not null;index:idx_application_documents_app_type,priority:2" json:"document_type"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"file_name"`
	StoragePath   string    `gorm:"type:varchar(500);not null" json:"storage_path"`
	ContentType   string    `gorm:"type:varchar(100)" json:"content_type,omitempty"`
	SizeBytes     int64     `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`

	Application *LoanApplication `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (d *ApplicationDocument) TableName() string {
	return "application_documents"
}

func (d *ApplicationDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return d.Validate()
}

func (d *ApplicationDocument) Validate() error {
	if d.ApplicationID == uuid.Nil {
		return errors.New("application ID is required")
	}
	if d.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if !IsValidDocumentType(d.DocumentType) {
		return ErrInvalidDocumentType
	}
	if d.FileName == "" || d.StoragePath == "" {
		return errors.New("file name and storage path are required")
	}
	return nil
}

func IsValidDocumentType(documentType string) bool {
	_, ok := documentTypeLabels[documentType]
	return ok
}

// DocumentTypeLabel returns the human-readable name of a document type
func DocumentTypeLabel(documentType string) string {
	if label, ok := documentTypeLabels[documentType]; ok {
		return label
	}
	return documentType
}

// MissingDocumentTypes returns the required types absent from attached, in required order
func MissingDocumentTypes(attached []string) []string {
	have := make(map[string]bool, len(attached))
	for _, t := range attached {
		have[t] = true
	}

	var missing []string
	for _, t := range RequiredDocumentTypes {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
