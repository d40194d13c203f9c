package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-compare/internal/models"
	"loan-compare/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrDocumentTooLarge       = errors.New("document exceeds the maximum upload size")
	ErrDocumentStoreUnhealthy = errors.New("document storage is temporarily unavailable")
)

// DocumentService writes document bytes through a circuit breaker so a failing
// disk or bucket stops taking uploads until it recovers
type DocumentService struct {
	store       storage.DocumentStore
	breaker     CircuitBreakerInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
}

func NewDocumentService(store storage.DocumentStore, breaker CircuitBreakerInterface, auditLogger AuditLoggerInterface, metrics MetricsRecorderInterface) DocumentServiceInterface {
	return &DocumentService{
		store:       store,
		breaker:     breaker,
		auditLogger: auditLogger,
		metrics:     metrics,
	}
}

func (s *DocumentService) Store(ctx context.Context, ownerID, applicationID uuid.UUID, upload DocumentUpload) (string, int64, error) {
	if !models.IsValidDocumentType(upload.DocumentType) {
		return "", 0, models.ErrInvalidDocumentType
	}
	if s.breaker.IsOpen() {
		s.countDocument(upload.DocumentType, "rejected")
		return "", 0, ErrDocumentStoreUnhealthy
	}

	start := time.Now()
	path, size, err := s.store.Save(ctx, ownerID, applicationID, upload.DocumentType, upload.FileName, upload.Content)
	if s.metrics != nil {
		s.metrics.RecordProcessingTime("document_store", time.Since(start))
	}

	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			// the client's fault, not the store's
			s.countDocument(upload.DocumentType, "too_large")
			return "", 0, ErrDocumentTooLarge
		}
		if !errors.Is(err, context.Canceled) && !errors.Is(err, storage.ErrInvalidPath) {
			s.breaker.RecordFailure()
		}
		if s.auditLogger != nil {
			s.auditLogger.LogDocumentStoreFailed(ctx, applicationID, upload.DocumentType, err.Error())
		}
		s.countDocument(upload.DocumentType, "failed")
		return "", 0, fmt.Errorf("failed to store document: %w", err)
	}

	s.breaker.RecordSuccess()
	s.countDocument(upload.DocumentType, "stored")
	return path, size, nil
}

func (s *DocumentService) Remove(ctx context.Context, storagePath string) error {
	return s.store.Delete(ctx, storagePath)
}

// Healthy reports whether uploads are currently accepted
func (s *DocumentService) Healthy() bool {
	return s.breaker.GetState() != StateOpen
}

func (s *DocumentService) countDocument(documentType, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter("documents_total", map[string]string{
			"document_type": documentType,
			"outcome":       outcome,
		})
	}
}
