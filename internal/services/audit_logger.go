package services

import (
	"context"
	"log/slog"
	"time"

	"loan-compare/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID returns a context carrying the request's trace ID for log correlation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogBankMatch(ctx context.Context, prefs models.UserPreferences, catalogSize, matched int, durationMs int64) {
	priority := ""
	if prefs.InterestRatePriority != nil {
		priority = string(*prefs.InterestRatePriority)
	}
	al.logger.InfoContext(ctx, "bank match evaluated",
		slog.String("event_type", "bank_match"),
		slog.String("banking_need", prefs.BankingNeed),
		slog.String("location", prefs.LocationPreference),
		slog.String("account_type", prefs.AccountType),
		slog.Int("feature_count", len(prefs.PreferredFeatures)),
		slog.String("rate_priority", priority),
		slog.Int("catalog_size", catalogSize),
		slog.Int("matched", matched),
		slog.Int64("duration_ms", durationMs),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogCatalogCache(ctx context.Context, key string, hit bool) {
	al.logger.DebugContext(ctx, "catalog cache lookup",
		slog.String("event_type", "catalog_cache"),
		slog.String("key", key),
		slog.Bool("hit", hit),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogApplicationStateChange(ctx context.Context, applicationID uuid.UUID, oldStatus, newStatus string) {
	al.logger.InfoContext(ctx, "application state change",
		slog.String("event_type", "application_state_change"),
		slog.String("application_id", applicationID.String()),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogDocumentStored(ctx context.Context, applicationID uuid.UUID, documentType string, sizeBytes int64, replaced bool) {
	al.logger.InfoContext(ctx, "document stored",
		slog.String("event_type", "document_stored"),
		slog.String("application_id", applicationID.String()),
		slog.String("document_type", documentType),
		slog.Int64("size_bytes", sizeBytes),
		slog.Bool("replaced", replaced),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogDocumentStoreFailed(ctx context.Context, applicationID uuid.UUID, documentType, errorMsg string) {
	al.logger.WarnContext(ctx, "document store failed",
		slog.String("event_type", "document_store_failed"),
		slog.String("application_id", applicationID.String()),
		slog.String("document_type", documentType),
		slog.String("error", errorMsg),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string) {
	al.logger.WarnContext(ctx, "circuit breaker state change",
		slog.String("event_type", "circuit_breaker_state_change"),
		slog.String("service", service),
		slog.String("old_state", oldState),
		slog.String("new_state", newState),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogQuestionMoved(ctx context.Context, questionID uuid.UUID, direction string, fromOrder, toOrder int) {
	al.logger.InfoContext(ctx, "question moved",
		slog.String("event_type", "question_moved"),
		slog.String("question_id", questionID.String()),
		slog.String("direction", direction),
		slog.Int("from_order", fromOrder),
		slog.Int("to_order", toOrder),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogExportGenerated(ctx context.Context, rows int, durationMs int64) {
	al.logger.InfoContext(ctx, "applications export generated",
		slog.String("event_type", "applications_export"),
		slog.Int("rows", rows),
		slog.Int64("duration_ms", durationMs),
		slog.String("correlation_id", TraceIDFromContext(ctx)),
	)
}

// TraceIDFromContext returns the trace ID stored by WithTraceID, if any
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}

	return ""
}
