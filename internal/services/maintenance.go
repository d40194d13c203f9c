package services

import (
	"context"
	"log/slog"
	"time"

	"loan-compare/internal/repositories"
)

// Maintenance periodically drops expired token revocations and audit entries
// older than the retention window
type Maintenance struct {
	auditService AuditServiceInterface
	tokens       repositories.BlacklistedTokenRepositoryInterface
	retention    time.Duration
	interval     time.Duration
	logger       *slog.Logger
}

func NewMaintenance(auditService AuditServiceInterface, tokens repositories.BlacklistedTokenRepositoryInterface, retention, interval time.Duration, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Maintenance{
		auditService: auditService,
		tokens:       tokens,
		retention:    retention,
		interval:     interval,
		logger:       logger,
	}
}

// Run sweeps once immediately and then on every interval until ctx is done
func (m *Maintenance) Run(ctx context.Context) {
	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Failures are logged and retried on the next tick.
func (m *Maintenance) RunOnce(ctx context.Context) {
	if m.tokens != nil {
		if n, err := m.tokens.DeleteExpired(ctx); err != nil {
			m.logger.ErrorContext(ctx, "failed to delete expired token revocations", "error", err)
		} else if n > 0 {
			m.logger.InfoContext(ctx, "deleted expired token revocations", "count", n)
		}
	}

	if m.auditService != nil && m.retention > 0 {
		if n, err := m.auditService.PurgeOlderThan(ctx, m.retention); err != nil {
			m.logger.ErrorContext(ctx, "failed to purge audit logs", "error", err)
		} else if n > 0 {
			m.logger.InfoContext(ctx, "purged audit logs", "count", n, "retention", m.retention.String())
		}
	}
}
