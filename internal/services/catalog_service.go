package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-compare/internal/cache"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
)

const activeCatalogCacheKey = "bank_catalog:active"

var (
	ErrBankOfferNotFound = errors.New("bank offer not found")
	ErrBankOfferExists   = errors.New("bank offer already exists")
	ErrInvalidBankOffer  = errors.New("invalid bank offer")
	ErrCatalogReadOnly   = errors.New("bank catalog is read-only")
)

// CatalogService serves the bank catalog from the database (cached) or from a
// fixed list loaded at startup. The fixed list is read-only.
type CatalogService struct {
	repo         repositories.BankOfferRepositoryInterface
	static       []models.BankOffer
	cache        cache.Cache
	ttl          time.Duration
	auditService AuditServiceInterface
	auditLogger  AuditLoggerInterface
	metrics      MetricsRecorderInterface
	logger       *slog.Logger
}

// NewCatalogService serves offers from repo, caching the active list for ttl
func NewCatalogService(
	repo repositories.BankOfferRepositoryInterface,
	c cache.Cache,
	ttl time.Duration,
	auditService AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) CatalogServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		repo:         repo,
		cache:        c,
		ttl:          ttl,
		auditService: auditService,
		auditLogger:  auditLogger,
		metrics:      metrics,
		logger:       logger,
	}
}

// NewStaticCatalogService serves a fixed catalog, typically the bundled YAML one
func NewStaticCatalogService(offers []models.BankOffer, auditLogger AuditLoggerInterface, metrics MetricsRecorderInterface, logger *slog.Logger) CatalogServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	static := make([]models.BankOffer, 0, len(offers))
	for _, o := range offers {
		if o.Active {
			static = append(static, o)
		}
	}
	return &CatalogService{
		static:      static,
		auditLogger: auditLogger,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *CatalogService) readOnly() bool {
	return s.repo == nil
}

// ListOffers returns the active catalog in display order
func (s *CatalogService) ListOffers(ctx context.Context) ([]models.BankOffer, error) {
	if s.readOnly() {
		return cloneOffers(s.static), nil
	}

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, activeCatalogCacheKey); ok {
			var offers []models.BankOffer
			if err := json.Unmarshal([]byte(raw), &offers); err == nil {
				s.cacheLookup(ctx, true)
				return offers, nil
			}
			s.logger.WarnContext(ctx, "discarding undecodable catalog cache entry")
		}
		s.cacheLookup(ctx, false)
	}

	offers, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank catalog: %w", err)
	}
	if offers == nil {
		offers = []models.BankOffer{}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(offers); err == nil {
			if err := s.cache.Set(ctx, activeCatalogCacheKey, string(raw), s.ttl); err != nil {
				s.logger.WarnContext(ctx, "failed to cache bank catalog", "error", err)
			}
		}
	}
	s.recordGauge("bank_catalog_offers", float64(len(offers)))

	return offers, nil
}

// GetOffer returns one active offer
func (s *CatalogService) GetOffer(ctx context.Context, id string) (*models.BankOffer, error) {
	offers, err := s.ListOffers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range offers {
		if offers[i].ID == id {
			return &offers[i], nil
		}
	}
	return nil, ErrBankOfferNotFound
}

// MatchOffers runs the matcher over the active catalog
func (s *CatalogService) MatchOffers(ctx context.Context, prefs models.UserPreferences) ([]models.BankOffer, error) {
	offers, err := s.ListOffers(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matched := MatchBanks(prefs, offers)
	elapsed := time.Since(start)

	if s.auditLogger != nil {
		s.auditLogger.LogBankMatch(ctx, prefs, len(offers), len(matched), elapsed.Milliseconds())
	}
	if s.metrics != nil {
		s.metrics.IncrementCounter("bank_matches_total", map[string]string{"banking_need": needLabel(prefs.BankingNeed)})
		s.metrics.RecordProcessingTime("bank_match", elapsed)
		s.metrics.RecordGauge("bank_match_results", float64(len(matched)), nil)
	}

	return matched, nil
}

// needLabel keeps the metric's label set bounded while needs stay open-ended
func needLabel(need string) string {
	if need == "" || models.IsKnownBankingNeed(need) {
		return need
	}
	return "other"
}

// ListAllOffers includes inactive offers for the back office
func (s *CatalogService) ListAllOffers(ctx context.Context) ([]models.BankOffer, error) {
	if s.readOnly() {
		return cloneOffers(s.static), nil
	}
	offers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank offers: %w", err)
	}
	return offers, nil
}

func (s *CatalogService) CreateOffer(ctx context.Context, actor Actor, offer *models.BankOffer) error {
	if s.readOnly() {
		return ErrCatalogReadOnly
	}
	if err := offer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBankOffer, err)
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		if errors.Is(err, repositories.ErrBankOfferAlreadyExists) {
			return ErrBankOfferExists
		}
		return fmt.Errorf("failed to create bank offer: %w", err)
	}

	s.invalidate(ctx)
	s.auditService.Record(ctx, actor, models.AuditActionBankOfferCreated, models.AuditResourceBankOffer, offer.ID, nil)
	return nil
}

func (s *CatalogService) UpdateOffer(ctx context.Context, actor Actor, offer *models.BankOffer) error {
	if s.readOnly() {
		return ErrCatalogReadOnly
	}
	if err := offer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBankOffer, err)
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		if errors.Is(err, repositories.ErrBankOfferNotFound) {
			return ErrBankOfferNotFound
		}
		return fmt.Errorf("failed to update bank offer: %w", err)
	}

	s.invalidate(ctx)
	s.auditService.Record(ctx, actor, models.AuditActionBankOfferUpdated, models.AuditResourceBankOffer, offer.ID, nil)
	return nil
}

func (s *CatalogService) SetOfferActive(ctx context.Context, actor Actor, id string, active bool) (*models.BankOffer, error) {
	if s.readOnly() {
		return nil, ErrCatalogReadOnly
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repositories.ErrBankOfferNotFound) {
			return nil, ErrBankOfferNotFound
		}
		return nil, fmt.Errorf("failed to toggle bank offer: %w", err)
	}

	s.invalidate(ctx)
	s.auditService.Record(ctx, actor, models.AuditActionBankOfferToggled, models.AuditResourceBankOffer, id,
		models.JSONBMap{"active": active})

	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bank offer: %w", err)
	}
	return offer, nil
}

// SeedOffers loads offers into an empty catalog table and reports how many were inserted
func (s *CatalogService) SeedOffers(ctx context.Context, offers []models.BankOffer) (int, error) {
	if s.readOnly() {
		return 0, nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count bank offers: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	batch := make([]models.BankOffer, len(offers))
	copy(batch, offers)
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to seed bank catalog: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "seeded bank catalog", "offers", len(batch))
	return len(batch), nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeCatalogCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate bank catalog cache", "error", err)
	}
}

func (s *CatalogService) cacheLookup(ctx context.Context, hit bool) {
	if s.auditLogger != nil {
		s.auditLogger.LogCatalogCache(ctx, activeCatalogCacheKey, hit)
	}
	if s.metrics != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		s.metrics.IncrementCounter("catalog_cache_total", map[string]string{"result": result})
	}
}

func (s *CatalogService) recordGauge(name string, value float64) {
	if s.metrics != nil {
		s.metrics.RecordGauge(name, value, nil)
	}
}

func cloneOffers(offers []models.BankOffer) []models.BankOffer {
	out := make([]models.BankOffer, len(offers))
	for i, o := range offers {
		o.Features = append(models.StringList{}, o.Features...)
		o.AccountTypes = append(models.StringList{}, o.AccountTypes...)
		o.Locations = append(models.StringList{}, o.Locations...)
		out[i] = o
	}
	return out
}
