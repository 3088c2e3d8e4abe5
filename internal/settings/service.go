package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/shared"
)

// ErrInvalidTaxRate rejects rates outside 0-100.
var ErrInvalidTaxRate = shared.NewError(shared.ErrValidation, "tax rate must be between 0 and 100")

// Service reads and updates settings.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService wires the settings service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Current returns the current settings snapshot.
func (s *Service) Current(ctx context.Context) (Settings, error) {
	cfg, err := s.cache.Fetch(ctx, s.repo.Load)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return cfg, nil
}

// Update replaces the editable settings and drops the cached snapshot.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Settings, error) {
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return Settings{}, ErrInvalidTaxRate
	}
	next := Settings{
		CompanyName:             strings.TrimSpace(req.CompanyName),
		Address:                 req.Address,
		Email:                   req.Email,
		Phone:                   req.Phone,
		CompanyTaxID:            req.CompanyTaxID,
		CurrencySymbol:          strings.TrimSpace(req.CurrencySymbol),
		TaxEnabled:              req.TaxEnabled,
		TaxRate:                 req.TaxRate.Round(2),
		DefaultPaymentDetails:   req.DefaultPaymentDetails,
		DefaultTerms:            req.DefaultTerms,
		DefaultValidityDays:     req.DefaultValidityDays,
		DefaultPaymentTermsDays: req.DefaultPaymentTermsDays,
	}
	saved, err := s.repo.Save(ctx, next)
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("settings cache invalidate", slog.Any("error", err))
	}
	return saved, nil
}
