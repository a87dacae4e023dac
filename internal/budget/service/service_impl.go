package service

import (
	"context"
	"fmt"
	"sort"

	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/normalize"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store budgetdomain.Store
	Log   *zap.Logger
	Cache cache.ReportCache `optional:"true"`
}

type Service struct {
	store budgetdomain.Store
	log   *zap.Logger
	cache cache.ReportCache
}

func NewService(p Params) budgetdomain.Service {
	reportCache := p.Cache
	if reportCache == nil {
		reportCache = cache.NopReportCache{}
	}
	return &Service{
		store: p.Store,
		log:   p.Log.Named("budget.service"),
		cache: reportCache,
	}
}

func (s *Service) List(ctx context.Context) ([]budgetdomain.Target, error) {
	targets, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read budget: %w", err)
	}
	return targets, nil
}

// Upsert replaces the targets of the given months. Month labels are
// normalized to "2006-01"; a later entry for the same month wins.
func (s *Service) Upsert(ctx context.Context, targets []budgetdomain.Target) ([]budgetdomain.Target, error) {
	byMonth := make(map[string]budgetdomain.Target, len(targets))
	for _, target := range targets {
		month, ok := normalize.NormalizeMonth(target.Month)
		if !ok {
			return nil, fmt.Errorf("%w: %q", budgetdomain.ErrInvalidMonth, target.Month)
		}
		if target.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: %s target %s", budgetdomain.ErrInvalidTarget, month, target.Amount)
		}
		byMonth[month] = budgetdomain.Target{Month: month, Amount: target.Amount}
	}

	normalized := make([]budgetdomain.Target, 0, len(byMonth))
	for _, target := range byMonth {
		normalized = append(normalized, target)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Month < normalized[j].Month })

	if err := s.store.Upsert(ctx, normalized); err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("report cache invalidation failed", zap.Error(err))
	}

	s.log.Info("budget targets upserted", zap.Int("months", len(normalized)))
	return normalized, nil
}
