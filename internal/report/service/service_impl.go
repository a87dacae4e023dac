package service

import (
	"context"
	"fmt"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/amber/internal/observability/metrics"
	"github.com/smallbiznis/amber/internal/observability/tracing"
	"github.com/smallbiznis/amber/internal/reconcile"
	reportdomain "github.com/smallbiznis/amber/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	reportSourceCache  = "cache"
	reportSourceLedger = "ledger"
)

type Params struct {
	fx.In

	Ledger ledgerdomain.Service
	Budget budgetdomain.Service
	Log    *zap.Logger
	Clock  clock.Clock

	Cache      cache.ReportCache   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	ledger     ledgerdomain.Service
	budget     budgetdomain.Service
	log        *zap.Logger
	clock      clock.Clock
	cache      cache.ReportCache
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) reportdomain.Service {
	reportCache := p.Cache
	if reportCache == nil {
		reportCache = cache.NopReportCache{}
	}
	return &Service{
		ledger:     p.Ledger,
		budget:     p.Budget,
		log:        p.Log.Named("report.service"),
		clock:      p.Clock,
		cache:      reportCache,
		obsMetrics: p.ObsMetrics,
	}
}

// Reconcile reads the ledger and the budget table and reconciles the slice
// selected by scope. Results are cached per scope and processing date until
// the next append or budget change.
func (s *Service) Reconcile(ctx context.Context, scope reconcile.Scope) (reconcile.Result, error) {
	key := s.cacheKey("reconcile", scopeKey(scope))

	var cached reconcile.Result
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		s.obsMetrics.RecordReport(ctx, reportSourceCache)
		return cached, nil
	}

	ctx, span := tracing.Start(ctx, "report.reconcile")
	result, err := s.reconcile(ctx, scope)
	tracing.End(span, err)
	if err != nil {
		return reconcile.Result{}, err
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	s.obsMetrics.RecordReport(ctx, reportSourceLedger)
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, scope reconcile.Scope) (reconcile.Result, error) {
	read, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}
	targets, err := s.budget.List(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}

	result := reconcile.Reconcile(read.Records, targets, scope)
	if read.Malformed > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d malformed ledger rows skipped", read.Malformed))
	}
	return result, nil
}

func (s *Service) Pickup(ctx context.Context, from, to time.Time) (reconcile.Pickup, error) {
	if from.IsZero() || to.IsZero() {
		return reconcile.Pickup{}, fmt.Errorf("%w: from and to are required", reportdomain.ErrInvalidRange)
	}
	if to.Before(from) {
		return reconcile.Pickup{}, fmt.Errorf("%w: to %s is before from %s", reportdomain.ErrInvalidRange,
			bookingdomain.FormatDate(to), bookingdomain.FormatDate(from))
	}

	read, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return reconcile.Pickup{}, err
	}
	return reconcile.PickupBetween(read.Records, from, to), nil
}

func (s *Service) Snapshots(ctx context.Context) ([]string, error) {
	dates, err := s.ledger.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, bookingdomain.FormatDate(d))
	}
	return out, nil
}

// Relative-month labels move with the processing date, so it is part of the key.
func (s *Service) cacheKey(kind, scope string) string {
	return fmt.Sprintf("%s|%s|%s", kind, scope, bookingdomain.FormatDate(clock.Today(s.clock)))
}

func scopeKey(scope reconcile.Scope) string {
	if scope.AsOf == nil {
		return "all"
	}
	return bookingdomain.FormatDate(*scope.AsOf)
}
