package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/config"
	"github.com/smallbiznis/amber/internal/derive"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"github.com/smallbiznis/amber/internal/normalize"
	obsmetrics "github.com/smallbiznis/amber/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store      ledgerdomain.Store
	Log        *zap.Logger
	Clock      clock.Clock
	Rules      *config.RulesHolder `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	store      ledgerdomain.Store
	log        *zap.Logger
	clock      clock.Clock
	rules      *config.RulesHolder
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		store:      p.Store,
		log:        p.Log.Named("ledger.service"),
		clock:      p.Clock,
		rules:      p.Rules,
		obsMetrics: p.ObsMetrics,
	}
}

// Append writes one batch in a single store call. Every record of the batch
// must carry the same snapshot date.
func (s *Service) Append(ctx context.Context, records []bookingdomain.Record) (ledgerdomain.AppendResult, error) {
	if len(records) == 0 {
		return ledgerdomain.AppendResult{}, ledgerdomain.ErrEmptyBatch
	}

	snapshot := bookingdomain.DateOf(records[0].SnapshotDate)
	if snapshot.IsZero() {
		return ledgerdomain.AppendResult{}, fmt.Errorf("%w: snapshot date is required", ledgerdomain.ErrMixedSnapshot)
	}

	rows := make([]ledgerdomain.Row, 0, len(records))
	perClass := map[bookingdomain.RecordClass]int{}
	for _, rec := range records {
		if !bookingdomain.DateOf(rec.SnapshotDate).Equal(snapshot) {
			return ledgerdomain.AppendResult{}, ledgerdomain.ErrMixedSnapshot
		}
		rows = append(rows, ledgerdomain.EncodeRecord(rec))
		perClass[rec.RecordClass]++
	}

	if err := s.store.Append(ctx, rows); err != nil {
		s.log.Error("ledger append failed",
			zap.Int("rows", len(rows)),
			zap.String("snapshot_date", bookingdomain.FormatDate(snapshot)),
			zap.Error(err),
		)
		return ledgerdomain.AppendResult{}, fmt.Errorf("append ledger: %w", err)
	}

	for class, n := range perClass {
		s.obsMetrics.RecordLedgerAppend(ctx, string(class), n)
	}
	s.log.Info("ledger appended",
		zap.Int("rows", len(rows)),
		zap.String("snapshot_date", bookingdomain.FormatDate(snapshot)),
	)

	return ledgerdomain.AppendResult{Appended: len(rows), SnapshotDate: snapshot}, nil
}

// ReadAll scans the whole ledger and decodes it. Relative-month labels are
// recomputed against the current processing date.
func (s *Service) ReadAll(ctx context.Context) (ledgerdomain.ReadResult, error) {
	rows, err := s.store.ReadAll(ctx)
	if err != nil {
		return ledgerdomain.ReadResult{}, fmt.Errorf("read ledger: %w", err)
	}

	now := s.clock.Now()
	codes := s.chineseCodes()

	result := ledgerdomain.ReadResult{Records: make([]bookingdomain.Record, 0, len(rows))}
	for _, row := range rows {
		rec, err := ledgerdomain.DecodeRow(row)
		if err != nil {
			result.Malformed++
			continue
		}
		if rec.StayMonth == "" || rec.NationalityGroup == "" {
			rec = derive.Attributes(rec, now, codes)
		} else {
			rec.RelativeMonth = derive.RelativeMonthOf(rec.CheckInDate, now)
		}
		result.Records = append(result.Records, rec)
	}

	if result.Malformed > 0 {
		s.log.Warn("skipped malformed ledger rows", zap.Int("malformed", result.Malformed), zap.Int("rows", len(rows)))
	}
	return result, nil
}

// Snapshots lists the distinct snapshot dates present in the ledger, oldest first.
func (s *Service) Snapshots(ctx context.Context) ([]time.Time, error) {
	read, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return SnapshotDates(read.Records), nil
}

// SnapshotDates returns the distinct snapshot dates of records, oldest first.
func SnapshotDates(records []bookingdomain.Record) []time.Time {
	seen := map[time.Time]struct{}{}
	out := []time.Time{}
	for _, rec := range records {
		if _, ok := seen[rec.SnapshotDate]; ok {
			continue
		}
		seen[rec.SnapshotDate] = struct{}{}
		out = append(out, rec.SnapshotDate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *Service) chineseCodes() []string {
	if s.rules == nil {
		return normalize.DefaultRuleset().ChineseCodes
	}
	return s.rules.Get().ChineseCodes
}
