package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/config"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/internal/ingest/pipeline"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"github.com/smallbiznis/amber/internal/normalize"
	obscontext "github.com/smallbiznis/amber/internal/observability/context"
	obsmetrics "github.com/smallbiznis/amber/internal/observability/metrics"
	"github.com/smallbiznis/amber/internal/observability/tracing"
	"github.com/smallbiznis/amber/internal/sheet"
	"github.com/smallbiznis/amber/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxPageSize     = 250

	rowFateAppended = "appended"
	rowFateDropped  = "dropped"

	publishTimeout = 5 * time.Second
)

type Params struct {
	fx.In

	Ledger  ledgerdomain.Service
	Batches ingestdomain.BatchRepository
	Rules   *config.RulesHolder
	Clock   clock.Clock
	Lock    UploadLock
	Config  config.Config
	Log     *zap.Logger

	Cache      cache.ReportCache           `optional:"true"`
	ObsMetrics *obsmetrics.Metrics         `optional:"true"`
	Classifier normalize.Classifier        `optional:"true"`
	Events     ingestdomain.EventPublisher `optional:"true"`
}

type Service struct {
	ledger     ledgerdomain.Service
	batches    ingestdomain.BatchRepository
	rules      *config.RulesHolder
	clock      clock.Clock
	lock       UploadLock
	maxBytes   int64
	log        *zap.Logger
	cache      cache.ReportCache
	obsMetrics *obsmetrics.Metrics
	pipeline   *obsmetrics.PipelineMetrics
	classifier normalize.Classifier
	events     ingestdomain.EventPublisher
}

func NewService(p Params) ingestdomain.Service {
	reportCache := p.Cache
	if reportCache == nil {
		reportCache = cache.NopReportCache{}
	}
	events := p.Events
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{
		ledger:     p.Ledger,
		batches:    p.Batches,
		rules:      p.Rules,
		clock:      p.Clock,
		lock:       p.Lock,
		maxBytes:   p.Config.UploadMaxBytes,
		log:        p.Log.Named("ingest.service"),
		cache:      reportCache,
		obsMetrics: p.ObsMetrics,
		pipeline:   obsmetrics.Pipeline(),
		classifier: p.Classifier,
		events:     events,
	}
}

type nopPublisher struct{}

func (nopPublisher) PublishBatch(context.Context, ingestdomain.BatchEvent) error { return nil }

// Ingest runs one upload through read, normalize-and-derive and a single
// ledger append. A failure at any step appends nothing. Every attempt is
// recorded in the batch log, best-effort.
func (s *Service) Ingest(ctx context.Context, upload ingestdomain.Upload) (ingestdomain.Report, error) {
	filename := strings.TrimSpace(upload.Filename)
	if filename == "" {
		return ingestdomain.Report{}, fmt.Errorf("%w: filename is required", ingestdomain.ErrInvalidUpload)
	}
	if len(upload.Content) == 0 {
		return ingestdomain.Report{}, fmt.Errorf("%w: file is empty", ingestdomain.ErrInvalidUpload)
	}
	if s.maxBytes > 0 && int64(len(upload.Content)) > s.maxBytes {
		return ingestdomain.Report{}, fmt.Errorf("%w: file exceeds %d bytes", ingestdomain.ErrInvalidUpload, s.maxBytes)
	}

	batchID := ulid.Make().String()
	ctx = obscontext.WithBatchID(ctx, batchID)
	ctx, span := tracing.Start(ctx, "ingest.upload")
	report, err := s.ingest(ctx, batchID, filename, upload)
	if err == nil {
		span.SetAttributes(
			attribute.String("ingest.kind", report.Kind),
			attribute.Int("ingest.appended", report.Appended),
		)
	}
	tracing.End(span, err)
	return report, err
}

func (s *Service) ingest(ctx context.Context, batchID, filename string, upload ingestdomain.Upload) (ingestdomain.Report, error) {
	log := s.log.With(zap.String("batch_id", batchID), zap.String("filename", filename))

	waitStart := time.Now()
	release, err := s.lock.Acquire(ctx)
	s.pipeline.ObserveLockWait(obsmetrics.LockResourceUpload, time.Since(waitStart))
	if err != nil {
		s.obsMetrics.RecordUploadLock(ctx, "timeout")
		s.pipeline.IncError(obsmetrics.PipelineStageRead, err)
		log.Warn("upload lock not acquired", zap.Error(err))
		return ingestdomain.Report{}, err
	}
	defer release()
	s.obsMetrics.RecordUploadLock(ctx, "acquired")

	rules := s.rules.Get()
	snapshot := clock.Today(s.clock)

	stageStart := time.Now()
	raw, err := sheet.Read(filename, bytes.NewReader(upload.Content))
	s.pipeline.ObserveStage(obsmetrics.PipelineStageRead, time.Since(stageStart))
	if err != nil {
		err = fmt.Errorf("%w: %v", ingestdomain.ErrUnsupportedFile, err)
		return ingestdomain.Report{}, s.reject(ctx, log, batchID, filename, pipeline.Output{}, snapshot, obsmetrics.PipelineStageRead, err)
	}

	stageStart = time.Now()
	out, err := pipeline.NormalizeAndDerive(pipeline.Input{
		Filename:     filename,
		Raw:          raw,
		Status:       upload.Status,
		Class:        upload.Class,
		Format:       upload.Format,
		SnapshotDate: snapshot,
		Now:          s.clock.Now(),
		BatchID:      batchID,
	}, rules, s.classifier)
	s.pipeline.ObserveStage(obsmetrics.PipelineStageNormalize, time.Since(stageStart))
	if err != nil {
		return ingestdomain.Report{}, s.reject(ctx, log, batchID, filename, out, snapshot, obsmetrics.PipelineStageNormalize, err)
	}

	stageStart = time.Now()
	appended, err := s.ledger.Append(ctx, out.Records)
	s.pipeline.ObserveStage(obsmetrics.PipelineStageAppend, time.Since(stageStart))
	if err != nil {
		return ingestdomain.Report{}, s.reject(ctx, log, batchID, filename, out, snapshot, obsmetrics.PipelineStageAppend, err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn("report cache invalidation failed", zap.Error(err))
	}

	report := ingestdomain.Report{
		BatchID:      batchID,
		Filename:     filename,
		Kind:         string(out.Kind),
		RecordClass:  out.Class,
		Status:       out.Status,
		Appended:     appended.Appended,
		SnapshotDate: bookingdomain.FormatDate(appended.SnapshotDate),
		HeaderRow:    out.HeaderRow,
		Dropped:      out.Drops.Counts(),
		DroppedTotal: out.Drops.Total(),
	}

	s.recordOutcome(ctx, string(out.Kind), ingestdomain.OutcomeAppended, out.Drops)
	s.pipeline.AddRows(rowFateAppended, report.Appended)
	s.recordBatch(ctx, log, &ingestdomain.Batch{
		ID:           batchID,
		Filename:     filename,
		FilenameKey:  slug.Make(filename),
		Kind:         report.Kind,
		RecordClass:  string(report.RecordClass),
		Status:       string(report.Status),
		Outcome:      ingestdomain.OutcomeAppended,
		Appended:     report.Appended,
		Dropped:      dropsJSON(report.Dropped),
		SnapshotDate: report.SnapshotDate,
	})

	log.Info("upload appended",
		zap.String("kind", report.Kind),
		zap.String("record_class", string(report.RecordClass)),
		zap.String("status", string(report.Status)),
		zap.Int("appended", report.Appended),
		zap.Any("dropped", report.Dropped),
		zap.String("snapshot_date", report.SnapshotDate),
	)
	return report, nil
}

func (s *Service) reject(ctx context.Context, log *zap.Logger, batchID, filename string, out pipeline.Output, snapshot time.Time, stage string, err error) error {
	kind := string(out.Kind)
	if kind == "" {
		kind = "unknown"
	}

	s.pipeline.IncError(stage, err)
	s.recordOutcome(ctx, kind, ingestdomain.OutcomeRejected, out.Drops)
	s.recordBatch(ctx, log, &ingestdomain.Batch{
		ID:           batchID,
		Filename:     filename,
		FilenameKey:  slug.Make(filename),
		Kind:         kind,
		RecordClass:  string(out.Class),
		Status:       string(out.Status),
		Outcome:      ingestdomain.OutcomeRejected,
		Dropped:      dropsJSON(out.Drops.Counts()),
		Error:        err.Error(),
		SnapshotDate: bookingdomain.FormatDate(snapshot),
	})

	fields := []zap.Field{zap.String("stage", stage), zap.String("reason", obsmetrics.ClassifyPipelineError(err)), zap.Error(err)}
	var missing *bookingdomain.MissingRequiredFieldError
	if errors.As(err, &missing) {
		fields = append(fields, zap.Strings("offered_labels", missing.OfferedLabels))
	}
	log.Warn("upload rejected", fields...)
	return err
}

func (s *Service) recordOutcome(ctx context.Context, kind, outcome string, drops normalize.Drops) {
	s.obsMetrics.RecordUpload(ctx, kind, outcome)
	s.pipeline.IncRun(kind, outcome)
	for _, reason := range drops.Reasons() {
		s.obsMetrics.RecordRowsDropped(ctx, string(reason), drops[reason])
	}
	s.pipeline.AddRows(rowFateDropped, drops.Total())
}

func (s *Service) recordBatch(ctx context.Context, log *zap.Logger, batch *ingestdomain.Batch) {
	batch.CreatedAt = s.clock.Now().UTC()
	if s.batches != nil {
		if err := s.batches.Insert(ctx, batch); err != nil {
			log.Warn("batch log write failed", zap.Error(err))
		}
	}

	// A cancelled request still announces the attempt it made.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishBatch(pubCtx, batchEvent(batch)); err != nil {
		log.Warn("batch event publish failed", zap.Error(err))
	}
}

func batchEvent(batch *ingestdomain.Batch) ingestdomain.BatchEvent {
	dropped := make(map[string]int, len(batch.Dropped))
	for reason, v := range batch.Dropped {
		if n, ok := v.(int); ok {
			dropped[reason] = n
		}
	}
	return ingestdomain.BatchEvent{
		BatchID:      batch.ID,
		Filename:     batch.Filename,
		Kind:         batch.Kind,
		RecordClass:  batch.RecordClass,
		Status:       batch.Status,
		Outcome:      batch.Outcome,
		Appended:     batch.Appended,
		Dropped:      dropped,
		Error:        batch.Error,
		SnapshotDate: batch.SnapshotDate,
		OccurredAt:   batch.CreatedAt,
	}
}

// ListBatches pages through the batch log newest first. The page token is
// the opaque cursor of the last batch of the previous page.
func (s *Service) ListBatches(ctx context.Context, req ingestdomain.ListBatchesRequest) (ingestdomain.ListBatchesResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	before := ""
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return ingestdomain.ListBatchesResponse{}, ingestdomain.ErrInvalidPageToken
		}
		before = cursor.ID
	}

	items, err := s.batches.List(ctx, before, limit+1)
	if err != nil {
		return ingestdomain.ListBatchesResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(limit), func(b *ingestdomain.Batch) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: b.ID})
		return token
	})
	if len(items) > limit {
		items = items[:limit]
	}

	batches := make([]ingestdomain.Batch, 0, len(items))
	for _, item := range items {
		batches = append(batches, *item)
	}
	return ingestdomain.ListBatchesResponse{Batches: batches, PageInfo: pageInfo}, nil
}

func dropsJSON(counts map[string]int) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(counts))
	for reason, n := range counts {
		out[reason] = n
	}
	return out
}
