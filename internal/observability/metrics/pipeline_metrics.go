package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"gorm.io/gorm"
)

const (
	PipelineStageRead      = "read"
	PipelineStageNormalize = "normalize"
	PipelineStageAppend    = "append"
	PipelineStageReport    = "report"
)

const (
	PipelineReasonMissingField     = "missing_field"
	PipelineReasonNoUsableRows     = "no_usable_rows"
	PipelineReasonUnsupportedFile  = "unsupported_file"
	PipelineReasonUploadInProgress = "upload_in_progress"
	PipelineReasonStoreUnavailable = "store_unavailable"
	PipelineReasonDeadlineExceeded = "deadline_exceeded"
	PipelineReasonDBLockTimeout    = "db_lock_timeout"
	PipelineReasonUniqueViolation  = "unique_violation"
	PipelineReasonUnknown          = "unknown"
)

const (
	LockResourceUpload = "upload"
)

// PipelineMetrics captures ingestion pipeline health for the /metrics endpoint.
type PipelineMetrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	rows          *prometheus.CounterVec
	lockWait      *prometheus.HistogramVec
	stageObserver map[string]prometheus.Observer
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

// Pipeline returns the singleton pipeline metrics registry.
func Pipeline() *PipelineMetrics {
	return PipelineWithConfig(Config{})
}

// PipelineWithConfig returns the singleton pipeline metrics registry using config labels.
func PipelineWithConfig(cfg Config) *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pipelineMetrics
}

// ResetPipelineMetricsForTest resets the pipeline metrics singleton for tests.
func ResetPipelineMetricsForTest() {
	pipelineMetricsOnce = sync.Once{}
	pipelineMetrics = nil
}

func newPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "amber"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "amber_pipeline_runs_total",
		Help:        "Ingestion pipeline runs by file kind and outcome.",
		ConstLabels: constLabels,
	}, []string{"kind", "outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "amber_pipeline_stage_duration_seconds",
		Help:        "Ingestion pipeline stage latency.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"stage"})
	pipelineErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "amber_pipeline_errors_total",
		Help:        "Ingestion pipeline errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"stage", "reason"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "amber_pipeline_rows_total",
		Help:        "Source rows by fate: appended or dropped.",
		ConstLabels: constLabels,
	}, []string{"fate"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "amber_pipeline_lock_wait_seconds",
		Help:        "Time spent waiting for the upload lock.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"resource"})

	registerer.MustRegister(runs, stageDuration, pipelineErrors, rows, lockWait)

	stageObserver := map[string]prometheus.Observer{}
	for _, stage := range []string{PipelineStageRead, PipelineStageNormalize, PipelineStageAppend, PipelineStageReport} {
		stageObserver[stage] = stageDuration.WithLabelValues(stage)
	}

	return &PipelineMetrics{
		runs:          runs,
		stageDuration: stageDuration,
		errors:        pipelineErrors,
		rows:          rows,
		lockWait:      lockWait,
		stageObserver: stageObserver,
	}
}

// IncRun increments the run counter for a file kind and outcome.
func (m *PipelineMetrics) IncRun(kind, outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
}

// ObserveStage records the latency of one pipeline stage.
func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	if observer, ok := m.stageObserver[stage]; ok {
		observer.Observe(duration.Seconds())
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// IncError increments the error counter with a classified reason.
func (m *PipelineMetrics) IncError(stage string, err error) {
	if m == nil || err == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(stage, ClassifyPipelineError(err)).Inc()
}

// AddRows adds source rows by fate.
func (m *PipelineMetrics) AddRows(fate string, count int) {
	if m == nil || count <= 0 || m.rows == nil {
		return
	}
	m.rows.WithLabelValues(fate).Add(float64(count))
}

// ObserveLockWait records upload lock wait time.
func (m *PipelineMetrics) ObserveLockWait(resource string, duration time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.lockWait.WithLabelValues(resource).Observe(duration.Seconds())
}

// ClassifyPipelineError maps pipeline errors to low-cardinality reasons.
func ClassifyPipelineError(err error) string {
	if err == nil {
		return PipelineReasonUnknown
	}
	switch {
	case errors.Is(err, bookingdomain.ErrMissingRequiredField):
		return PipelineReasonMissingField
	case errors.Is(err, ingestdomain.ErrNoUsableRows):
		return PipelineReasonNoUsableRows
	case errors.Is(err, ingestdomain.ErrUnsupportedFile):
		return PipelineReasonUnsupportedFile
	case errors.Is(err, ingestdomain.ErrUploadInProgress):
		return PipelineReasonUploadInProgress
	case errors.Is(err, ledgerdomain.ErrStoreUnavailable):
		return PipelineReasonStoreUnavailable
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return PipelineReasonDeadlineExceeded
	case hasPGCode(err, "55P03"):
		return PipelineReasonDBLockTimeout
	case errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505"):
		return PipelineReasonUniqueViolation
	default:
		return PipelineReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
