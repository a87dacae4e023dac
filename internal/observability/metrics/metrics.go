package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	uploads      metric.Int64Counter
	rowsAppended metric.Int64Counter
	rowsDropped  metric.Int64Counter
	reports      metric.Int64Counter
	uploadLocks  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "amber"
	}
	meter := provider.Meter(name)

	uploads, err := meter.Int64Counter("amber_uploads_total")
	if err != nil {
		return nil, err
	}
	rowsAppended, err := meter.Int64Counter("amber_ledger_rows_appended_total")
	if err != nil {
		return nil, err
	}
	rowsDropped, err := meter.Int64Counter("amber_rows_dropped_total")
	if err != nil {
		return nil, err
	}
	reports, err := meter.Int64Counter("amber_reports_total")
	if err != nil {
		return nil, err
	}
	uploadLocks, err := meter.Int64Counter("amber_upload_lock_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		uploads:      uploads,
		rowsAppended: rowsAppended,
		rowsDropped:  rowsDropped,
		reports:      reports,
		uploadLocks:  uploadLocks,
	}, nil
}

// RecordUpload increments upload counts by file kind and outcome.
func (m *Metrics) RecordUpload(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.uploads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLedgerAppend adds appended ledger rows.
func (m *Metrics) RecordLedgerAppend(ctx context.Context, recordClass string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("record_class", strings.TrimSpace(recordClass)))
	m.rowsAppended.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordRowsDropped adds rows dropped during cleaning.
func (m *Metrics) RecordRowsDropped(ctx context.Context, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.rowsDropped.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordReport increments report builds by source (cache or computed).
func (m *Metrics) RecordReport(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.reports.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUploadLock increments upload lock outcomes.
func (m *Metrics) RecordUploadLock(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.uploadLocks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":     {},
	"status_code":  {},
	"kind":         {},
	"outcome":      {},
	"record_class": {},
	"reason":       {},
	"source":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
