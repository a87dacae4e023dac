package observability

import (
	"github.com/smallbiznis/amber/internal/observability/logger"
	"github.com/smallbiznis/amber/internal/observability/metrics"
	"github.com/smallbiznis/amber/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		splitConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
	),
	fx.Invoke(registerPipeline),
)

type components struct {
	fx.Out

	Logger  logger.Config
	Tracing tracing.Config
	Metrics metrics.Config
}

func splitConfig(cfg Config) components {
	t := cfg.Telemetry
	return components{
		Logger: logger.Config{
			ServiceName:         cfg.ServiceName,
			Environment:         cfg.Environment,
			Version:             cfg.Version,
			Level:               t.LogLevel,
			Format:              t.LogFormat,
			Debug:               cfg.Debug(),
			IncludeCaller:       true,
			IncludeStackOnError: cfg.Debug(),
		},
		Tracing: tracing.Config{
			Enabled:          t.OtelEnabled,
			ServiceName:      cfg.ServiceName,
			ServiceVersion:   cfg.Version,
			Environment:      cfg.Environment,
			ExporterEndpoint: t.OtlpEndpoint,
			ExporterProtocol: t.OtlpProtocol,
			SamplingRatio:    t.SamplingRatio,
		},
		Metrics: metrics.Config{
			Enabled:          t.OtelEnabled,
			ExporterEndpoint: t.OtlpEndpoint,
			ExporterProtocol: t.OtlpProtocol,
			ServiceName:      cfg.ServiceName,
			Environment:      cfg.Environment,
		},
	}
}

// registerPipeline forces the tracer provider to build and registers the
// prometheus pipeline collectors under the service labels.
func registerPipeline(_ *sdktrace.TracerProvider, cfg metrics.Config) {
	metrics.PipelineWithConfig(cfg)
}
