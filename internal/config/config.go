package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/smallbiznis/amber/pkg/db"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// NodeID seeds the snowflake generator for ledger row ids. It must be
	// unique per running instance.
	NodeID int64

	// PropertyTimezone is the hotel's local zone. Snapshot dates and the
	// processing date used for relative-month labels are taken in it.
	PropertyTimezone string

	// RulesPath points at an ingest.yml overriding the built-in normalization
	// rules. Empty means the default search paths.
	RulesPath string

	// UploadMaxBytes caps the size of an uploaded export.
	UploadMaxBytes int64
	// UploadLockTTL bounds how long one upload may hold the upload lock.
	UploadLockTTL time.Duration
	// ReportCacheTTL bounds the lifetime of a cached report.
	ReportCacheTTL     time.Duration
	ReportCacheEnabled bool

	Database  db.Config
	Redis     RedisConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
}

// EventsConfig points batch events at a RabbitMQ queue. An empty URL turns
// publishing off.
type EventsConfig struct {
	AMQPURL string
	Queue   string
}

func (c EventsConfig) Enabled() bool {
	return c.AMQPURL != ""
}

// TelemetryConfig carries log and OTLP export settings.
type TelemetryConfig struct {
	LogLevel  string
	LogFormat string

	OtelEnabled   bool
	OtlpEndpoint  string
	OtlpProtocol  string
	SamplingRatio float64

	// Push settings for amberctl, which exits before it could be scraped.
	MetricsPushExporter string
	MetricsPushEndpoint string
	MetricsPushToken    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis server is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "amber"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		NodeID:             getenvInt64("SNOWFLAKE_NODE_ID", 1),
		PropertyTimezone:   getenv("PROPERTY_TIMEZONE", "Asia/Seoul"),
		RulesPath:          strings.TrimSpace(getenv("INGEST_RULES_PATH", "")),
		UploadMaxBytes:     getenvInt64("UPLOAD_MAX_BYTES", 32<<20),
		UploadLockTTL:      getenvDuration("UPLOAD_LOCK_TTL", 2*time.Minute),
		ReportCacheTTL:     getenvDuration("REPORT_CACHE_TTL", 10*time.Minute),
		ReportCacheEnabled: getenvBool("REPORT_CACHE_ENABLED", true),
		Database: db.Config{
			Type:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "amber"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			MaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
			MaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
			ConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
			ConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
			SlowThreshold:   getenvDuration("DATABASE_SLOW_THRESHOLD", 200*time.Millisecond),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		Events: EventsConfig{
			AMQPURL: strings.TrimSpace(getenv("RABBITMQ_URL", os.Getenv("AMQP_URL"))),
			Queue:   getenv("EVENTS_QUEUE", "amber.ingest.batches"),
		},
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtlpEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			OtlpProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),

			MetricsPushExporter: strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", "")),
			MetricsPushEndpoint: strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			MetricsPushToken:    getenv("METRICS_PUSH_TOKEN", ""),
		},
	}

	return cfg
}

// Location resolves the property timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.PropertyTimezone))
	if err != nil || c.PropertyTimezone == "" {
		return time.UTC
	}
	return loc
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
