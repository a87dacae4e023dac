package observability

import (
	"strings"

	"github.com/smallbiznis/amber/internal/config"
)

// Config is the slice of application configuration the logger, tracer and
// meter are built from.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Telemetry   config.TelemetryConfig
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "amber"
	}
	return Config{
		ServiceName: name,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		Telemetry:   cfg.Telemetry,
	}
}

// Debug is true for debug log level or a development environment.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.Telemetry.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
