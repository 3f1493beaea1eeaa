package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/confeitaria/internal/config"
)

const (
	defaultServiceName      = "confeitaria-storefront"
	productionSamplingRatio = 0.2
)

// quietPaths are hit by health checks and scrapers and are never traced.
var quietPaths = []string{"/health", "/metrics"}

// Config is the observability view of the storefront settings. Values come
// from config.Config first and can be tuned per deployment with STOREFRONT_*
// or the standard OTEL_* variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	QuietPaths []string
}

func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, os.LookupEnv)
}

func loadConfig(cfg config.Config, lookup func(string) (string, bool)) Config {
	env := envReader(lookup)

	environment := strings.ToLower(env.str("STOREFRONT_ENV", cfg.Environment))
	production := environment == "production"

	format := "console"
	sampling := 1.0
	if production {
		format = "json"
		sampling = productionSamplingRatio
	}

	protocol := env.str("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	protocol = env.str("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol)

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	return Config{
		ServiceName:          env.str("OTEL_SERVICE_NAME", serviceName),
		Environment:          environment,
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             strings.ToLower(env.str("STOREFRONT_LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(env.str("STOREFRONT_LOG_FORMAT", format)),
		OtelEnabled:          env.boolean("OTEL_ENABLED", production),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", strings.TrimSpace(cfg.OTLPEndpoint)),
		OtelExporterProtocol: strings.ToLower(protocol),
		OtelSamplingRatio:    clampRatio(env.float("OTEL_SAMPLING_RATIO", sampling)),
		QuietPaths:           append([]string(nil), quietPaths...),
	}
}

// Debug turns on verbose SQL and request logging. Anything that is not
// production or staging counts as a workstation.
func (c Config) Debug() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch c.Environment {
	case "production", "staging":
		return false
	default:
		return true
	}
}

type envReader func(string) (string, bool)

func (r envReader) str(key, def string) string {
	if value, ok := r(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return def
}

func (r envReader) boolean(key string, def bool) bool {
	value, ok := r(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func (r envReader) float(key string, def float64) float64 {
	value, ok := r(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return parsed
}

func clampRatio(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
