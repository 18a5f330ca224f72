package instrumentation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// DefaultServiceName names the service in resources and meters
const DefaultServiceName = "inboxdraft"

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects where metrics and traces go.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID identifies this process. Empty means the host name.
	ServiceInstanceID string

	// Enabled turns metrics and tracing on. A disabled config still yields
	// a usable Provider that records nothing.
	Enabled bool

	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme. Required
	// by either OTLP exporter.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of root spans kept, 0 to 1
	TraceSamplingRate float64

	// DetailedLabels adds the mailbox domain to tool metrics
	DetailedLabels bool

	Audit AuditConfig
}

// AuditConfig controls the audit record written for every tool call
type AuditConfig struct {
	Enabled bool

	// IncludePII writes the mailbox address itself instead of its hash
	IncludePII bool
}

// DefaultConfig is a Prometheus-only setup with audit records on and
// tracing off.
func DefaultConfig() Config {
	return Config{
		ServiceName:       DefaultServiceName,
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		Audit:             AuditConfig{Enabled: true},
	}
}

// ConfigFromEnv applies the environment, read through getenv, on top of
// DefaultConfig and validates the result. Unparsable values are errors
// rather than silently falling back to defaults.
//
//	INSTRUMENTATION_ENABLED      true|false
//	METRICS_EXPORTER             prometheus|otlp|stdout
//	TRACING_EXPORTER             otlp|stdout|none
//	OTEL_EXPORTER_OTLP_ENDPOINT  host:port
//	OTEL_EXPORTER_OTLP_INSECURE  true|false
//	OTEL_TRACES_SAMPLER_ARG      0.0 to 1.0
//	OTEL_SERVICE_NAME            service name
//	OTEL_SERVICE_INSTANCE_ID     instance id (falls back to K8S_POD_NAME)
//	METRICS_DETAILED_LABELS      true|false
//	AUDIT_LOGGING_ENABLED        true|false
//	AUDIT_LOGGING_INCLUDE_PII    true|false
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	env := &envReader{getenv: getenv}

	cfg.Enabled = env.boolean("INSTRUMENTATION_ENABLED", cfg.Enabled)
	cfg.ServiceName = env.str("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.ServiceInstanceID = env.str("OTEL_SERVICE_INSTANCE_ID", env.str("K8S_POD_NAME", ""))
	cfg.MetricsExporter = env.str("METRICS_EXPORTER", cfg.MetricsExporter)
	cfg.TracingExporter = env.str("TRACING_EXPORTER", cfg.TracingExporter)
	cfg.OTLPEndpoint = env.str("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.OTLPInsecure = env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false)
	cfg.TraceSamplingRate = env.number("OTEL_TRACES_SAMPLER_ARG", cfg.TraceSamplingRate)
	cfg.DetailedLabels = env.boolean("METRICS_DETAILED_LABELS", false)
	cfg.Audit.Enabled = env.boolean("AUDIT_LOGGING_ENABLED", cfg.Audit.Enabled)
	cfg.Audit.IncludePII = env.boolean("AUDIT_LOGGING_INCLUDE_PII", false)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks exporter names, the sampling rate and that OTLP exporters
// have an endpoint. A disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters)
	}
	if !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters)
	}
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required by the otlp exporter")
	}
	return nil
}

// envReader reads typed values and collects every parse failure
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) boolean(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s=%q: expected true or false", key, v))
		return def
	}
	return b
}

func (e *envReader) number(key string, def float64) float64 {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s=%q: expected a number", key, v))
		return def
	}
	return f
}
