package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/torosent/vudrive/internal/target"
	"github.com/torosent/vudrive/internal/threshold"
)

// ThinkTimeModel selects how pauses between a virtual user's requests are drawn.
type ThinkTimeModel string

const (
	ThinkTimeConstant    ThinkTimeModel = "constant"
	ThinkTimeExponential ThinkTimeModel = "exponential"
)

// StatusPolicy selects which HTTP status codes count as successes.
type StatusPolicy string

const (
	StatusPolicy2xx      StatusPolicy = "2xx"
	StatusPolicyBelow400 StatusPolicy = "lt400"
	StatusPolicyAny      StatusPolicy = "any"
)

// OutputFormat selects how the run summary is printed.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

const (
	DefaultConcurrency = 10
	DefaultDuration    = 60 * time.Second
	DefaultThinkTime   = time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultGracePeriod = 5 * time.Second
)

type Config struct {
	TargetURL      string         `mapstructure:"target"`
	Concurrency    int            `mapstructure:"concurrency"`
	Duration       time.Duration  `mapstructure:"duration"`
	ThinkTime      time.Duration  `mapstructure:"think_time"`
	ThinkTimeModel ThinkTimeModel `mapstructure:"think_time_model"`
	Seed           int64          `mapstructure:"seed"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	UserAgent      string         `mapstructure:"user_agent"`
	GracePeriod    time.Duration  `mapstructure:"grace_period"`
	Rate           int            `mapstructure:"rate"`
	StatusPolicy   StatusPolicy   `mapstructure:"status_policy"`
	Output         OutputFormat   `mapstructure:"output"`
	Quiet          bool           `mapstructure:"quiet"`
	LogErrors      bool           `mapstructure:"log_errors"`
	LogLevel       string         `mapstructure:"log_level"`
	LogFormat      string         `mapstructure:"log_format"`
	MetricsAddr    string         `mapstructure:"metrics_addr"`
	Thresholds     []string       `mapstructure:"thresholds"`
	HistoryFile    string         `mapstructure:"history_file"`
	Tracing        TracingConfig  `mapstructure:"tracing"`
	ConfigFile     string         `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export of per-request spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" (default) or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"` // nil follows Enabled
}

// Enabled reports whether spans should be exported, either because an
// endpoint is configured or the standard OTLP environment variable is set.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// Defaults returns the configuration used when nothing is overridden:
// 10 virtual users for 60s with a 1s think time.
func Defaults() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		Duration:       DefaultDuration,
		ThinkTime:      DefaultThinkTime,
		ThinkTimeModel: ThinkTimeConstant,
		Timeout:        DefaultTimeout,
		GracePeriod:    DefaultGracePeriod,
		StatusPolicy:   StatusPolicy2xx,
		Output:         OutputText,
		LogLevel:       "info",
		LogFormat:      "console",
		Tracing:        TracingConfig{SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Warnings lists settings that are valid but deserve the operator's attention.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("high rate limit configured (%d RPS), ensure you have authorization to test the target system", c.Rate))
	}
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("high concurrency configured (%d virtual users), ensure you have authorization to test the target system", c.Concurrency))
	}
	return warnings
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if _, err := target.Parse(c.TargetURL); err != nil {
		issues = append(issues, err.Error())
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.ThinkTime < 0 {
		issues = append(issues, "think_time must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}

	switch c.ThinkTimeModel {
	case ThinkTimeConstant, ThinkTimeExponential:
	default:
		issues = append(issues, fmt.Sprintf("think_time_model must be constant or exponential, got %q", c.ThinkTimeModel))
	}
	switch c.StatusPolicy {
	case StatusPolicy2xx, StatusPolicyBelow400, StatusPolicyAny:
	default:
		issues = append(issues, fmt.Sprintf("status_policy must be 2xx, lt400 or any, got %q", c.StatusPolicy))
	}
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be text, json or yaml, got %q", c.Output))
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log_level: %v", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		issues = append(issues, fmt.Sprintf("log_format must be console or json, got %q", c.LogFormat))
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing.protocol must be grpc or http, got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing.sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
