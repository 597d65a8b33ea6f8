package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all run flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// secondsValue is a duration flag that also accepts a bare number of seconds.
// Its type name stays "duration" so pflag's GetDuration reads it.
type secondsValue time.Duration

func newSecondsValue(d time.Duration) *secondsValue {
	v := secondsValue(d)
	return &v
}

func (v *secondsValue) Set(s string) error {
	d, err := asDuration(s)
	if err != nil {
		return err
	}
	*v = secondsValue(d)
	return nil
}

func (v *secondsValue) String() string { return time.Duration(*v).String() }

func (v *secondsValue) Type() string { return "duration" }

// configureFlags sets up all run flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	d := Defaults()

	flags.String("target", "", "Target URL to send GET requests to")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")

	// Load shape
	flags.IntP("concurrency", "c", d.Concurrency, "Number of virtual users")
	flags.Int("vus", d.Concurrency, "Alias for --concurrency")
	_ = flags.MarkHidden("vus")
	flags.VarP(newSecondsValue(d.Duration), "duration", "d", "How long to run the test (e.g. 60s, 5m, or 60 for seconds)")
	flags.Var(newSecondsValue(d.ThinkTime), "think-time", "Pause between a virtual user's requests")
	flags.String("think-time-model", string(d.ThinkTimeModel), "Think time distribution: constant or exponential")
	flags.Int64("seed", 0, "Random seed for exponential think time (0 uses the current time)")
	flags.IntP("rate", "r", 0, "Global requests per second cap (0 means unlimited)")
	flags.Var(newSecondsValue(d.Timeout), "timeout", "Per-request timeout")
	flags.Var(newSecondsValue(d.GracePeriod), "grace-period", "Max time to wait for in-flight requests after the test ends (negative aborts immediately)")
	flags.String("status-policy", string(d.StatusPolicy), "Which responses count as success: 2xx, lt400 or any")

	// Output
	flags.StringP("output", "o", string(d.Output), "Report format: text, json or yaml")
	flags.BoolP("quiet", "q", false, "Suppress the live progress line")
	flags.Bool("log-errors", false, "Log each failed request")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", d.LogFormat, "Log encoding: console or json")
	flags.String("user-agent", "", "User-Agent header sent with every request (default vudrive/1.0)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	flags.StringArray("threshold", nil, "Pass/fail assertion (repeatable, e.g., 'http_req_duration:p95 < 500')")
	flags.String("history-file", "", "Append the run summary to this JSONL history file")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported on spans (default vudrive)")
	flags.Float64("tracing-sample-rate", d.Tracing.SampleRate, "Fraction of requests traced (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context headers (defaults to on when tracing is enabled)")
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("vus") {
		val, err := fs.GetInt("vus")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("think-time") {
		val, err := fs.GetDuration("think-time")
		if err != nil {
			return err
		}
		cfg.ThinkTime = val
	}
	if fs.Changed("think-time-model") {
		val, err := fs.GetString("think-time-model")
		if err != nil {
			return err
		}
		cfg.ThinkTimeModel = ThinkTimeModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("grace-period") {
		val, err := fs.GetDuration("grace-period")
		if err != nil {
			return err
		}
		cfg.GracePeriod = val
	}
	if fs.Changed("status-policy") {
		val, err := fs.GetString("status-policy")
		if err != nil {
			return err
		}
		cfg.StatusPolicy = StatusPolicy(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("quiet") {
		val, err := fs.GetBool("quiet")
		if err != nil {
			return err
		}
		cfg.Quiet = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("user-agent") {
		val, err := fs.GetString("user-agent")
		if err != nil {
			return err
		}
		cfg.UserAgent = strings.TrimSpace(val)
	}
	if fs.Changed("metrics-addr") {
		val, err := fs.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("history-file") {
		val, err := fs.GetString("history-file")
		if err != nil {
			return err
		}
		cfg.HistoryFile = strings.TrimSpace(val)
	}
	return applyTracingFlagOverrides(&cfg.Tracing, fs)
}

func applyTracingFlagOverrides(t *TracingConfig, fs *pflag.FlagSet) error {
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		t.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		t.Insecure = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		t.Propagate = &val
	}
	return nil
}
