package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// FromFlags builds a Config from an already parsed flag set that was
// populated by RegisterFlags. Values from --config are applied first and
// explicitly set flags override them.
func (Loader) FromFlags(fs *pflag.FlagSet) (*Config, error) {
	configPath, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(&cfg, fs); err != nil {
		return nil, err
	}

	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "target_url", "url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "concurrency", "vus"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = dur
	}

	if raw, ok := lookupSetting(settings, "thinktime", "think_time", "think-time", "sleep"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("thinkTime: %w", err)
		}
		cfg.ThinkTime = dur
	}

	if raw, ok := lookupSetting(settings, "thinktimemodel", "think_time_model", "think-time-model"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("thinkTimeModel: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.ThinkTimeModel = ThinkTimeModel(val)
		}
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = val
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "graceperiod", "grace_period", "grace-period"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("gracePeriod: %w", err)
		}
		cfg.GracePeriod = dur
	}

	if raw, ok := lookupSetting(settings, "statuspolicy", "status_policy", "status-policy"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("statusPolicy: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.StatusPolicy = StatusPolicy(val)
		}
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.Output = OutputFormat(val)
		}
	}

	if raw, ok := lookupSetting(settings, "quiet"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("quiet: %w", err)
		}
		cfg.Quiet = val
	}

	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.LogLevel = val
		}
	}

	if raw, ok := lookupSetting(settings, "logformat", "log_format", "log-format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logFormat: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.LogFormat = val
		}
	}

	if raw, ok := lookupSetting(settings, "useragent", "user_agent", "user-agent"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("userAgent: %w", err)
		}
		cfg.UserAgent = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "metricsaddr", "metrics_addr", "metrics-addr"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("metricsAddr: %w", err)
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "historyfile", "history_file", "history-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("historyFile: %w", err)
		}
		cfg.HistoryFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracingConfig(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracingConfig(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return base, err
	}
	t := base

	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return t, fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return t, fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return t, fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return t, fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return t, fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return t, fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = &val
	}
	return t, nil
}
