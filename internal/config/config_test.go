package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/vudrive/internal/config"
)

// loadArgs parses args the way the run command does and builds a Config.
func loadArgs(args ...string) (*config.Config, error) {
	cmd := &cobra.Command{Use: "run"}
	config.RegisterFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		return nil, err
	}
	return config.NewLoader().FromFlags(cmd.Flags())
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := loadArgs()
	if err != nil {
		t.Fatalf("FromFlags() error = %v", err)
	}

	if cfg.TargetURL != "" {
		t.Errorf("TargetURL = %q, want empty", cfg.TargetURL)
	}
	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.Duration != 60*time.Second {
		t.Errorf("Duration = %s, want 60s", cfg.Duration)
	}
	if cfg.ThinkTime != time.Second {
		t.Errorf("ThinkTime = %s, want 1s", cfg.ThinkTime)
	}
	if cfg.ThinkTimeModel != config.ThinkTimeConstant {
		t.Errorf("ThinkTimeModel = %q, want constant", cfg.ThinkTimeModel)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %s, want 5s", cfg.GracePeriod)
	}
	if cfg.Rate != 0 {
		t.Errorf("Rate = %d, want 0", cfg.Rate)
	}
	if cfg.StatusPolicy != config.StatusPolicy2xx {
		t.Errorf("StatusPolicy = %q, want 2xx", cfg.StatusPolicy)
	}
	if cfg.Output != config.OutputText {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
	if cfg.Tracing.Enabled() && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		t.Error("tracing should be disabled by default")
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"target": "https://api.example.com",
		"concurrency": 10,
		"rate": 100,
		"duration": "2m",
		"thinkTime": "500ms",
		"timeout": "45s",
		"gracePeriod": 3,
		"output": "json",
		"logErrors": true
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := loadArgs("--config", path, "--concurrency", "12")
	if err != nil {
		t.Fatalf("FromFlags() error = %v", err)
	}

	if cfg.TargetURL != "https://api.example.com" {
		t.Errorf("TargetURL = %q, want https://api.example.com", cfg.TargetURL)
	}
	if cfg.Concurrency != 12 {
		t.Errorf("Concurrency = %d, want 12 (flag overrides file)", cfg.Concurrency)
	}
	if cfg.Rate != 100 {
		t.Errorf("Rate = %d, want 100", cfg.Rate)
	}
	if cfg.Duration != 2*time.Minute {
		t.Errorf("Duration = %s, want 2m", cfg.Duration)
	}
	if cfg.ThinkTime != 500*time.Millisecond {
		t.Errorf("ThinkTime = %s, want 500ms", cfg.ThinkTime)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Timeout)
	}
	if cfg.GracePeriod != 3*time.Second {
		t.Errorf("GracePeriod = %s, want 3s", cfg.GracePeriod)
	}
	if cfg.Output != config.OutputJSON {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if !cfg.LogErrors {
		t.Errorf("LogErrors = false, want true")
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"target: http://127.0.0.1:8080",
		"vus: 4",
		"duration: 30s",
		"think_time: 2s",
		"status_policy: any",
		"thresholds:",
		"  - 'http_req_duration:p95 < 500'",
		"tracing:",
		"  endpoint: localhost:4318",
		"  protocol: http",
		"  insecure: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := loadArgs("--config", path)
	if err != nil {
		t.Fatalf("FromFlags() error = %v", err)
	}

	if cfg.TargetURL != "http://127.0.0.1:8080" {
		t.Errorf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %s, want 30s", cfg.Duration)
	}
	if cfg.ThinkTime != 2*time.Second {
		t.Errorf("ThinkTime = %s, want 2s", cfg.ThinkTime)
	}
	if cfg.StatusPolicy != config.StatusPolicyAny {
		t.Errorf("StatusPolicy = %q, want any", cfg.StatusPolicy)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "http_req_duration:p95 < 500" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.Protocol != "http" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if !cfg.Tracing.ShouldPropagate() {
		t.Error("ShouldPropagate() = false, want true when an endpoint is set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := loadArgs("--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Defaults()
		cfg.TargetURL = "http://127.0.0.1:8080"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "canonical configuration", mutate: func(*config.Config) {}},
		{name: "missing target", mutate: func(c *config.Config) { c.TargetURL = "" }, wantErr: "target is required"},
		{name: "bad scheme", mutate: func(c *config.Config) { c.TargetURL = "ftp://example.com" }, wantErr: "scheme must be http or https"},
		{name: "no host", mutate: func(c *config.Config) { c.TargetURL = "http://" }, wantErr: "host is empty"},
		{name: "zero concurrency", mutate: func(c *config.Config) { c.Concurrency = 0 }, wantErr: "concurrency must be >= 1"},
		{name: "zero duration", mutate: func(c *config.Config) { c.Duration = 0 }, wantErr: "duration must be > 0"},
		{name: "negative duration", mutate: func(c *config.Config) { c.Duration = -time.Second }, wantErr: "duration must be > 0"},
		{name: "negative think time", mutate: func(c *config.Config) { c.ThinkTime = -time.Second }, wantErr: "think_time must be >= 0"},
		{name: "zero think time", mutate: func(c *config.Config) { c.ThinkTime = 0 }},
		{name: "negative rate", mutate: func(c *config.Config) { c.Rate = -1 }, wantErr: "rate must be >= 0"},
		{name: "unknown model", mutate: func(c *config.Config) { c.ThinkTimeModel = "gaussian" }, wantErr: "think_time_model"},
		{name: "unknown policy", mutate: func(c *config.Config) { c.StatusPolicy = "5xx" }, wantErr: "status_policy"},
		{name: "unknown output", mutate: func(c *config.Config) { c.Output = "html" }, wantErr: "output must be"},
		{name: "bad log level", mutate: func(c *config.Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "bad log format", mutate: func(c *config.Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "bad threshold", mutate: func(c *config.Config) { c.Thresholds = []string{"latency < 5"} }, wantErr: "threshold"},
		{name: "bad sample rate", mutate: func(c *config.Config) { c.Tracing.SampleRate = 2 }, wantErr: "sample_rate"},
		{name: "bad tracing protocol", mutate: func(c *config.Config) { c.Tracing.Protocol = "thrift" }, wantErr: "tracing.protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllIssues(t *testing.T) {
	cfg := config.Defaults()
	cfg.Concurrency = 0
	cfg.Duration = 0

	err := cfg.Validate()
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}
	if got := len(verr.Issues()); got != 3 {
		t.Fatalf("Issues() = %v, want 3 issues", verr.Issues())
	}
}

func TestWarningsForAggressiveLoad(t *testing.T) {
	cfg := config.Defaults()
	cfg.TargetURL = "http://localhost:8080"
	if got := cfg.Warnings(); len(got) != 0 {
		t.Fatalf("Warnings() = %v, want none for defaults", got)
	}

	cfg.Rate = 5000
	cfg.Concurrency = 600
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, warnings must not fail validation", err)
	}
	got := cfg.Warnings()
	if len(got) != 2 {
		t.Fatalf("Warnings() = %v, want 2", got)
	}
	if !strings.Contains(got[0], "5000 RPS") || !strings.Contains(got[1], "600 virtual users") {
		t.Errorf("Warnings() = %v", got)
	}
}
