package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/torosent/vudrive/internal/config"
	"github.com/torosent/vudrive/internal/history"
	"github.com/torosent/vudrive/internal/httpclient"
	"github.com/torosent/vudrive/internal/logging"
	"github.com/torosent/vudrive/internal/metrics"
	"github.com/torosent/vudrive/internal/output"
	"github.com/torosent/vudrive/internal/runner"
	"github.com/torosent/vudrive/internal/target"
	"github.com/torosent/vudrive/internal/threshold"
	"github.com/torosent/vudrive/internal/tracing"
)

const (
	progressInterval = time.Second
	metricsNamespace = "vudrive"
	shutdownTimeout  = 5 * time.Second
)

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run --target URL [flags]",
		Short: "Drive virtual users against a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().FromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), *cfg, stdout, stderr)
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}

// runLoad executes one run end to end: validation, the driver, reporting,
// thresholds and history.
func runLoad(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	desc, err := target.Parse(cfg.TargetURL)
	if err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	logger.Debug("target resolved", zap.String("url", desc.URL()), zap.String("addr", desc.HostPort()))

	tp, err := tracing.Init(ctx, cfg.Tracing,
		tracing.WithLogger(logger),
		tracing.WithServiceVersion(version))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	reqOpts := []httpclient.Option{httpclient.WithUserAgent(cfg.UserAgent)}
	if tp.Enabled() {
		reqOpts = append(reqOpts, httpclient.WithTracer(tp.Tracer(), tp.ShouldPropagate()))
	}
	requester, err := httpclient.NewRequester(httpclient.NewClient(cfg.Timeout), desc, reqOpts...)
	if err != nil {
		return err
	}

	exporter := metrics.NewExporter(metricsNamespace)
	collector := metrics.NewCollector(metrics.WithObserver(exporter))

	if cfg.MetricsAddr != "" {
		stopMetrics, err := serveMetrics(cfg.MetricsAddr, exporter.Handler(), logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	opts := runner.Options{
		Concurrency:    cfg.Concurrency,
		Duration:       cfg.Duration,
		ThinkTime:      cfg.ThinkTime,
		ThinkTimeModel: toRunnerThinkTimeModel(cfg.ThinkTimeModel),
		RandomSeed:     cfg.Seed,
		GracePeriod:    toRunnerGracePeriod(cfg.GracePeriod),
		RatePerSecond:  cfg.Rate,
		StatusPolicy:   toRunnerStatusPolicy(cfg.StatusPolicy),
		Requester:      requester,
		Collector:      collector,
		Logger:         logger,
		Tracker:        exporter,
	}
	if cfg.LogErrors {
		opts.FailureLogger = logging.NewFailureLogger(logger)
	}
	driver := runner.New(opts)

	var progress *output.ProgressReporter
	if !cfg.Quiet && cfg.Output == config.OutputText {
		progress = output.NewProgressReporter(collector, progressInterval, stdout)
		progress.Start()
	}

	started := time.Now()
	summary, err := driver.Run(ctx)
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}
	if err != nil {
		return err
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(summary)
	passed := threshold.AllPassed(results)

	switch cfg.Output {
	case config.OutputJSON:
		if err := output.PrintJSONReport(stdout, summary, results); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	case config.OutputYAML:
		if err := output.PrintYAMLReport(stdout, summary, results); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	default:
		output.PrintReport(stdout, summary)
		output.PrintThresholdResults(stdout, results)
	}

	if cfg.HistoryFile != "" {
		if err := recordHistory(cfg, started, summary, logger); err != nil {
			return err
		}
	}

	if !passed {
		return errThresholdsFailed
	}
	return nil
}

func recordHistory(cfg config.Config, started time.Time, summary metrics.Summary, logger *zap.Logger) error {
	store, err := history.NewStore(cfg.HistoryFile)
	if err != nil {
		return err
	}
	rec, err := store.Append(history.Record{
		StartedAt:   started,
		Target:      cfg.TargetURL,
		Concurrency: cfg.Concurrency,
		Duration:    cfg.Duration.String(),
		ThinkTime:   cfg.ThinkTime.String(),
		Summary:     summary,
	})
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	logger.Info("run recorded", zap.String("id", rec.ID), zap.String("file", store.Path()))
	return nil
}

// serveMetrics exposes handler on addr under /metrics and returns a function
// that shuts the server down.
func serveMetrics(addr string, handler http.Handler, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func toRunnerThinkTimeModel(model config.ThinkTimeModel) runner.ThinkTimeModel {
	switch strings.ToLower(string(model)) {
	case string(config.ThinkTimeExponential):
		return runner.ThinkTimeExponential
	default:
		return runner.ThinkTimeConstant
	}
}

func toRunnerStatusPolicy(policy config.StatusPolicy) runner.StatusPolicy {
	switch strings.ToLower(string(policy)) {
	case string(config.StatusPolicyBelow400):
		return runner.StatusPolicyBelow400
	case string(config.StatusPolicyAny):
		return runner.StatusPolicyAny
	default:
		return runner.StatusPolicy2xx
	}
}

// toRunnerGracePeriod keeps an explicit zero meaning "abort immediately";
// the driver reads zero as "use the default".
func toRunnerGracePeriod(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
