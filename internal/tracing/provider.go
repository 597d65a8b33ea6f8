// Package tracing exports one span per virtual-user request over OTLP and
// injects W3C trace context into outgoing requests.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/vudrive/internal/config"
)

const (
	defaultServiceName  = "vudrive"
	instrumentationName = "github.com/torosent/vudrive"
)

// Provider owns the SDK tracer provider for one run. The zero value and a
// nil *Provider both behave as disabled tracing.
type Provider struct {
	tp        *sdktrace.TracerProvider
	tracer    trace.Tracer
	propagate bool
}

// Option customizes Init.
type Option func(*initOptions)

type initOptions struct {
	logger   *zap.Logger
	exporter sdktrace.SpanExporter
	version  string
}

// WithLogger routes OpenTelemetry export errors to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *initOptions) { o.logger = logger }
}

// WithExporter replaces the OTLP exporter, enabling tracing even without an
// endpoint. Spans are exported synchronously.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *initOptions) { o.exporter = exporter }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(o *initOptions) { o.version = version }
}

// Init builds a Provider from cfg. Without an endpoint (flag, config or
// OTEL_EXPORTER_OTLP_ENDPOINT) or an injected exporter it returns a
// disabled Provider.
func Init(ctx context.Context, cfg config.TracingConfig, opts ...Option) (*Provider, error) {
	o := initOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled() && o.exporter == nil {
		return &Provider{propagate: cfg.ShouldPropagate()}, nil
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	sampler, err := samplerFor(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(serviceAttributes(cfg, o.version)...))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	var processor sdktrace.TracerProviderOption
	if o.exporter != nil {
		processor = sdktrace.WithSyncer(o.exporter)
	} else {
		exporter, err := newExporter(ctx, cfg, endpoint)
		if err != nil {
			return nil, fmt.Errorf("tracing exporter: %w", err)
		}
		processor = sdktrace.WithBatcher(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	logger := o.logger.Named("otel")
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("trace export failed", zap.Error(err))
	}))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Debug("tracing enabled",
		zap.String("endpoint", endpoint),
		zap.Float64("sample_rate", cfg.SampleRate))

	return &Provider{
		tp:        tp,
		tracer:    tp.Tracer(instrumentationName),
		propagate: cfg.ShouldPropagate(),
	}, nil
}

// Enabled reports whether spans are being recorded and exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Tracer returns the run's tracer, or a no-op tracer when disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return p.tracer
}

// ShouldPropagate reports whether traceparent headers go out with requests.
func (p *Provider) ShouldPropagate() bool {
	if p == nil {
		return false
	}
	return p.propagate
}

// Shutdown flushes buffered spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func samplerFor(rate float64) (sdktrace.Sampler, error) {
	switch {
	case rate < 0 || rate > 1:
		return nil, fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", rate)
	case rate == 0:
		return sdktrace.NeverSample(), nil
	case rate == 1:
		return sdktrace.AlwaysSample(), nil
	default:
		return sdktrace.TraceIDRatioBased(rate), nil
	}
}

func serviceAttributes(cfg config.TracingConfig, version string) []attribute.KeyValue {
	name := cfg.ServiceName
	if name == "" {
		name = os.Getenv("OTEL_SERVICE_NAME")
	}
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}
	return attrs
}

func newExporter(ctx context.Context, cfg config.TracingConfig, endpoint string) (sdktrace.SpanExporter, error) {
	switch protocol := strings.ToLower(cfg.Protocol); protocol {
	case "", "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q: use \"grpc\" or \"http\"", protocol)
	}
}
