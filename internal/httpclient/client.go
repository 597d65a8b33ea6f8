package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/vudrive/internal/target"
	"github.com/torosent/vudrive/internal/tracing"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "vudrive/1.0"

// maxDrainBytes bounds how much of a response body is discarded to keep the
// connection reusable. Larger bodies are abandoned and the connection closed.
const maxDrainBytes = 1 << 20

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Requester issues HTTP GET requests against a single target. It is safe
// for concurrent use by all virtual users of a run.
type Requester struct {
	client    *http.Client
	target    target.Descriptor
	userAgent string
	tracer    trace.Tracer
	propagate bool
}

// Option customizes a Requester.
type Option func(*Requester)

// WithTracer wraps each request in a client span. When propagate is set the
// W3C trace context is injected into the request headers.
func WithTracer(tracer trace.Tracer, propagate bool) Option {
	return func(r *Requester) {
		r.tracer = tracer
		r.propagate = propagate
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(r *Requester) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

func NewRequester(client *http.Client, t target.Descriptor, opts ...Option) (*Requester, error) {
	if client == nil {
		return nil, errors.New("http client cannot be nil")
	}
	if t.IsZero() {
		return nil, errors.New("target is required")
	}
	r := &Requester{
		client:    client,
		target:    t,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Do sends one GET request and returns the response status code. Only the
// status line is inspected; the body is drained and discarded.
func (r *Requester) Do(ctx context.Context) (int, error) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = tracing.StartRequestSpan(ctx, r.tracer, http.MethodGet, r.target.URL(), r.target.Path())
		code, err := r.send(ctx)
		if code > 0 {
			tracing.EndSpan(span, err, tracing.StatusAttribute(code))
		} else {
			tracing.EndSpan(span, err)
		}
		return code, err
	}
	return r.send(ctx)
}

func (r *Requester) send(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.target.URL(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	if r.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Body read errors are not request failures; the status was received.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	return resp.StatusCode, nil
}
