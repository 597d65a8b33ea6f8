package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/torosent/vudrive/internal/metrics"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	refused := &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1:1",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}

	tests := []struct {
		name string
		err  error
		want metrics.ErrorKind
	}{
		{"nil", nil, metrics.ErrorKindNone},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), metrics.ErrorKindCanceled},
		{"deadline", context.DeadlineExceeded, metrics.ErrorKindTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, metrics.ErrorKindTimeout},
		{"dns", &url.Error{Op: "Get", URL: "http://nope.invalid", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}}, metrics.ErrorKindDNS},
		{"refused", refused, metrics.ErrorKindConnectionRefused},
		{"other", errors.New("unexpected EOF"), metrics.ErrorKindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metrics.ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestOutcomeSuccess(t *testing.T) {
	if !(metrics.Outcome{StatusCode: 200}).Success() {
		t.Error("outcome without error kind should be a success")
	}
	if (metrics.Outcome{StatusCode: 503, ErrorKind: metrics.ErrorKindHTTPStatus}).Success() {
		t.Error("outcome with error kind should not be a success")
	}
}
