package metrics

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// ErrorKind classifies a failed request. The empty kind means success.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindHTTPStatus        ErrorKind = "http_status"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindConnectionRefused ErrorKind = "connection_refused"
	ErrorKindDNS               ErrorKind = "dns"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindTransport         ErrorKind = "transport"
)

// Outcome is the record of one request attempt. Workers build it once and
// never modify it afterwards.
type Outcome struct {
	Worker     int
	Timestamp  time.Time
	Latency    time.Duration
	StatusCode int // 0 when no response was received
	ErrorKind  ErrorKind
	Err        error
}

// Success reports whether the attempt counts towards the success total.
func (o Outcome) Success() bool {
	return o.ErrorKind == ErrorKindNone
}

// ClassifyError maps a transport error to an ErrorKind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	if errors.Is(err, context.Canceled) {
		return ErrorKindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorKindConnectionRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindTransport
}
