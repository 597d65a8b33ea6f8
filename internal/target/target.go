// Package target resolves the load test endpoint once, before any worker starts.
package target

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidTarget is wrapped by every Parse failure.
var ErrInvalidTarget = errors.New("invalid target")

// Descriptor is an immutable, resolved HTTP endpoint.
type Descriptor struct {
	scheme string
	host   string
	port   int
	path   string
	raw    string
}

// Parse validates raw and returns its Descriptor. The scheme must be http or
// https and the host must be non-empty.
func Parse(raw string) (Descriptor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Descriptor{}, fmt.Errorf("%w: url is empty", ErrInvalidTarget)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Descriptor{}, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidTarget, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return Descriptor{}, fmt.Errorf("%w: host is empty", ErrInvalidTarget)
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Descriptor{}, fmt.Errorf("%w: port %q out of range", ErrInvalidTarget, p)
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	u.Scheme = scheme
	u.Fragment = ""
	return Descriptor{
		scheme: scheme,
		host:   host,
		port:   port,
		path:   path,
		raw:    u.String(),
	}, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

func (d Descriptor) Scheme() string { return d.scheme }
func (d Descriptor) Host() string   { return d.host }
func (d Descriptor) Port() int      { return d.port }

// Path returns the request path including any query string.
func (d Descriptor) Path() string { return d.path }

// HostPort returns host:port with the effective port.
func (d Descriptor) HostPort() string {
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

// URL returns the normalized request URL.
func (d Descriptor) URL() string { return d.raw }

func (d Descriptor) String() string { return d.raw }

// IsZero reports whether d was never resolved.
func (d Descriptor) IsZero() bool { return d.raw == "" }
