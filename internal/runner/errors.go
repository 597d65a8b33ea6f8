package runner

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAlreadyRun is returned when Run is called on a driver that has
	// already started. A new run requires a new Driver.
	ErrAlreadyRun = errors.New("driver has already run")

	// ErrShutdownTimeout is logged when workers outlive the drain grace period.
	ErrShutdownTimeout = errors.New("workers did not exit within the grace period")
)

// ConfigError reports invalid driver options. It is returned before any
// worker is spawned.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Issues, "; "))
}

// HTTPError represents a response rejected by the status policy.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, text)
}
