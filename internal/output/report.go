// Package output renders run summaries and live progress.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/torosent/vudrive/internal/metrics"
	"github.com/torosent/vudrive/internal/threshold"
)

// Report is the machine-readable document emitted by the JSON and YAML formats.
type Report struct {
	metrics.Summary `yaml:",inline"`
	Thresholds      []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s metrics.Summary) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Virtual Users:     %d\n", s.Workers)
	fmt.Fprintf(w, "Total Requests:    %d\n", s.Total)
	fmt.Fprintf(w, "Successful:        %d\n", s.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", s.Errors)
	fmt.Fprintf(w, "Duration:          %s\n", s.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", s.RequestsPerSec)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", s.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", s.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", s.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", s.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", s.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", s.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", s.P99Latency)

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(w, "\nStatus Codes:")
		for _, b := range metrics.FlattenCounts(s.StatusCodes) {
			label := b.Key
			if code, err := strconv.Atoi(b.Key); err == nil {
				label = fmt.Sprintf("HTTP %d", code)
			}
			fmt.Fprintf(w, "  %s: %d\n", label, b.Count)
		}
	}
	if len(s.ErrorKinds) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, b := range metrics.FlattenCounts(s.ErrorKinds) {
			fmt.Fprintf(w, "  %s: %d\n", metrics.FriendlyErrorName(b.Key), b.Count)
		}
	}
	if s.Incomplete {
		fmt.Fprintf(w, "\nWARNING: %d virtual user(s) did not stop within the grace period; results may be incomplete.\n", s.Stragglers)
	}
}

// PrintThresholdResults lists each threshold outcome and returns whether all passed.
func PrintThresholdResults(w io.Writer, results []threshold.Result) bool {
	if len(results) == 0 {
		return true
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	passed := threshold.AllPassed(results)
	if passed {
		fmt.Fprintln(w, "All thresholds passed.")
	} else {
		fmt.Fprintln(w, "Some thresholds failed.")
	}
	return passed
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s metrics.Summary, results []threshold.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Summary: s, Thresholds: results})
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, s metrics.Summary, results []threshold.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Report{Summary: s, Thresholds: results}); err != nil {
		return err
	}
	return enc.Close()
}
