// Package threshold evaluates pass/fail assertions such as
// "http_req_duration:p95 < 500" against a run summary.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/vudrive/internal/metrics"
)

// Threshold is one parsed assertion.
type Threshold struct {
	Metric    string  // http_req_duration, http_req_failed or http_requests
	Aggregate string  // p95, avg, rate, count, ...
	Operator  string  // <, <=, >, >=, ==, !=
	Value     float64 // right-hand side; latency values are milliseconds
	Raw       string  // normalized expression, used in reports
}

// Result is the outcome of evaluating one Threshold.
type Result struct {
	Threshold Threshold `json:"-" yaml:"-"`
	Expr      string    `json:"threshold" yaml:"threshold"`
	Actual    float64   `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

type extractor func(metrics.Summary) float64

// catalog lists every metric and the aggregates it supports.
var catalog = map[string]map[string]extractor{
	"http_req_duration": {
		"p50":  func(s metrics.Summary) float64 { return s.P50LatencyMs },
		"p90":  func(s metrics.Summary) float64 { return s.P90LatencyMs },
		"p95":  func(s metrics.Summary) float64 { return s.P95LatencyMs },
		"p99":  func(s metrics.Summary) float64 { return s.P99LatencyMs },
		"avg":  func(s metrics.Summary) float64 { return s.MeanLatencyMs },
		"mean": func(s metrics.Summary) float64 { return s.MeanLatencyMs },
		"min":  func(s metrics.Summary) float64 { return s.MinLatencyMs },
		"max":  func(s metrics.Summary) float64 { return s.MaxLatencyMs },
	},
	"http_req_failed": {
		"count": func(s metrics.Summary) float64 { return float64(s.Errors) },
		"rate": func(s metrics.Summary) float64 {
			if s.Total == 0 {
				return 0
			}
			return float64(s.Errors) / float64(s.Total)
		},
	},
	"http_requests": {
		"count": func(s metrics.Summary) float64 { return float64(s.Total) },
		"rate":  func(s metrics.Summary) float64 { return s.RequestsPerSec },
	},
}

const epsilon = 1e-9

var operators = map[string]func(actual, expected float64) bool{
	"<":  func(a, e float64) bool { return a < e },
	"<=": func(a, e float64) bool { return a <= e || math.Abs(a-e) < epsilon },
	">":  func(a, e float64) bool { return a > e },
	">=": func(a, e float64) bool { return a >= e || math.Abs(a-e) < epsilon },
	"==": func(a, e float64) bool { return math.Abs(a-e) < epsilon },
	"!=": func(a, e float64) bool { return math.Abs(a-e) >= epsilon },
}

var expression = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9]*\.?[0-9]+)$`)

// Parse parses "metric:aggregate operator value".
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}
	m := expression.FindStringSubmatch(s)
	if m == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'http_req_duration:p95 < 500')", s)
	}
	metric, aggregate, op := m[1], m[2], m[3]

	aggregates, ok := catalog[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric %q (supported: %s)", metric, strings.Join(sortedKeys(catalog), ", "))
	}
	if _, ok := aggregates[aggregate]; !ok {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(sortedKeys(aggregates), ", "))
	}
	if _, ok := operators[op]; !ok {
		return Threshold{}, fmt.Errorf("unsupported operator %q (supported: %s)", op, strings.Join(sortedKeys(operators), ", "))
	}
	value, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", m[4], err)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  op,
		Value:     value,
		Raw:       fmt.Sprintf("%s:%s %s %s", metric, aggregate, op, m[4]),
	}, nil
}

// ParseMultiple parses every expression and reports all invalid ones at once.
func ParseMultiple(exprs []string) ([]Threshold, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]Threshold, 0, len(exprs))
	var errs []string
	for i, s := range exprs {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return out, nil
}

// Actual returns the summary value the threshold is compared against.
func (t Threshold) Actual(s metrics.Summary) (float64, error) {
	fn, ok := catalog[t.Metric][t.Aggregate]
	if !ok {
		return 0, fmt.Errorf("unsupported threshold %s:%s", t.Metric, t.Aggregate)
	}
	return fn(s), nil
}

// Check evaluates t against s.
func (t Threshold) Check(s metrics.Summary) Result {
	actual, err := t.Actual(s)
	if err != nil {
		return Result{Threshold: t, Expr: t.Raw, Message: fmt.Sprintf("error: %v", err)}
	}
	cmp, ok := operators[t.Operator]
	if !ok {
		return Result{Threshold: t, Expr: t.Raw, Actual: actual, Message: fmt.Sprintf("error: unsupported operator %q", t.Operator)}
	}

	pass := cmp(actual, t.Value)
	mark := "✓"
	if !pass {
		mark = "✗"
	}
	return Result{
		Threshold: t,
		Expr:      t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", mark, t.Raw, actual, t.Operator, t.Value),
	}
}

// Evaluator checks a fixed set of thresholds.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: slices.Clone(thresholds)}
}

// Evaluate returns one Result per threshold, in order. No thresholds yields nil.
func (e *Evaluator) Evaluate(s metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, t.Check(s))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
