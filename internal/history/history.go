// Package history keeps an append-only JSON Lines log of completed runs.
//
// Every write holds an exclusive lock on a sibling ".lock" file, so several
// vudrive processes can share one history file.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"

	"github.com/torosent/vudrive/internal/metrics"
)

// ErrNotFound is returned by Get when no record carries the requested id.
var ErrNotFound = errors.New("history record not found")

// Record is one completed run as stored on disk.
type Record struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	Target      string          `json:"target"`
	Concurrency int             `json:"concurrency"`
	Duration    string          `json:"duration"`
	ThinkTime   string          `json:"think_time"`
	Summary     metrics.Summary `json:"summary"`
}

// Entry is the condensed view of a record used for listings.
type Entry struct {
	ID             string
	StartedAt      time.Time
	Target         string
	Concurrency    int
	Total          int64
	Errors         int64
	RequestsPerSec float64
	P95LatencyMs   float64
	Incomplete     bool
}

// Store appends and reads records from a single file.
type Store struct {
	mu   sync.Mutex // flock.Flock is not reentrant across goroutines
	path string
	lock *flock.Flock
}

// NewStore returns a Store backed by path. The file is created on first append.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history file path is required")
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the history file location.
func (s *Store) Path() string { return s.path }

// Append writes r as a new line and returns it with its id assigned.
func (s *Store) Append(r Record) (Record, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.ID == "" {
		id, err := ulid.New(ulid.Timestamp(r.StartedAt), ulid.DefaultEntropy())
		if err != nil {
			return r, fmt.Errorf("generate record id: %w", err)
		}
		r.ID = id.String()
	}

	line, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return r, fmt.Errorf("create history directory: %w", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return r, fmt.Errorf("lock history file: %w", err)
	}
	defer s.lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return r, fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return r, fmt.Errorf("write history file: %w", err)
	}
	if err := f.Close(); err != nil {
		return r, fmt.Errorf("close history file: %w", err)
	}
	return r, nil
}

// List returns entries in file order. A missing file yields no entries.
// Malformed lines, such as a torn write, are skipped.
func (s *Store) List() ([]Entry, error) {
	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		fields := gjson.GetManyBytes(line,
			"id", "started_at", "target", "concurrency",
			"summary.total", "summary.errors", "summary.requests_per_sec",
			"summary.p95_latency_ms", "summary.incomplete")
		if !fields[0].Exists() {
			continue
		}
		started, _ := time.Parse(time.RFC3339Nano, fields[1].String())
		entries = append(entries, Entry{
			ID:             fields[0].String(),
			StartedAt:      started,
			Target:         fields[2].String(),
			Concurrency:    int(fields[3].Int()),
			Total:          fields[4].Int(),
			Errors:         fields[5].Int(),
			RequestsPerSec: fields[6].Float(),
			P95LatencyMs:   fields[7].Float(),
			Incomplete:     fields[8].Bool(),
		})
	}
	return entries, nil
}

// Get decodes the full record with the given id.
func (s *Store) Get(id string) (Record, error) {
	lines, err := s.readLines()
	if err != nil {
		return Record{}, err
	}
	for _, line := range lines {
		if gjson.GetBytes(line, "id").String() != id {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return Record{}, fmt.Errorf("decode record %s: %w", id, err)
		}
		return r, nil
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Store) readLines() ([][]byte, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock history file: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var lines [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}
	return lines, nil
}
