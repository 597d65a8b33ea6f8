package history

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/torosent/vudrive/internal/metrics"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "runs", "history.jsonl"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestNewStoreRequiresPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestListMissingFile(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestAppendAndList(t *testing.T) {
	store := newTestStore(t)
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.Append(Record{
		StartedAt:   started,
		Target:      "http://localhost:8080/",
		Concurrency: 5,
		Duration:    "10s",
		ThinkTime:   "1s",
		Summary: metrics.Summary{
			Total: 42, Successes: 40, Errors: 2,
			RequestsPerSec: 4.2, P95LatencyMs: 12.5,
		},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	second, err := store.Append(Record{
		StartedAt:   started.Add(time.Minute),
		Target:      "http://localhost:8080/other",
		Concurrency: 1,
		Summary:     metrics.Summary{Total: 3, Incomplete: true, Stragglers: 1},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("expected ids to sort by start time: %s <= %s", second.ID, first.ID)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != first.ID || got.Target != "http://localhost:8080/" || got.Concurrency != 5 {
		t.Errorf("unexpected first entry %+v", got)
	}
	if got.Total != 42 || got.Errors != 2 || got.RequestsPerSec != 4.2 || got.P95LatencyMs != 12.5 {
		t.Errorf("unexpected summary fields %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if !entries[1].Incomplete {
		t.Errorf("expected second entry to be incomplete")
	}
}

func TestGet(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.Append(Record{Target: "http://example.com/", Concurrency: 2, Duration: "5s",
		Summary: metrics.Summary{Total: 7, StatusCodes: map[string]int{"200": 7}}})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Duration != "5s" || got.Summary.Total != 7 || got.Summary.StatusCodes["200"] != 7 {
		t.Errorf("unexpected record %+v", got)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListSkipsMalformedLines(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Append(Record{Target: "http://a/"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"id\":\"torn\n\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := store.Append(Record{Target: "http://b/"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Target != "http://a/" || entries[1].Target != "http://b/" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestConcurrentAppend(t *testing.T) {
	store := newTestStore(t)
	const writers = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each goroutine uses its own Store, as separate processes would.
			s, err := NewStore(store.Path())
			if err != nil {
				errs <- err
				return
			}
			_, err = s.Append(Record{Target: "http://localhost/", Concurrency: i})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(entries))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}
