package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/embedbench/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(id string, startedAt time.Time) *models.Report {
	return &models.Report{
		ID:         id,
		Model:      "BAAI/bge-small-en-v1.5",
		Backend:    "onnx",
		Dimensions: 384,
		BatchSize:  64,
		CorpusSize: 5,
		StartedAt:  startedAt,
		LoadTime:   0.25,
		Latency: []*models.LatencyResult{
			{Index: 1, Chars: 97, Average: 0.005, Min: 0.004, Samples: []float64{0.004, 0.006}},
		},
		Throughput: []*models.ThroughputResult{
			{Count: 100, Elapsed: 0.2, Rate: 500},
		},
	}
}

func TestSQLiteStorage_SaveAndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := store.SaveRun(ctx, testReport("run1", started)); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRun(ctx, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "BAAI/bge-small-en-v1.5" || got.Dimensions != 384 || !got.StartedAt.Equal(started) {
		t.Errorf("got %+v", got)
	}
	if len(got.Latency) != 1 || len(got.Latency[0].Samples) != 2 || got.Throughput[0].Rate != 500 {
		t.Errorf("trial results not preserved: %+v", got)
	}

	if err := store.SaveRun(ctx, testReport("run1", started)); err == nil {
		t.Error("expected error saving a duplicate id")
	}
	if err := store.SaveRun(ctx, testReport("", started)); err == nil {
		t.Error("expected error saving a report without id")
	}
}

func TestSQLiteStorage_GetMissing(t *testing.T) {
	store := newTestStorage(t)
	_, err := store.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_ListAndCount(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	n, err := store.CountRuns(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountRuns: %v, %d", err, n)
	}

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := testReport(fmt.Sprintf("run%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	n, _ = store.CountRuns(ctx)
	if n != 5 {
		t.Errorf("expected 5 runs, got %d", n)
	}

	page, err := store.ListRuns(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != "run3" || page[1].ID != "run2" {
		t.Fatalf("page = %+v", page)
	}
	if page[0].LoadTimeMs != 250 || page[0].BatchSize != 64 || page[0].Backend != "onnx" {
		t.Errorf("summary = %+v", page[0])
	}

	rest, _ := store.ListRuns(ctx, 4, 10)
	if len(rest) != 1 || rest[0].ID != "run0" {
		t.Errorf("last page = %+v", rest)
	}
}

func TestSQLiteStorage_SizeBytes(t *testing.T) {
	store := newTestStorage(t)
	if err := store.SaveRun(context.Background(), testReport("run1", time.Now())); err != nil {
		t.Fatal(err)
	}
	size, err := store.SizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if size <= 0 {
		t.Errorf("size = %d, want > 0", size)
	}
}
