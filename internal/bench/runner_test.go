package bench

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hyperjump/embedbench/internal/embedding"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// clockedEmbedder advances a fake clock by cost(call, texts) on every EmbedBatch call.
// Call 0 is the warm-up.
type clockedEmbedder struct {
	*embedding.MockEmbedder
	clock  *fakeClock
	cost   func(call int, texts []string) time.Duration
	calls  [][]string
	failOn int
	closed bool
}

func (e *clockedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	call := len(e.calls)
	e.calls = append(e.calls, append([]string(nil), texts...))
	e.clock.Advance(e.cost(call, texts))
	if e.failOn > 0 && call == e.failOn {
		return nil, errors.New("inference failed")
	}
	return e.MockEmbedder.EmbedBatch(ctx, texts)
}

func (e *clockedEmbedder) Close() error {
	e.closed = true
	return nil
}

// Warm-up costs an hour so any leak into the statistics is obvious. Latency call k
// costs k ms. Throughput costs 0.5ms per text.
func defaultCost(call int, texts []string) time.Duration {
	switch {
	case call == 0:
		return time.Hour
	case call <= 30:
		return time.Duration(call) * time.Millisecond
	default:
		return time.Duration(len(texts)) * 500 * time.Microsecond
	}
}

func defaultOptions() Options {
	return Options{
		Model:            "BAAI/bge-small-en-v1.5",
		LatencyTexts:     3,
		Repetitions:      10,
		ThroughputCounts: []int{100, 500, 1000},
		BatchSize:        64,
		WarmupText:       "warmup",
	}
}

func newClockedLoader(clock *fakeClock, e *clockedEmbedder) Loader {
	return func(ctx context.Context) (embedding.Embedder, string, error) {
		clock.Advance(250 * time.Millisecond)
		return e, "mock", nil
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunner_Run(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	e := &clockedEmbedder{MockEmbedder: embedding.NewMockEmbedder(8), clock: clock, cost: defaultCost}
	r := NewRunner(DefaultCorpus, defaultOptions(), WithClock(clock.Now))

	report, err := r.Run(context.Background(), newClockedLoader(clock, e))
	if err != nil {
		t.Fatal(err)
	}

	if report.ID == "" {
		t.Error("report should have an ID")
	}
	if report.Backend != "mock" || report.Dimensions != 8 || report.CorpusSize != 5 || report.BatchSize != 64 {
		t.Errorf("unexpected report header: %+v", report)
	}
	if !approx(report.LoadTimeMs(), 250) {
		t.Errorf("load time = %fms, want 250", report.LoadTimeMs())
	}

	if len(report.Latency) != 3 {
		t.Fatalf("latency results = %d, want 3", len(report.Latency))
	}
	for i, res := range report.Latency {
		// text i covers calls 10i+1 .. 10i+10
		wantMin := float64(10*i + 1)
		wantAvg := float64(10*i) + 5.5
		if res.Index != i+1 {
			t.Errorf("latency[%d].Index = %d", i, res.Index)
		}
		if res.Chars != len([]rune(DefaultCorpus[i])) {
			t.Errorf("latency[%d].Chars = %d", i, res.Chars)
		}
		if len(res.Samples) != 10 {
			t.Errorf("latency[%d] has %d samples", i, len(res.Samples))
		}
		if !approx(res.MinMs(), wantMin) || !approx(res.AverageMs(), wantAvg) {
			t.Errorf("latency[%d]: avg %fms min %fms, want avg %fms min %fms",
				i, res.AverageMs(), res.MinMs(), wantAvg, wantMin)
		}
	}

	if len(report.Throughput) != 3 {
		t.Fatalf("throughput results = %d, want 3", len(report.Throughput))
	}
	for i, count := range []int{100, 500, 1000} {
		res := report.Throughput[i]
		wantElapsed := float64(count) * 0.0005
		if res.Count != count {
			t.Errorf("throughput[%d].Count = %d", i, res.Count)
		}
		if !approx(res.Elapsed, wantElapsed) {
			t.Errorf("throughput[%d].Elapsed = %f, want %f", i, res.Elapsed, wantElapsed)
		}
		if !approx(res.Rate, 2000) {
			t.Errorf("throughput[%d].Rate = %f, want 2000", i, res.Rate)
		}
	}

	if !e.closed {
		t.Error("model should be closed after the run")
	}
}

func TestRunner_warmupExcludedFromStatistics(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	e := &clockedEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), clock: clock, cost: defaultCost}
	report, err := NewRunner(DefaultCorpus, defaultOptions(), WithClock(clock.Now)).
		Run(context.Background(), newClockedLoader(clock, e))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.calls[0]) != 1 || e.calls[0][0] != "warmup" {
		t.Fatalf("first call should be the warm-up, got %v", e.calls[0])
	}
	if report.LoadTime >= 3600 {
		t.Error("warm-up time leaked into load time")
	}
	for _, res := range report.Latency {
		for _, s := range res.Samples {
			if s >= 3600 {
				t.Errorf("warm-up time leaked into latency samples: %v", res.Samples)
			}
		}
	}
	for _, res := range report.Throughput {
		if res.Elapsed >= 3600 {
			t.Errorf("warm-up time leaked into throughput: %+v", res)
		}
	}
}

func TestRunner_callSequence(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	e := &clockedEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), clock: clock, cost: defaultCost}
	opts := defaultOptions()
	opts.ThroughputCounts = []int{100}
	if _, err := NewRunner(DefaultCorpus, opts, WithClock(clock.Now)).Run(context.Background(), newClockedLoader(clock, e)); err != nil {
		t.Fatal(err)
	}
	// 1 warm-up + 3x10 latency + ceil(100/64) throughput batches
	if len(e.calls) != 1+30+2 {
		t.Fatalf("got %d calls, want 33", len(e.calls))
	}
	for i := 1; i <= 30; i++ {
		want := DefaultCorpus[(i-1)/10]
		if len(e.calls[i]) != 1 || e.calls[i][0] != want {
			t.Errorf("call %d = %v, want [%q]", i, e.calls[i], want)
		}
	}
	if len(e.calls[31]) != 64 || len(e.calls[32]) != 36 {
		t.Errorf("throughput batches = %d, %d; want 64, 36", len(e.calls[31]), len(e.calls[32]))
	}
	if e.calls[32][35] != DefaultCorpus[99%5] {
		t.Error("last throughput text should follow cyclic order")
	}
}

func TestRunner_loadFailureIsFatal(t *testing.T) {
	loadErr := errors.New("model not found")
	_, err := NewRunner(DefaultCorpus, defaultOptions()).Run(context.Background(),
		func(ctx context.Context) (embedding.Embedder, string, error) {
			return nil, "", loadErr
		})
	if !errors.Is(err, loadErr) {
		t.Errorf("err = %v, want wrapped %v", err, loadErr)
	}
}

func TestRunner_inferenceFailureAborts(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	e := &clockedEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), clock: clock, cost: defaultCost, failOn: 5}
	report, err := NewRunner(DefaultCorpus, defaultOptions(), WithClock(clock.Now)).
		Run(context.Background(), newClockedLoader(clock, e))
	if err == nil {
		t.Fatal("expected error")
	}
	if report != nil {
		t.Error("no partial report should be returned")
	}
	if len(e.calls) != 6 {
		t.Errorf("run should stop at the failing call, made %d calls", len(e.calls))
	}
	if !e.closed {
		t.Error("model should be closed after a failed run")
	}
}

func TestRunner_emptyCorpus(t *testing.T) {
	loaded := false
	_, err := NewRunner(nil, defaultOptions()).Run(context.Background(),
		func(ctx context.Context) (embedding.Embedder, string, error) {
			loaded = true
			return embedding.NewMockEmbedder(4), "mock", nil
		})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("err = %v, want ErrEmptyCorpus", err)
	}
	if loaded {
		t.Error("model should not be loaded when the corpus is empty")
	}
}

func TestRunner_fewerTextsThanLatencyTrials(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	e := &clockedEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), clock: clock, cost: defaultCost}
	opts := defaultOptions()
	opts.ThroughputCounts = []int{7}
	report, err := NewRunner([]string{"only one"}, opts, WithClock(clock.Now)).
		Run(context.Background(), newClockedLoader(clock, e))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Latency) != 1 {
		t.Errorf("latency results = %d, want 1", len(report.Latency))
	}
	if len(report.Throughput) != 1 || report.Throughput[0].Count != 7 {
		t.Errorf("throughput = %+v", report.Throughput)
	}
}

func TestRunner_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := embedding.NewMockEmbedder(4).WithDelay(time.Millisecond)
	_, err := NewRunner(DefaultCorpus, defaultOptions()).Run(ctx,
		func(ctx context.Context) (embedding.Embedder, string, error) {
			return e, "mock", nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
