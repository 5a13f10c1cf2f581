package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/embedbench/internal/embedding"
	"github.com/hyperjump/embedbench/internal/models"
	"github.com/hyperjump/embedbench/pkg/utils"
)

// Loader constructs the model under test and returns it with the backend that serves it.
// The runner times this call as the model load time.
type Loader func(ctx context.Context) (embedding.Embedder, string, error)

// Options holds the trial parameters.
type Options struct {
	Model            string
	LatencyTexts     int
	Repetitions      int
	ThroughputCounts []int
	BatchSize        int
	WarmupText       string
}

// Runner executes the load, warm-up, latency and throughput phases in order.
type Runner struct {
	opts   Options
	corpus []string
	logger *zap.Logger
	now    func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger for phase progress.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner over corpus. The corpus is not copied and must not be
// modified while a run is in progress.
func NewRunner(corpus []string, opts Options, runnerOpts ...RunnerOption) *Runner {
	r := &Runner{
		opts:   opts,
		corpus: corpus,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range runnerOpts {
		o(r)
	}
	return r
}

func (r *Runner) since(start time.Time) float64 {
	return r.now().Sub(start).Seconds()
}

func (r *Runner) validate() error {
	needsCorpus := r.opts.LatencyTexts > 0 && r.opts.Repetitions > 0
	for _, c := range r.opts.ThroughputCounts {
		if c < 0 {
			return fmt.Errorf("invalid throughput count %d", c)
		}
		if c > 0 {
			needsCorpus = true
		}
	}
	if needsCorpus && len(r.corpus) == 0 {
		return ErrEmptyCorpus
	}
	return nil
}

// Run loads the model and executes every trial. Any failure aborts the run; no partial
// report is returned. The loaded model is closed before Run returns.
func (r *Runner) Run(ctx context.Context, load Loader) (*models.Report, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	report := &models.Report{
		ID:         uuid.New().String(),
		Model:      r.opts.Model,
		BatchSize:  r.opts.BatchSize,
		CorpusSize: len(r.corpus),
		StartedAt:  r.now(),
	}

	start := r.now()
	model, backend, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", r.opts.Model, err)
	}
	report.LoadTime = r.since(start)
	defer model.Close()
	report.Backend = backend
	report.Dimensions = model.Dimensions()
	r.logger.Debug("model loaded",
		zap.String("model", r.opts.Model),
		zap.String("backend", backend),
		zap.Float64("load_ms", report.LoadTimeMs()))

	if _, err := model.EmbedBatch(ctx, []string{r.opts.WarmupText}); err != nil {
		return nil, fmt.Errorf("warm-up: %w", err)
	}

	report.Latency, err = r.latencyTrials(ctx, model)
	if err != nil {
		return nil, err
	}
	report.Throughput, err = r.throughputTrials(ctx, model)
	if err != nil {
		return nil, err
	}
	r.logger.Info("benchmark complete", zap.String("run_id", report.ID), zap.String("model", r.opts.Model))
	return report, nil
}

func (r *Runner) latencyTrials(ctx context.Context, model embedding.Embedder) ([]*models.LatencyResult, error) {
	if r.opts.Repetitions <= 0 || r.opts.LatencyTexts <= 0 {
		return nil, nil
	}
	n := min(r.opts.LatencyTexts, len(r.corpus))
	results := make([]*models.LatencyResult, 0, n)
	for i, text := range r.corpus[:n] {
		samples := make([]float64, 0, r.opts.Repetitions)
		for rep := 0; rep < r.opts.Repetitions; rep++ {
			start := r.now()
			if _, err := model.EmbedBatch(ctx, []string{text}); err != nil {
				return nil, fmt.Errorf("latency text %d repetition %d: %w", i+1, rep+1, err)
			}
			samples = append(samples, r.since(start))
		}
		res := &models.LatencyResult{
			Index:   i + 1,
			Chars:   utils.CharCount(text),
			Average: Average(samples),
			Min:     Min(samples),
			Samples: samples,
		}
		r.logger.Debug("latency trial",
			zap.Int("text", res.Index),
			zap.Float64("avg_ms", res.AverageMs()),
			zap.Float64("min_ms", res.MinMs()))
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) throughputTrials(ctx context.Context, model embedding.Embedder) ([]*models.ThroughputResult, error) {
	results := make([]*models.ThroughputResult, 0, len(r.opts.ThroughputCounts))
	for _, count := range r.opts.ThroughputCounts {
		texts, err := Cycle(r.corpus, count)
		if err != nil {
			return nil, err
		}
		if len(texts) == 0 {
			continue
		}
		start := r.now()
		vecs, err := embedding.EmbedInBatches(ctx, model, texts, r.opts.BatchSize)
		elapsed := r.since(start)
		if err != nil {
			return nil, fmt.Errorf("throughput %d docs: %w", count, err)
		}
		if len(vecs) != count {
			return nil, fmt.Errorf("throughput %d docs: got %d vectors", count, len(vecs))
		}
		res := &models.ThroughputResult{
			Count:   count,
			Elapsed: elapsed,
			Rate:    Rate(count, elapsed),
		}
		r.logger.Debug("throughput trial",
			zap.Int("count", count),
			zap.Float64("docs_per_sec", res.Rate),
			zap.Float64("elapsed_ms", res.ElapsedMs()))
		results = append(results, res)
	}
	return results, nil
}
