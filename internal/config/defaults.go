package config

// Defaults mirror the reference benchmark: bge-small, 3 texts x 10 repetitions,
// 100/500/1000 documents at batch size 64.
const (
	DefaultModel        = "BAAI/bge-small-en-v1.5"
	DefaultBackend      = "auto"
	DefaultLatencyTexts = 3
	DefaultRepetitions  = 10
	DefaultBatchSize    = 64
	DefaultWarmupText   = "warmup"
)

// DefaultThroughputCounts returns a fresh copy of the default document counts.
func DefaultThroughputCounts() []int {
	return []int{100, 500, 1000}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultModel
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = DefaultBackend
	}
	if cfg.Embedding.ModelDir == "" {
		cfg.Embedding.ModelDir = "~/.cache/embedbench/models"
	}
	if cfg.Embedding.OpenAI.APIKeyEnv == "" {
		cfg.Embedding.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	// Dimensions, MaxTokens and CacheSize stay zero: zero means "use the model catalog"
	// for the first two and "no cache" for the last.
	if cfg.Benchmark.LatencyTexts == 0 {
		cfg.Benchmark.LatencyTexts = DefaultLatencyTexts
	}
	if cfg.Benchmark.Repetitions == 0 {
		cfg.Benchmark.Repetitions = DefaultRepetitions
	}
	if cfg.Benchmark.ThroughputCounts == nil {
		cfg.Benchmark.ThroughputCounts = DefaultThroughputCounts()
	}
	if cfg.Benchmark.BatchSize == 0 {
		cfg.Benchmark.BatchSize = DefaultBatchSize
	}
	if cfg.Benchmark.WarmupText == "" {
		cfg.Benchmark.WarmupText = DefaultWarmupText
	}
	if cfg.Benchmark.CorpusMaxWords == 0 {
		cfg.Benchmark.CorpusMaxWords = 256
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
}
