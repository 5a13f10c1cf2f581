package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  model: "sentence-transformers/all-MiniLM-L6-v2"
  backend: onnx
benchmark:
  batch_size: 32
  throughput_counts: [10, 20]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Model != "sentence-transformers/all-MiniLM-L6-v2" || cfg.Embedding.Backend != "onnx" {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Benchmark.BatchSize != 32 {
		t.Errorf("batch_size = %d, want 32", cfg.Benchmark.BatchSize)
	}
	if !reflect.DeepEqual(cfg.Benchmark.ThroughputCounts, []int{10, 20}) {
		t.Errorf("throughput_counts = %v", cfg.Benchmark.ThroughputCounts)
	}
	if cfg.Benchmark.Repetitions != DefaultRepetitions {
		t.Errorf("repetitions should default to %d, got %d", DefaultRepetitions, cfg.Benchmark.Repetitions)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("benchmark: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  model_dir: "./models"
history:
  database_path: "./data/runs.db"
benchmark:
  corpus_files: ["./docs/a.md", "/abs/b.pdf"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "models"); cfg.Embedding.ModelDir != want {
		t.Errorf("model_dir = %s, want %s", cfg.Embedding.ModelDir, want)
	}
	if want := filepath.Join(dir, "data", "runs.db"); cfg.History.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.History.DatabasePath, want)
	}
	if len(cfg.Benchmark.CorpusFiles) != 2 {
		t.Fatalf("corpus files: got %d", len(cfg.Benchmark.CorpusFiles))
	}
	if want := filepath.Join(dir, "docs", "a.md"); cfg.Benchmark.CorpusFiles[0] != want {
		t.Errorf("corpus_files[0] = %s, want %s", cfg.Benchmark.CorpusFiles[0], want)
	}
	if cfg.Benchmark.CorpusFiles[1] != "/abs/b.pdf" {
		t.Errorf("absolute path should be unchanged, got %s", cfg.Benchmark.CorpusFiles[1])
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Embedding.Model != "BAAI/bge-small-en-v1.5" {
		t.Errorf("default model: got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Backend != "auto" {
		t.Errorf("default backend: got %s", cfg.Embedding.Backend)
	}
	if cfg.Benchmark.LatencyTexts != 3 || cfg.Benchmark.Repetitions != 10 {
		t.Errorf("latency defaults: texts=%d reps=%d", cfg.Benchmark.LatencyTexts, cfg.Benchmark.Repetitions)
	}
	if !reflect.DeepEqual(cfg.Benchmark.ThroughputCounts, []int{100, 500, 1000}) {
		t.Errorf("default throughput counts: got %v", cfg.Benchmark.ThroughputCounts)
	}
	if cfg.Benchmark.BatchSize != 64 {
		t.Errorf("default batch size: got %d", cfg.Benchmark.BatchSize)
	}
	if cfg.Benchmark.WarmupText != "warmup" {
		t.Errorf("default warmup text: got %q", cfg.Benchmark.WarmupText)
	}
	if cfg.Embedding.CacheSize != 0 {
		t.Errorf("cache must stay disabled by default, got %d", cfg.Embedding.CacheSize)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("default output format: got %s", cfg.Output.Format)
	}
	if cfg.History.Enabled() {
		t.Error("history should be disabled by default")
	}
}

func TestApplyDefaults_keepsExplicitEmptyCounts(t *testing.T) {
	cfg := &Config{Benchmark: BenchmarkConfig{ThroughputCounts: []int{}}}
	ApplyDefaults(cfg)
	if len(cfg.Benchmark.ThroughputCounts) != 0 {
		t.Errorf("explicit empty list should disable throughput trials, got %v", cfg.Benchmark.ThroughputCounts)
	}
}

func TestOpenAIConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv("EMBEDBENCH_TEST_KEY", "from-env")
	t.Run("explicit key wins", func(t *testing.T) {
		o := &OpenAIConfig{APIKey: "explicit", APIKeyEnv: "EMBEDBENCH_TEST_KEY"}
		if got := o.ResolveAPIKey(); got != "explicit" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("env fallback", func(t *testing.T) {
		o := &OpenAIConfig{APIKeyEnv: "EMBEDBENCH_TEST_KEY"}
		if got := o.ResolveAPIKey(); got != "from-env" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("nothing configured", func(t *testing.T) {
		o := &OpenAIConfig{}
		if got := o.ResolveAPIKey(); got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := Default()
	cfg.Benchmark.BatchSize = 16
	cfg.History.DatabasePath = "/tmp/runs.db"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Benchmark.BatchSize != 16 {
		t.Errorf("loaded batch size: got %d", loaded.Benchmark.BatchSize)
	}
	if loaded.History.DatabasePath != "/tmp/runs.db" {
		t.Errorf("loaded database path: got %s", loaded.History.DatabasePath)
	}
}
