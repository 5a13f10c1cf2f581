// Package config provides configuration loading and structs for embedbench.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Output    OutputConfig    `yaml:"output"`
	History   HistoryConfig   `yaml:"history"`
	Server    ServerConfig    `yaml:"server"`
}

// EmbeddingConfig selects and configures the model under test.
type EmbeddingConfig struct {
	Model          string       `yaml:"model"`
	Backend        string       `yaml:"backend"`   // auto, onnx, openai, mock
	ModelDir       string       `yaml:"model_dir"` // one directory per model (model.onnx, vocab.txt)
	RuntimeLibrary string       `yaml:"runtime_library"`
	Dimensions     int          `yaml:"dimensions"`
	MaxTokens      int          `yaml:"max_tokens"`
	CacheSize      int          `yaml:"cache_size"`
	OpenAI         OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds settings for OpenAI-compatible embedding endpoints.
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// ResolveAPIKey returns the configured key, or the value of APIKeyEnv when the key is empty.
func (o *OpenAIConfig) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	if o.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(o.APIKeyEnv)
}

// BenchmarkConfig holds the trial parameters.
type BenchmarkConfig struct {
	LatencyTexts     int      `yaml:"latency_texts"`
	Repetitions      int      `yaml:"repetitions"`
	ThroughputCounts []int    `yaml:"throughput_counts"`
	BatchSize        int      `yaml:"batch_size"`
	WarmupText       string   `yaml:"warmup_text"`
	Corpus           []string `yaml:"corpus"`
	CorpusFiles      []string `yaml:"corpus_files"`
	CorpusMaxWords   int      `yaml:"corpus_max_words"` // long paragraphs from corpus files are split
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
}

// HistoryConfig holds the optional run history database.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// Enabled reports whether runs should be recorded.
func (h *HistoryConfig) Enabled() bool {
	return h.DatabasePath != ""
}

// ServerConfig holds HTTP server settings for the history API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns a config with every default applied, used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Embedding.ModelDir = expandPath(cfg.Embedding.ModelDir, ".")
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Embedding.ModelDir = expandPath(cfg.Embedding.ModelDir, configDir)
	if cfg.Embedding.RuntimeLibrary != "" {
		cfg.Embedding.RuntimeLibrary = expandPath(cfg.Embedding.RuntimeLibrary, configDir)
	}
	if cfg.History.DatabasePath != "" {
		cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	}
	for i := range cfg.Benchmark.CorpusFiles {
		cfg.Benchmark.CorpusFiles[i] = expandPath(cfg.Benchmark.CorpusFiles[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" is relative to the home directory; other relative paths are left as given.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
