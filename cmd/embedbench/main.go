// Package main is the embedbench CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/embedbench/internal/bench"
	"github.com/hyperjump/embedbench/internal/cli"
	"github.com/hyperjump/embedbench/internal/config"
	"github.com/hyperjump/embedbench/internal/corpus"
	"github.com/hyperjump/embedbench/internal/embedding"
	"github.com/hyperjump/embedbench/internal/server"
	"github.com/hyperjump/embedbench/internal/storage"
	"github.com/hyperjump/embedbench/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/embedbench/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence; when neither exists the built-in defaults are used and the
// returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	args := os.Args[1:]
	command := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = runBenchmark(ctx, args, os.Stdout)
		stop()
	case "history":
		err = runHistory(args, os.Stdout)
	case "serve":
		err = runServe(args)
	case "models":
		err = runModels(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("embedbench version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runFlags holds the command-line overrides for a benchmark run.
type runFlags struct {
	configPath string
	model      string
	backend    string
	batchSize  int
	output     string
	corpus     string
	history    string
	debug      bool
}

func parseRunFlags(args []string) (*runFlags, error) {
	f := &runFlags{}
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", defaultConfigPath, "config file path")
	fs.StringVar(&f.model, "model", "", "model name (default from config, or "+config.DefaultModel+")")
	fs.StringVar(&f.backend, "backend", "", "embedding backend: auto, onnx, openai, or mock")
	fs.IntVar(&f.batchSize, "batch-size", 0, "batch size for throughput trials")
	fs.StringVar(&f.output, "output", "", "output format: text or json")
	fs.StringVar(&f.corpus, "corpus", "", "comma-separated document files to use as the corpus")
	fs.StringVar(&f.history, "history", "", "SQLite database to record the run in")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return f, nil
}

// apply copies every set flag into cfg.
func (f *runFlags) apply(cfg *config.Config) {
	if f.model != "" {
		cfg.Embedding.Model = f.model
	}
	if f.backend != "" {
		cfg.Embedding.Backend = f.backend
	}
	if f.batchSize > 0 {
		cfg.Benchmark.BatchSize = f.batchSize
	}
	if f.output != "" {
		cfg.Output.Format = f.output
	}
	if f.corpus != "" {
		var files []string
		for _, p := range strings.Split(f.corpus, ",") {
			if p = strings.TrimSpace(p); p != "" {
				files = append(files, p)
			}
		}
		cfg.Benchmark.CorpusFiles = files
	}
	if f.history != "" {
		cfg.History.DatabasePath = f.history
	}
	if f.debug {
		cfg.Debug = true
	}
}

// selectCorpus returns the corpus files' texts, else the configured texts, else the built-in corpus.
func selectCorpus(cfg *config.Config) ([]string, error) {
	if len(cfg.Benchmark.CorpusFiles) > 0 {
		texts, err := corpus.NewLoader(cfg.Benchmark.CorpusMaxWords).LoadFiles(cfg.Benchmark.CorpusFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		return texts, nil
	}
	if len(cfg.Benchmark.Corpus) > 0 {
		return cfg.Benchmark.Corpus, nil
	}
	return bench.DefaultCorpus, nil
}

func embeddingOptions(cfg *config.Config, logger *zap.Logger) embedding.Options {
	return embedding.Options{
		Backend:        cfg.Embedding.Backend,
		ModelDir:       cfg.Embedding.ModelDir,
		RuntimeLibrary: cfg.Embedding.RuntimeLibrary,
		Dimensions:     cfg.Embedding.Dimensions,
		MaxTokens:      cfg.Embedding.MaxTokens,
		CacheSize:      cfg.Embedding.CacheSize,
		OpenAIAPIKey:   cfg.Embedding.OpenAI.ResolveAPIKey(),
		OpenAIBaseURL:  cfg.Embedding.OpenAI.BaseURL,
		Logger:         logger,
	}
}

func runBenchmark(ctx context.Context, args []string, stdout io.Writer) error {
	flags, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	cfg, resolvedConfigPath, err := loadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags.apply(cfg)

	format, err := cli.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("model", cfg.Embedding.Model),
		zap.String("backend", cfg.Embedding.Backend))

	texts, err := selectCorpus(cfg)
	if err != nil {
		return err
	}

	// Open the history before the run so a bad path fails fast.
	var store storage.Storage
	if cfg.History.Enabled() {
		s, err := storage.NewSQLiteStorage(cfg.History.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
		defer s.Close()
		store = s
	}

	runner := bench.NewRunner(texts, bench.Options{
		Model:            cfg.Embedding.Model,
		LatencyTexts:     cfg.Benchmark.LatencyTexts,
		Repetitions:      cfg.Benchmark.Repetitions,
		ThroughputCounts: cfg.Benchmark.ThroughputCounts,
		BatchSize:        cfg.Benchmark.BatchSize,
		WarmupText:       cfg.Benchmark.WarmupText,
	}, bench.WithLogger(logger))

	opts := embeddingOptions(cfg, logger)
	report, err := runner.Run(ctx, func(ctx context.Context) (embedding.Embedder, string, error) {
		return embedding.New(cfg.Embedding.Model, opts)
	})
	if err != nil {
		return err
	}

	if err := cli.WriteReport(stdout, report, format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if store != nil {
		if err := store.SaveRun(ctx, report); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		logger.Info("run recorded", zap.String("run_id", report.ID), zap.String("database", cfg.History.DatabasePath))
	}
	return nil
}

// openHistory loads config and opens the configured history database.
func openHistory(configPath, dbPath string) (*config.Config, *storage.SQLiteStorage, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.History.DatabasePath = dbPath
	}
	if !cfg.History.Enabled() {
		return nil, nil, errors.New("no history database configured (set history.database_path or pass -history)")
	}
	store, err := storage.NewSQLiteStorage(cfg.History.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return cfg, store, nil
}

func runHistory(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dbPath := fs.String("history", "", "SQLite history database (default from config)")
	limit := fs.Int("limit", 20, "number of runs to show")
	offset := fs.Int("offset", 0, "number of newest runs to skip")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseFormat(*output)
	if err != nil {
		return err
	}
	_, store, err := openHistory(*configPath, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	// A run ID argument prints that run's full report.
	if fs.NArg() > 0 {
		report, err := store.GetRun(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		return cli.WriteReport(stdout, report, format)
	}
	runs, err := store.ListRuns(ctx, *offset, *limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	total, err := store.CountRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	return cli.WriteRuns(stdout, runs, int(total), format)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dbPath := fs.String("history", "", "SQLite history database (default from config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, store, err := openHistory(*configPath, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	srv := server.NewServer(store, &cfg.Server, store.Path(), logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func runModels(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseFormat(*output)
	if err != nil {
		return err
	}
	return cli.WriteModels(stdout, embedding.Models(), format)
}

func printUsage() {
	fmt.Println(`embedbench - Text embedding model benchmark

Usage:
  embedbench [run] [flags]          Run the benchmark (default command)
  embedbench history [flags] [id]   List recorded runs, or show one run
  embedbench serve [flags]          Serve the run history over HTTP
  embedbench models [flags]         List known models
  embedbench version                Show version
  embedbench help                   Show this help

Run Flags:
  --config string      Config file path (default: /usr/local/etc/embedbench/config.yaml, or ./config.yaml)
  --model string       Model name (default: BAAI/bge-small-en-v1.5)
  --backend string     Embedding backend: auto, onnx, openai, or mock (default: auto)
  --batch-size int     Batch size for throughput trials (default: 64)
  --output string      Output format: text or json (default: text)
  --corpus string      Comma-separated .txt/.md/.pdf/.docx/.xlsx files to use as the corpus
  --history string     SQLite database to record the run in
  --debug              Enable debug logging

History Flags:
  --config string    Config file path
  --history string   SQLite history database (default from config)
  --limit int        Number of runs to show (default: 20)
  --offset int       Number of newest runs to skip
  --output string    Output format: text or json

Serve Flags:
  --config string    Config file path (server.host, server.port)
  --history string   SQLite history database (default from config)
  --debug            Enable debug logging

Examples:
  embedbench
  embedbench --model sentence-transformers/all-MiniLM-L6-v2
  embedbench --backend openai --model text-embedding-3-small
  embedbench --corpus docs/intro.md,docs/manual.pdf --history runs.db
  embedbench history --history runs.db
  embedbench serve --history runs.db`)
}
