//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a BERT-style encoder with ONNX Runtime. It requires CGO and the
// onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.DynamicAdvancedSession
	info       ModelInfo
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer
	mu         sync.Mutex
}

var ortInitMu sync.Mutex

func initializeRuntime(libraryPath string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// NewONNXEmbedder loads the model file and vocabulary and creates an inference session.
// A missing vocabulary falls back to SimpleTokenizer.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	if err := initializeRuntime(opts.RuntimeLibrary); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	var tokenizer Tokenizer = &SimpleTokenizer{}
	if opts.VocabPath != "" {
		vocab, err := LoadVocab(opts.VocabPath)
		switch {
		case err == nil:
			tokenizer = NewWordPieceTokenizer(vocab)
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		opts.Info.InputNames, []string{opts.Info.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = opts.Info.MaxTokens
	}
	return &ONNXEmbedder{
		session:    session,
		info:       opts.Info,
		dimensions: opts.Info.Dimensions,
		maxTokens:  maxTokens,
		tokenizer:  tokenizer,
	}, nil
}

// Embed returns the embedding for text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch runs one inference over all texts, padded to the longest sequence.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx embedder is closed")
	}

	inputIDs, attentionMask, tokenTypeIDs, seqLen := PadBatch(e.tokenizer, texts, e.maxTokens)
	shape := ort.NewShape(int64(len(texts)), int64(seqLen))

	byName := map[string][]int64{
		"input_ids":      inputIDs,
		"attention_mask": attentionMask,
		"token_type_ids": tokenTypeIDs,
	}
	inputs := make([]ort.Value, 0, len(e.info.InputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range e.info.InputNames {
		data, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unsupported model input %q", name)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(len(texts)), int64(seqLen), int64(e.dimensions)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := e.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return Pool(output.GetData(), attentionMask, len(texts), seqLen, e.dimensions, e.info.Pooling), nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
