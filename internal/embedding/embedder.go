// Package embedding provides the text embedding backends exercised by the benchmark:
// ONNX Runtime models, OpenAI-compatible endpoints, and a deterministic mock.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds texts as one unit of work. Order of the result matches texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

var (
	// ErrEmptyInput is returned when there is nothing to embed.
	ErrEmptyInput = errors.New("embedding: empty input")
	// ErrUnknownModel is returned when a model name is not in the catalog.
	ErrUnknownModel = errors.New("embedding: unknown model")
)

// EmbedInBatches splits texts into consecutive chunks of at most batchSize and calls
// EmbedBatch once per chunk. A batchSize <= 0 sends everything as a single chunk.
func EmbedInBatches(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(i+batchSize, len(texts))
		vecs, err := e.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors", i, end, len(vecs))
		}
		result = append(result, vecs...)
	}
	return result, nil
}
