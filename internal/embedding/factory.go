package embedding

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Options configures New.
type Options struct {
	Backend        string
	ModelDir       string
	RuntimeLibrary string
	Dimensions     int
	MaxTokens      int
	CacheSize      int
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	Logger         *zap.Logger
}

// ResolveModel returns the model description and concrete backend for name.
// Unknown names are accepted for the mock and openai backends, and for onnx when
// Dimensions is set.
func ResolveModel(name, backend string, dimensions int) (ModelInfo, string, error) {
	if backend == "" {
		backend = BackendAuto
	}
	info, err := LookupModel(name)
	known := err == nil

	switch backend {
	case BackendAuto:
		if !known {
			return ModelInfo{}, "", err
		}
		backend = info.Backend
	case BackendMock:
		if !known {
			info = ModelInfo{Name: name, Dimensions: 384, MaxTokens: 512, Pooling: PoolingMean}
		}
	case BackendOpenAI:
		if !known {
			info = ModelInfo{Name: name, Backend: BackendOpenAI}
		} else if info.Backend != BackendOpenAI {
			return ModelInfo{}, "", fmt.Errorf("model %s is not served by the openai backend", name)
		}
	case BackendONNX:
		if !known {
			if dimensions <= 0 {
				return ModelInfo{}, "", fmt.Errorf("%w: %s (set embedding.dimensions to load it with onnx)", ErrUnknownModel, name)
			}
			info = ModelInfo{
				Name: name, Backend: BackendONNX, MaxTokens: 512, Pooling: PoolingMean,
				ModelFile: "model.onnx", VocabFile: "vocab.txt",
				InputNames: bertInputs, OutputName: "last_hidden_state",
			}
		} else if info.Backend != BackendONNX {
			return ModelInfo{}, "", fmt.Errorf("model %s is not an onnx model", name)
		}
	default:
		return ModelInfo{}, "", fmt.Errorf("unsupported embedding backend: %s", backend)
	}

	if dimensions > 0 {
		info.Dimensions = dimensions
	}
	return info, backend, nil
}

// New constructs the embedder for name. Construction errors are returned as-is; there
// is no fallback to another backend.
func New(name string, opts Options) (Embedder, string, error) {
	info, backend, err := ResolveModel(name, opts.Backend, opts.Dimensions)
	if err != nil {
		return nil, "", err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var e Embedder
	switch backend {
	case BackendMock:
		e = NewMockEmbedder(info.Dimensions)
	case BackendOpenAI:
		e, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:             opts.OpenAIAPIKey,
			BaseURL:            opts.OpenAIBaseURL,
			Model:              info.Name,
			Dimensions:         info.Dimensions,
			DimensionsOverride: opts.Dimensions > 0,
		})
	case BackendONNX:
		dir := filepath.Join(opts.ModelDir, ModelSlug(info.Name))
		var vocabPath string
		if info.VocabFile != "" {
			vocabPath = filepath.Join(dir, info.VocabFile)
		}
		logger.Debug("loading onnx model",
			zap.String("model", info.Name),
			zap.String("dir", dir),
			zap.Int("dimensions", info.Dimensions))
		e, err = NewONNXEmbedder(ONNXOptions{
			Info:           info,
			ModelPath:      filepath.Join(dir, info.ModelFile),
			VocabPath:      vocabPath,
			RuntimeLibrary: opts.RuntimeLibrary,
			MaxTokens:      opts.MaxTokens,
		})
	}
	if err != nil {
		return nil, "", fmt.Errorf("load model %s (%s): %w", info.Name, backend, err)
	}
	return WithCache(e, opts.CacheSize), backend, nil
}
