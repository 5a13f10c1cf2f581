package embedding

import (
	"fmt"
	"sort"
	"strings"
)

// Backend names accepted by New.
const (
	BackendAuto   = "auto"
	BackendONNX   = "onnx"
	BackendOpenAI = "openai"
	BackendMock   = "mock"
)

// Pooling selects how token states are reduced to one vector.
type Pooling string

const (
	PoolingCLS  Pooling = "cls"
	PoolingMean Pooling = "mean"
)

// ModelInfo describes a model the benchmark knows how to load.
type ModelInfo struct {
	Name        string   `json:"name"`
	Backend     string   `json:"backend"`
	Dimensions  int      `json:"dimensions"`
	MaxTokens   int      `json:"max_tokens"`
	Pooling     Pooling  `json:"pooling,omitempty"`
	ModelFile   string   `json:"model_file,omitempty"`
	VocabFile   string   `json:"vocab_file,omitempty"`
	InputNames  []string `json:"input_names,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
	Description string   `json:"description"`
}

var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

var catalog = map[string]ModelInfo{
	"BAAI/bge-small-en-v1.5": {
		Name: "BAAI/bge-small-en-v1.5", Backend: BackendONNX, Dimensions: 384, MaxTokens: 512,
		Pooling: PoolingCLS, ModelFile: "model.onnx", VocabFile: "vocab.txt",
		InputNames: bertInputs, OutputName: "last_hidden_state",
		Description: "English BGE small, CLS pooling",
	},
	"BAAI/bge-base-en-v1.5": {
		Name: "BAAI/bge-base-en-v1.5", Backend: BackendONNX, Dimensions: 768, MaxTokens: 512,
		Pooling: PoolingCLS, ModelFile: "model.onnx", VocabFile: "vocab.txt",
		InputNames: bertInputs, OutputName: "last_hidden_state",
		Description: "English BGE base, CLS pooling",
	},
	"sentence-transformers/all-MiniLM-L6-v2": {
		Name: "sentence-transformers/all-MiniLM-L6-v2", Backend: BackendONNX, Dimensions: 384, MaxTokens: 256,
		Pooling: PoolingMean, ModelFile: "model.onnx", VocabFile: "vocab.txt",
		InputNames: bertInputs, OutputName: "last_hidden_state",
		Description: "MiniLM L6, mean pooling",
	},
	"text-embedding-3-small": {
		Name: "text-embedding-3-small", Backend: BackendOpenAI, Dimensions: 1536, MaxTokens: 8191,
		Description: "OpenAI API",
	},
	"text-embedding-3-large": {
		Name: "text-embedding-3-large", Backend: BackendOpenAI, Dimensions: 3072, MaxTokens: 8191,
		Description: "OpenAI API",
	},
}

// LookupModel returns the catalog entry for name.
func LookupModel(name string) (ModelInfo, error) {
	info, ok := catalog[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return info, nil
}

// Models returns all catalog entries sorted by name.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ModelSlug turns a model name into a directory name ("BAAI/bge-small-en-v1.5" -> "BAAI--bge-small-en-v1.5").
func ModelSlug(name string) string {
	return strings.ReplaceAll(name, "/", "--")
}
