package embedding

// ONNXOptions configures NewONNXEmbedder.
type ONNXOptions struct {
	Info           ModelInfo
	ModelPath      string
	VocabPath      string
	RuntimeLibrary string
	MaxTokens      int
}
