package embedding

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BERT special token IDs used when no vocabulary is loaded. Padding is always ID 0.
const (
	defaultUNKID = 100
	defaultCLSID = 101
	defaultSEPID = 102
)

// Tokenizer produces token IDs for BERT-style models, including [CLS] and [SEP],
// truncated to at most maxTokens.
type Tokenizer interface {
	Encode(text string, maxTokens int) []int64
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs, used when a model
// ships without a vocabulary.
type SimpleTokenizer struct{}

// Encode splits text into words and maps each to a hash-derived ID.
func (t *SimpleTokenizer) Encode(text string, maxTokens int) []int64 {
	if maxTokens < 2 {
		maxTokens = 2
	}
	words := strings.Fields(text)
	ids := make([]int64, 0, min(len(words)+2, maxTokens))
	ids = append(ids, defaultCLSID)
	for _, word := range words {
		if len(ids) >= maxTokens-1 {
			break
		}
		ids = append(ids, int64(HashString(word)%30000))
	}
	return append(ids, defaultSEPID)
}

// WordPieceTokenizer implements uncased BERT tokenization over a vocab.txt file.
type WordPieceTokenizer struct {
	vocab         map[string]int64
	unkID         int64
	clsID         int64
	sepID         int64
	maxWordLength int
}

// NewWordPieceTokenizer builds a tokenizer from an in-memory vocabulary (token -> id).
func NewWordPieceTokenizer(vocab map[string]int64) *WordPieceTokenizer {
	t := &WordPieceTokenizer{
		vocab:         vocab,
		unkID:         defaultUNKID,
		clsID:         defaultCLSID,
		sepID:         defaultSEPID,
		maxWordLength: 100,
	}
	if id, ok := vocab["[UNK]"]; ok {
		t.unkID = id
	}
	if id, ok := vocab["[CLS]"]; ok {
		t.clsID = id
	}
	if id, ok := vocab["[SEP]"]; ok {
		t.sepID = id
	}
	return t
}

// LoadVocab reads a vocab.txt file where the line number is the token ID.
func LoadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r")
		if token != "" {
			vocab[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab %s is empty", path)
	}
	return vocab, nil
}

// Encode lowercases, strips accents, splits on whitespace and punctuation, then applies
// greedy longest-match WordPiece.
func (t *WordPieceTokenizer) Encode(text string, maxTokens int) []int64 {
	if maxTokens < 2 {
		maxTokens = 2
	}
	ids := []int64{t.clsID}
	for _, word := range basicTokenize(text) {
		for _, id := range t.wordPiece(word) {
			if len(ids) >= maxTokens-1 {
				return append(ids, t.sepID)
			}
			ids = append(ids, id)
		}
	}
	return append(ids, t.sepID)
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	chars := []rune(word)
	if len(chars) > t.maxWordLength {
		return []int64{t.unkID}
	}
	var out []int64
	for start := 0; start < len(chars); {
		end := len(chars)
		found := int64(-1)
		for end > start {
			piece := string(chars[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unkID}
		}
		out = append(out, found)
		start = end
	}
	return out
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// basicTokenize lowercases and strips accents, then splits on whitespace, punctuation
// and CJK ideographs.
func basicTokenize(text string) []string {
	lowered := strings.ToLower(text)
	if s, _, err := transform.String(stripAccents, lowered); err == nil {
		lowered = s
	}
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range lowered {
		switch {
		case r == 0 || r == unicode.ReplacementChar || (unicode.IsControl(r) && !unicode.IsSpace(r)):
			continue
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || unicode.Is(unicode.Han, r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// isPunctuation treats all non-alphanumeric ASCII as punctuation, like BERT does.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// PadBatch encodes texts and pads them to the longest sequence in the batch.
// It returns flattened row-major input_ids, attention_mask and token_type_ids of
// shape [len(texts), seqLen].
func PadBatch(tok Tokenizer, texts []string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, seqLen int) {
	encoded := make([][]int64, len(texts))
	for i, text := range texts {
		encoded[i] = tok.Encode(text, maxTokens)
		seqLen = max(seqLen, len(encoded[i]))
	}
	n := len(texts) * seqLen
	inputIDs = make([]int64, n)
	attentionMask = make([]int64, n)
	tokenTypeIDs = make([]int64, n)
	for i, ids := range encoded {
		row := i * seqLen
		for j, id := range ids {
			inputIDs[row+j] = id
			attentionMask[row+j] = 1
		}
	}
	return inputIDs, attentionMask, tokenTypeIDs, seqLen
}

// HashString returns a deterministic hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	return h & math.MaxInt
}
