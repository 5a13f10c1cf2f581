// Package corpus builds benchmark corpora from document files.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrNoText is returned when the given files contain no usable text.
var ErrNoText = errors.New("corpus: no text found")

// DefaultMaxWords is the window size used when a Loader is created with maxWords <= 0.
const DefaultMaxWords = 256

// Loader turns files into corpus texts, one text per paragraph, page, or row.
type Loader struct {
	maxWords int
}

// NewLoader returns a Loader that splits units longer than maxWords into consecutive windows.
func NewLoader(maxWords int) *Loader {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Loader{maxWords: maxWords}
}

// LoadFiles returns the texts of every file in order. It fails on the first unreadable
// file, and with ErrNoText when nothing usable was extracted.
func (l *Loader) LoadFiles(paths []string) ([]string, error) {
	var texts []string
	for _, path := range paths {
		units, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, units...)
	}
	if len(texts) == 0 {
		return nil, ErrNoText
	}
	return texts, nil
}

// Load returns the normalized texts of a single file.
func (l *Loader) Load(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	units, err := l.units(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var texts []string
	for _, u := range units {
		texts = append(texts, Split(Normalize(u), l.maxWords)...)
	}
	return texts, nil
}

func (l *Loader) units(content []byte, ext string) ([]string, error) {
	switch ext {
	case ".pdf":
		return pdfPages(content)
	case ".docx":
		return docxParagraphs(content)
	case ".xlsx":
		return excelRows(content)
	default:
		return plainParagraphs(content), nil
	}
}

// Normalize trims text and collapses every whitespace run to a single space.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// Split breaks text into consecutive windows of at most maxWords words.
// Empty text yields no windows.
func Split(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWords <= 0 || len(words) <= maxWords {
		return []string{strings.Join(words, " ")}
	}
	out := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for i := 0; i < len(words); i += maxWords {
		end := min(i+maxWords, len(words))
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}
