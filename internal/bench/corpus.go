// Package bench measures load time, single-document latency and batched throughput of
// an embedding model.
package bench

import (
	"errors"
)

// ErrEmptyCorpus is returned when a trial needs texts and the corpus has none.
var ErrEmptyCorpus = errors.New("bench: empty corpus")

// DefaultCorpus is the built-in sample corpus.
var DefaultCorpus = []string{
	"Machine learning is a subset of artificial intelligence that enables systems to learn from data.",
	"Ruby on Rails is a server-side web application framework written in Ruby under the MIT License.",
	"Vector databases store embeddings and enable fast similarity search across millions of documents.",
	"Natural language processing helps computers understand, interpret, and generate human language.",
	"The quick brown fox jumps over the lazy dog. This is a classic pangram used in typing tests.",
}

// Cycle returns exactly count texts by repeating corpus in order: element i is
// corpus[i % len(corpus)].
func Cycle(corpus []string, count int) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	out := make([]string, count)
	for i := range out {
		out[i] = corpus[i%len(corpus)]
	}
	return out, nil
}
