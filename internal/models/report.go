// Package models defines the data structures produced by a benchmark run.
package models

import "time"

// Report is the full result of one benchmark run.
type Report struct {
	ID         string              `json:"id"`
	Model      string              `json:"model"`
	Backend    string              `json:"backend"`
	Dimensions int                 `json:"dimensions"`
	BatchSize  int                 `json:"batch_size"`
	CorpusSize int                 `json:"corpus_size"`
	StartedAt  time.Time           `json:"started_at"`
	LoadTime   float64             `json:"load_time_seconds"`
	Latency    []*LatencyResult    `json:"latency"`
	Throughput []*ThroughputResult `json:"throughput"`
}

// LoadTimeMs returns the model load time in milliseconds.
func (r *Report) LoadTimeMs() float64 {
	return r.LoadTime * 1000
}

// LatencyResult holds the single-document timings for one corpus text.
// Samples are in seconds, one per repetition.
type LatencyResult struct {
	Index   int       `json:"index"`
	Chars   int       `json:"chars"`
	Average float64   `json:"avg_seconds"`
	Min     float64   `json:"min_seconds"`
	Samples []float64 `json:"samples_seconds,omitempty"`
}

// AverageMs returns the average latency in milliseconds.
func (l *LatencyResult) AverageMs() float64 {
	return l.Average * 1000
}

// MinMs returns the minimum latency in milliseconds.
func (l *LatencyResult) MinMs() float64 {
	return l.Min * 1000
}

// ThroughputResult holds the timing of one batched call over Count documents.
type ThroughputResult struct {
	Count   int     `json:"count"`
	Elapsed float64 `json:"elapsed_seconds"`
	Rate    float64 `json:"docs_per_second"`
}

// ElapsedMs returns the elapsed time in milliseconds.
func (t *ThroughputResult) ElapsedMs() float64 {
	return t.Elapsed * 1000
}

// RunSummary is the listing view of a stored report.
type RunSummary struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Backend    string    `json:"backend"`
	BatchSize  int       `json:"batch_size"`
	LoadTimeMs float64   `json:"load_time_ms"`
	StartedAt  time.Time `json:"started_at"`
}
