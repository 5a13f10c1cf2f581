// Package cli formats benchmark reports, run history and the model catalog for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/embedbench/internal/embedding"
	"github.com/hyperjump/embedbench/internal/models"
	"github.com/hyperjump/embedbench/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format name. The empty string selects OutputText.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

var banner = strings.Repeat("=", 60)

// WriteReport writes a benchmark report to w in the given format.
func WriteReport(w io.Writer, report *models.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	return writeReportText(w, report)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReportText(w io.Writer, report *models.Report) error {
	var b strings.Builder
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "EMBEDDING BENCHMARK")
	fmt.Fprintln(&b, banner)
	fmt.Fprintf(&b, "Model: %s (%s)\n", report.Model, report.Backend)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Model load time: %.1fms\n", report.LoadTimeMs())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Single document latency:")
	for _, l := range report.Latency {
		fmt.Fprintf(&b, "  Text %d (%d chars): avg %.2fms, min %.2fms\n", l.Index, l.Chars, l.AverageMs(), l.MinMs())
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Throughput:")
	for _, t := range report.Throughput {
		fmt.Fprintf(&b, "  %d docs: %.1f docs/sec (%.1fms)\n", t.Count, t.Rate, t.ElapsedMs())
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, banner)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteRuns writes a page of stored runs. total is the number of runs in the history.
func WriteRuns(w io.Writer, runs []*models.RunSummary, total int, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			Runs  []*models.RunSummary `json:"runs"`
			Total int                  `json:"total"`
		}{Runs: runs, Total: total})
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %d runs\n", len(runs), total)
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %s  %-40s %-7s batch=%-4d load=%.1fms\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			utils.Truncate(r.Model, 40), r.Backend, r.BatchSize, r.LoadTimeMs)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteModels writes the model catalog.
func WriteModels(w io.Writer, infos []embedding.ModelInfo, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, infos)
	}
	var b strings.Builder
	for _, m := range infos {
		fmt.Fprintf(&b, "%-40s %-7s %5d dims  %s\n", m.Name, m.Backend, m.Dimensions, m.Description)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
