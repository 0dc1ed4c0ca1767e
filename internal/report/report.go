// Package report renders extraction results for the command line.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/btraven00/ocrlinks/internal/extractor"
	"github.com/btraven00/ocrlinks/internal/links"
)

// Format selects how results are rendered.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHuman, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer renders results to an output stream.
type Writer struct {
	out    io.Writer
	format Format
}

// NewWriter creates a Writer.
func NewWriter(out io.Writer, format Format) *Writer {
	return &Writer{out: out, format: format}
}

// Summary aggregates a batch of results.
type Summary struct {
	FilesProcessed int           `json:"files_processed"`
	FilesFailed    int           `json:"files_failed"`
	TotalURLs      int           `json:"total_urls"`
	UniqueURLs     int           `json:"unique_urls"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Summarize computes the batch summary of results.
func Summarize(results []*extractor.ExtractionResult, elapsed time.Duration) Summary {
	s := Summary{FilesProcessed: len(results), ProcessingTime: elapsed}

	for _, r := range results {
		if !r.OK() {
			s.FilesFailed++
			continue
		}

		s.TotalURLs += len(r.URLs)
	}

	s.UniqueURLs = len(UniqueURLs(results))

	return s
}

// UniqueURLs returns the URLs of all successful results, deduplicated across
// files in first-seen order.
func UniqueURLs(results []*extractor.ExtractionResult) []string {
	var all []string
	for _, r := range results {
		if r.OK() {
			all = append(all, r.URLs...)
		}
	}

	return links.Dedupe(all)
}

// Result renders a single file result.
func (w *Writer) Result(r *extractor.ExtractionResult) error {
	switch w.format {
	case FormatJSON:
		return w.encodeJSON(r)
	case FormatCSV:
		return w.writeCSV([]*extractor.ExtractionResult{r})
	default:
		w.humanResult(r)
		return nil
	}
}

// Batch renders the results of several files followed by a summary.
func (w *Writer) Batch(results []*extractor.ExtractionResult, elapsed time.Duration) error {
	summary := Summarize(results, elapsed)

	switch w.format {
	case FormatJSON:
		return w.encodeJSON(struct {
			Summary Summary                       `json:"summary"`
			Results []*extractor.ExtractionResult `json:"results"`
		}{summary, results})
	case FormatCSV:
		return w.writeCSV(results)
	default:
		for _, r := range results {
			w.humanResult(r)
			fmt.Fprintln(w.out)
		}

		w.humanSummary(results, summary)

		return nil
	}
}

// URLs renders a flat URL list, as used by --unique.
func (w *Writer) URLs(urls []string) error {
	switch w.format {
	case FormatJSON:
		return w.encodeJSON(struct {
			URLs []string `json:"urls"`
		}{urls})
	case FormatCSV:
		writer := csv.NewWriter(w.out)
		if err := writer.Write([]string{"url"}); err != nil {
			return err
		}

		for _, u := range urls {
			if err := writer.Write([]string{u}); err != nil {
				return err
			}
		}

		writer.Flush()

		return writer.Error()
	default:
		for _, u := range urls {
			fmt.Fprintln(w.out, u)
		}

		return nil
	}
}

// Lines renders recognized text lines with their indices.
func (w *Writer) Lines(filename string, lines []links.TextLine) error {
	switch w.format {
	case FormatJSON:
		return w.encodeJSON(struct {
			Filename string           `json:"filename"`
			Lines    []links.TextLine `json:"lines"`
		}{filename, lines})
	case FormatCSV:
		writer := csv.NewWriter(w.out)
		if err := writer.Write([]string{"filename", "index", "text"}); err != nil {
			return err
		}

		for _, l := range lines {
			if err := writer.Write([]string{filename, strconv.Itoa(l.Index), l.Text}); err != nil {
				return err
			}
		}

		writer.Flush()

		return writer.Error()
	default:
		fmt.Fprintf(w.out, "📄 File: %s (%d lines)\n", filename, len(lines))
		for _, l := range lines {
			fmt.Fprintf(w.out, "%4d │ %s\n", l.Index, l.Text)
		}

		return nil
	}
}

func (w *Writer) encodeJSON(v interface{}) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func (w *Writer) writeCSV(results []*extractor.ExtractionResult) error {
	writer := csv.NewWriter(w.out)

	if err := writer.Write([]string{"filename", "source", "url"}); err != nil {
		return err
	}

	for _, r := range results {
		for _, u := range r.URLs {
			if err := writer.Write([]string{r.Filename, string(r.Source), u}); err != nil {
				return err
			}
		}
	}

	writer.Flush()

	return writer.Error()
}

func (w *Writer) humanResult(r *extractor.ExtractionResult) {
	fmt.Fprintf(w.out, "📄 File: %s\n", r.Filename)

	if !r.OK() {
		fmt.Fprintf(w.out, "❌ Error: %s\n", r.Error)
		return
	}

	fmt.Fprintf(w.out, "📊 Source: %s | Lines: %d | Processing time: %v\n",
		r.Source, r.Lines, r.ProcessTime.Round(time.Millisecond))
	fmt.Fprintf(w.out, "🔗 Found %d links\n", len(r.URLs))

	for _, u := range r.URLs {
		fmt.Fprintf(w.out, "   • %s\n", u)
	}

	if len(r.Merges) > 0 {
		fmt.Fprintf(w.out, "\n🧩 Rejoined across lines (%d):\n", len(r.Merges))
		for _, m := range r.Merges {
			fmt.Fprintf(w.out, "   • %s + %q (lines %s)\n",
				strings.TrimSuffix(m.Text, m.Fragment), m.Fragment, joinInts(m.Lines))
		}
	}

	if len(r.Corrections) > 0 {
		fmt.Fprintf(w.out, "\n🔧 Corrected OCR artifacts (%d):\n", len(r.Corrections))
		for _, c := range r.Corrections {
			fmt.Fprintf(w.out, "   • %s → %s (%d substitutions)\n", c.Original, c.Text, c.Substitutions)
		}
	}

	if r.Text != "" {
		fmt.Fprintf(w.out, "\n📝 Recognized text:\n%s\n", r.Text)
	}
}

func (w *Writer) humanSummary(results []*extractor.ExtractionResult, s Summary) {
	fmt.Fprintf(w.out, "📊 Batch Processing Summary\n")
	fmt.Fprintf(w.out, "═══════════════════════════\n")

	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"File", "Source", "Lines", "URLs", "Time", "Status"})
	table.SetAutoWrapText(false)

	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "failed"
		}

		table.Append([]string{
			filepath.Base(r.Filename),
			string(r.Source),
			strconv.Itoa(r.Lines),
			strconv.Itoa(len(r.URLs)),
			r.ProcessTime.Round(time.Millisecond).String(),
			status,
		})
	}

	table.Render()

	fmt.Fprintf(w.out, "Files processed: %d", s.FilesProcessed)
	if s.FilesFailed > 0 {
		fmt.Fprintf(w.out, " (%d failed)", s.FilesFailed)
	}
	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "Total links found: %d (%d unique)\n", s.TotalURLs, s.UniqueURLs)
	fmt.Fprintf(w.out, "Total processing time: %v\n", s.ProcessingTime.Round(time.Millisecond))

	if s.FilesProcessed > 0 {
		fmt.Fprintf(w.out, "Average per file: %v\n", (s.ProcessingTime / time.Duration(s.FilesProcessed)).Round(time.Millisecond))
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ", ")
}
