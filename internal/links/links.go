// Package links reconstructs URLs from noisy OCR text lines.
//
// Candidates are found per line by prefix. A candidate cut off at the end of
// its line may be rejoined with the leading token of the next line. Confusable
// characters are then fixed inside hex-heavy path segments, and duplicates
// are dropped in first-seen order. Every stage is a pure function of its input.
package links

import (
	"fmt"
	"regexp"
	"strings"
)

// Pipeline runs the URL reconstruction stages with one configuration.
// A Pipeline holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	urlPattern *regexp.Regexp
	cfg        Config
}

// NewPipeline validates cfg and builds a pipeline from it.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid link pipeline config: %w", err)
	}

	pattern, err := buildURLPattern(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to compile URL pattern: %w", err)
	}

	return &Pipeline{cfg: cfg.clone(), urlPattern: pattern}, nil
}

var defaultPipeline = mustPipeline(DefaultConfig())

func mustPipeline(cfg Config) *Pipeline {
	p, err := NewPipeline(cfg)
	if err != nil {
		panic(err)
	}

	return p
}

// Run executes every stage over lines and returns the full trace.
func (p *Pipeline) Run(lines []TextLine) (*Report, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	report := &Report{
		Candidates: make([][]Candidate, len(lines)),
		URLs:       []string{},
	}

	for i, line := range lines {
		report.Candidates[i] = p.FindCandidates(line)
	}

	report.Merged, report.Decisions = p.Rejoin(lines, report.Candidates)

	corrected := make([]string, 0, len(report.Merged))
	for _, m := range report.Merged {
		c := p.Correct(m)
		report.Corrected = append(report.Corrected, c)
		corrected = append(corrected, c.Text)
	}

	report.URLs = Dedupe(corrected)

	return report, nil
}

// ExtractLinks returns the distinct corrected URLs found in lines.
func (p *Pipeline) ExtractLinks(lines []TextLine) ([]string, error) {
	report, err := p.Run(lines)
	if err != nil {
		return nil, err
	}

	return report.URLs, nil
}

// ExtractLinks runs the default pipeline over lines.
func ExtractLinks(lines []TextLine) ([]string, error) {
	return defaultPipeline.ExtractLinks(lines)
}

// ExtractLinksFromText splits text into lines and runs the default pipeline.
func ExtractLinksFromText(text string) ([]string, error) {
	return defaultPipeline.ExtractLinks(SplitLines(text))
}

// SplitLines turns raw OCR text into indexed lines. CRLF and lone CR line
// endings are normalized first. Empty text yields an empty, non-nil slice.
func SplitLines(text string) []TextLine {
	if text == "" {
		return []TextLine{}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make([]TextLine, len(raw))
	for i, l := range raw {
		lines[i] = TextLine{Index: i, Text: l}
	}

	return lines
}

func validateLines(lines []TextLine) error {
	if lines == nil {
		return fmt.Errorf("%w: nil line sequence", ErrInvalidInput)
	}

	for i, l := range lines {
		if l.Index != i {
			return fmt.Errorf("%w: line at position %d has index %d", ErrInvalidInput, i, l.Index)
		}
	}

	return nil
}
