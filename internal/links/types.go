package links

import "errors"

// ErrInvalidInput is returned when the line sequence itself is unusable.
var ErrInvalidInput = errors.New("invalid input lines")

// TextLine is one line of OCR output with its 0-based position.
type TextLine struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// Candidate is a prefix-anchored URL substring found on a single line.
// Start and End are byte offsets into the line text of the trimmed Text.
// Raw is the greedy match before trailing punctuation was trimmed.
type Candidate struct {
	Text               string `json:"text"`
	Raw                string `json:"raw,omitempty"`
	Line               int    `json:"line"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	TruncatedAtLineEnd bool   `json:"truncated_at_line_end"`
}

// untrimmed returns the greedy match a continuation is appended to.
func (c Candidate) untrimmed() string {
	if c.Raw == "" {
		return c.Text
	}

	return c.Raw
}

// MergedURL is a candidate promoted unchanged, or a candidate joined with
// the leading fragment of the following line.
type MergedURL struct {
	Text     string `json:"text"`
	Fragment string `json:"fragment,omitempty"`
	Lines    []int  `json:"lines"`
}

// IsMerged reports whether the URL spans two lines.
func (m MergedURL) IsMerged() bool {
	return len(m.Lines) > 1
}

// CorrectedURL is a MergedURL after hex-segment artifact correction.
type CorrectedURL struct {
	Text          string `json:"text"`
	Original      string `json:"original"`
	Substitutions int    `json:"substitutions"`
}

// Report is the full trace of one pipeline run.
type Report struct {
	Candidates [][]Candidate  `json:"candidates"`
	Decisions  []Decision     `json:"decisions"`
	Merged     []MergedURL    `json:"merged"`
	Corrected  []CorrectedURL `json:"corrected"`
	URLs       []string       `json:"urls"`
}
