package extractor

import (
	"errors"
	"time"

	"github.com/btraven00/ocrlinks/internal/links"
)

var (
	// ErrFileNotFound is returned when an input path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrUnsupportedFormat is returned for extensions with no line source.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoText is returned when a document converts to empty text.
	ErrNoText = errors.New("no readable text found")
)

// SourceKind tells how the text lines of a file were obtained.
type SourceKind string

const (
	SourceImage    SourceKind = "image"
	SourceDocument SourceKind = "document"
	SourceText     SourceKind = "text"
)

// ExtractionResult contains the complete result of link extraction for one file
type ExtractionResult struct {
	Filename    string               `json:"filename"`
	Source      SourceKind           `json:"source"`
	URLs        []string             `json:"urls"`
	Lines       int                  `json:"lines"`
	Text        string               `json:"text,omitempty"`
	Merges      []links.MergedURL    `json:"merges,omitempty"`
	Corrections []links.CorrectedURL `json:"corrections,omitempty"`
	ProcessTime time.Duration        `json:"process_time"`
	Error       string               `json:"error,omitempty"`
}

// OK reports whether the file was processed without error.
func (r *ExtractionResult) OK() bool {
	return r.Error == ""
}

// ExtractionOptions configures the per-file extraction process
type ExtractionOptions struct {
	IncludeText  bool `json:"include_text"`
	IncludeTrace bool `json:"include_trace"`
	Documents    bool `json:"documents"`
}

// DefaultExtractionOptions returns default extraction options
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{
		IncludeText:  false,
		IncludeTrace: false,
		Documents:    true,
	}
}

// ImageFormats lists the image extensions handled by the OCR path.
var ImageFormats = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// DocumentFormats lists the extensions converted to text without OCR.
var DocumentFormats = map[string]bool{
	".pdf":  true,
	".docx": true,
	".odt":  true,
	".rtf":  true,
	".html": true,
	".htm":  true,
	".txt":  true,
	".md":   true,
}
