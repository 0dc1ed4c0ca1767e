// Package ocr defines the text recognition boundary of the link pipeline.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/btraven00/ocrlinks/internal/links"
)

// ErrNoEngine is returned when recognition is requested without an engine.
var ErrNoEngine = errors.New("no OCR engine configured")

// Engine recognizes text in an OCR-ready image and returns its lines in
// reading order.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]links.TextLine, error)
}

// Options configures a Tesseract-style engine.
type Options struct {
	// Language is a Tesseract language code, e.g. "eng" or "eng+deu".
	Language string `json:"language" mapstructure:"language"`
	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string `json:"tessdata_prefix,omitempty" mapstructure:"tessdata_prefix"`
	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int `json:"page_seg_mode" mapstructure:"page_seg_mode"`
}

// DefaultOptions returns English recognition treating the image as a single
// uniform block of text (Tesseract --psm 6).
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		PageSegMode: 6,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if len(o.Languages()) == 0 {
		return errors.New("OCR language must not be empty")
	}

	if o.PageSegMode < 0 || o.PageSegMode > 13 {
		return fmt.Errorf("page segmentation mode must be in [0, 13], got %d", o.PageSegMode)
	}

	return nil
}

// Languages splits Language into its individual codes.
func (o Options) Languages() []string {
	var langs []string
	for _, l := range strings.Split(o.Language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}

	return langs
}

// LinesFromText converts raw recognized text into indexed lines.
func LinesFromText(text string) []links.TextLine {
	return links.SplitLines(strings.TrimRight(text, "\r\n"))
}

// Recognize runs engine over img, failing fast on a nil engine or a
// canceled context.
func Recognize(ctx context.Context, engine Engine, img image.Image) ([]links.TextLine, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := engine.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%s recognition failed: %w", engine.Name(), err)
	}

	if lines == nil {
		lines = []links.TextLine{}
	}

	return lines, nil
}
