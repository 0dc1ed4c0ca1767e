package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv/v2"
	"github.com/rs/zerolog/log"

	"github.com/btraven00/ocrlinks/internal/links"
	"github.com/btraven00/ocrlinks/internal/ocr"
	"github.com/btraven00/ocrlinks/internal/preprocess"
)

// Preprocessor turns a decoded image into an OCR-ready one.
type Preprocessor interface {
	Preprocess(img image.Image) image.Image
}

// ConvertFunc converts a document on disk to plain text.
type ConvertFunc func(path string) (string, error)

// ImageExtractor handles extraction of links from images and text documents.
type ImageExtractor struct {
	pipeline     *links.Pipeline
	preprocessor Preprocessor
	engine       ocr.Engine
	convert      ConvertFunc
	options      ExtractionOptions
}

// NewImageExtractor creates an extractor that feeds OCR lines through pipeline.
func NewImageExtractor(pipeline *links.Pipeline, preprocessor Preprocessor, engine ocr.Engine, options ExtractionOptions) *ImageExtractor {
	return &ImageExtractor{
		pipeline:     pipeline,
		preprocessor: preprocessor,
		engine:       engine,
		convert:      convertDocument,
		options:      options,
	}
}

// WithConverter replaces the document converter.
func (e *ImageExtractor) WithConverter(convert ConvertFunc) *ImageExtractor {
	clone := *e
	clone.convert = convert

	return &clone
}

// WithOptions returns a copy of the extractor using options.
func (e *ImageExtractor) WithOptions(options ExtractionOptions) *ImageExtractor {
	clone := *e
	clone.options = options

	return &clone
}

// Options returns the extraction options in use.
func (e *ImageExtractor) Options() ExtractionOptions {
	return e.options
}

// ExtractFromFile extracts links from a single image or document.
func (e *ImageExtractor) ExtractFromFile(ctx context.Context, filename string) (*ExtractionResult, error) {
	startTime := time.Now()

	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}

		return nil, fmt.Errorf("failed to stat '%s': %w", filename, err)
	}

	source, lines, err := e.readLines(ctx, filename)
	if err != nil {
		return nil, err
	}

	return e.extract(filename, source, lines, startTime)
}

// ExtractFromLines runs the pipeline over lines that were recognized elsewhere.
func (e *ImageExtractor) ExtractFromLines(name string, lines []links.TextLine) (*ExtractionResult, error) {
	return e.extract(name, SourceText, lines, time.Now())
}

// ExtractFromData extracts links from raw input such as standard input.
// Data sniffed as an image is decoded and recognized, anything else is
// treated as text.
func (e *ImageExtractor) ExtractFromData(ctx context.Context, name string, data []byte) (*ExtractionResult, error) {
	startTime := time.Now()

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return e.extract(name, SourceText, ocr.LinesFromText(string(data)), startTime)
	}

	img, err := preprocess.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image from '%s': %w", name, err)
	}

	lines, err := e.recognize(ctx, name, img)
	if err != nil {
		return nil, err
	}

	return e.extract(name, SourceImage, lines, startTime)
}

func (e *ImageExtractor) extract(name string, source SourceKind, lines []links.TextLine, startTime time.Time) (*ExtractionResult, error) {
	report, err := e.pipeline.Run(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to extract links from '%s': %w", name, err)
	}

	e.logDecisions(name, report)

	result := &ExtractionResult{
		Filename: name,
		Source:   source,
		URLs:     report.URLs,
		Lines:    len(lines),
	}

	if e.options.IncludeText {
		result.Text = joinLines(lines)
	}

	if e.options.IncludeTrace {
		for _, m := range report.Merged {
			if m.IsMerged() {
				result.Merges = append(result.Merges, m)
			}
		}

		for _, c := range report.Corrected {
			if c.Substitutions > 0 {
				result.Corrections = append(result.Corrections, c)
			}
		}
	}

	result.ProcessTime = time.Since(startTime)

	log.Debug().
		Str("file", name).
		Str("source", string(source)).
		Int("lines", len(lines)).
		Int("urls", len(result.URLs)).
		Dur("elapsed", result.ProcessTime).
		Msg("Extracted links")

	return result, nil
}

// RecognizeFile returns the OCR or document lines of filename without
// running link extraction.
func (e *ImageExtractor) RecognizeFile(ctx context.Context, filename string) ([]links.TextLine, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}

	_, lines, err := e.readLines(ctx, filename)

	return lines, err
}

func (e *ImageExtractor) readLines(ctx context.Context, filename string) (SourceKind, []links.TextLine, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ImageFormats[ext]:
		lines, err := e.recognizeImage(ctx, filename)
		return SourceImage, lines, err
	case e.options.Documents && DocumentFormats[ext]:
		lines, err := e.readDocument(filename)
		return SourceDocument, lines, err
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func (e *ImageExtractor) recognizeImage(ctx context.Context, filename string) ([]links.TextLine, error) {
	img, err := preprocess.Open(filename)
	if err != nil {
		return nil, err
	}

	return e.recognize(ctx, filename, img)
}

func (e *ImageExtractor) recognize(ctx context.Context, name string, img image.Image) ([]links.TextLine, error) {
	if e.preprocessor != nil {
		img = e.preprocessor.Preprocess(img)
	}

	lines, err := ocr.Recognize(ctx, e.engine, img)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize text in '%s': %w", name, err)
	}

	return lines, nil
}

func (e *ImageExtractor) readDocument(filename string) ([]links.TextLine, error) {
	text, err := e.convert(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document '%s': %w", filename, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w in '%s'", ErrNoText, filename)
	}

	return ocr.LinesFromText(text), nil
}

func (e *ImageExtractor) logDecisions(filename string, report *links.Report) {
	for _, d := range report.Decisions {
		if d.Outcome != links.OutcomeMerged {
			continue
		}

		log.Debug().
			Str("file", filename).
			Int("line", d.Candidate.Line).
			Str("candidate", d.Candidate.Text).
			Str("fragment", d.Fragment).
			Msg("Rejoined wrapped URL")
	}

	for _, c := range report.Corrected {
		if c.Substitutions == 0 {
			continue
		}

		log.Debug().
			Str("file", filename).
			Str("original", c.Original).
			Str("corrected", c.Text).
			Int("substitutions", c.Substitutions).
			Msg("Corrected OCR artifacts")
	}
}

// convertDocument extracts text with docconv; plain text is read directly.
// PDFs are read natively first and only handed to docconv, which needs
// pdftotext, when they carry no text layer.
func convertDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}

		return string(data), nil
	case ".pdf":
		text, err := readPDFText(path)
		if err == nil && text != "" {
			return text, nil
		}

		log.Debug().Err(err).Str("file", path).Msg("Falling back to docconv for PDF")
	}

	response, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}

	return response.Body, nil
}

func joinLines(lines []links.TextLine) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}

	return strings.Join(texts, "\n")
}
