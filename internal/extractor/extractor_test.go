package extractor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btraven00/ocrlinks/internal/links"
	"github.com/btraven00/ocrlinks/internal/ocr"
	"github.com/btraven00/ocrlinks/internal/preprocess"
)

// fakeEngine returns canned text for every image it is given.
type fakeEngine struct {
	text  string
	err   error
	calls atomic.Int32
	width atomic.Int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, img image.Image) ([]links.TextLine, error) {
	f.calls.Add(1)
	f.width.Store(int32(img.Bounds().Dx()))

	if f.err != nil {
		return nil, f.err
	}

	return ocr.LinesFromText(f.text), nil
}

func newTestExtractor(t *testing.T, engine ocr.Engine, options ExtractionOptions) *ImageExtractor {
	t.Helper()

	pipeline, err := links.NewPipeline(links.DefaultConfig())
	require.NoError(t, err)

	return NewImageExtractor(pipeline, preprocess.New(preprocess.DefaultOptions()), engine, options)
}

func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))

	return path
}

const slideText = `Resources
Download https://example.com/files/ab3f9e0O1c (zip)
and read https://example.com/docs/
main page for details.
Also https://example.com/files/ab3f9e0O1c`

func TestExtractFromFile_Image(t *testing.T) {
	engine := &fakeEngine{text: slideText}
	ex := newTestExtractor(t, engine, DefaultExtractionOptions())
	path := writePNG(t, t.TempDir(), "slide.png", 400, 300)

	result, err := ex.ExtractFromFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, result.Filename)
	assert.Equal(t, SourceImage, result.Source)
	assert.Equal(t, 5, result.Lines)
	assert.Equal(t, []string{
		"https://example.com/files/ab3f9e001c",
		"https://example.com/docs/main",
	}, result.URLs)
	assert.True(t, result.OK())
	assert.Empty(t, result.Text)
	assert.Empty(t, result.Merges)
	assert.Empty(t, result.Corrections)

	assert.EqualValues(t, 1, engine.calls.Load())
	assert.EqualValues(t, 800, engine.width.Load(), "narrow images are upscaled before OCR")
}

func TestExtractFromFile_Trace(t *testing.T) {
	engine := &fakeEngine{text: slideText}
	options := DefaultExtractionOptions()
	options.IncludeText = true
	options.IncludeTrace = true

	ex := newTestExtractor(t, engine, options)
	path := writePNG(t, t.TempDir(), "wide.png", 1200, 100)

	result, err := ex.ExtractFromFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, slideText, result.Text)
	require.Len(t, result.Merges, 1)
	assert.Equal(t, "https://example.com/docs/main", result.Merges[0].Text)
	assert.Equal(t, "main", result.Merges[0].Fragment)
	assert.Equal(t, []int{2, 3}, result.Merges[0].Lines)

	require.Len(t, result.Corrections, 2)
	for _, c := range result.Corrections {
		assert.Equal(t, "https://example.com/files/ab3f9e0O1c", c.Original)
		assert.Equal(t, 1, c.Substitutions)
	}

	assert.EqualValues(t, 1200, engine.width.Load(), "wide images keep their size")
}

func TestExtractFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	ex := newTestExtractor(t, &fakeEngine{}, DefaultExtractionOptions())

	t.Run("missing file", func(t *testing.T) {
		_, err := ex.ExtractFromFile(context.Background(), filepath.Join(dir, "absent.png"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "archive.zip")
		require.NoError(t, os.WriteFile(path, []byte("PK"), 0o644))

		_, err := ex.ExtractFromFile(context.Background(), path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("documents disabled", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("https://example.com"), 0o644))

		options := DefaultExtractionOptions()
		options.Documents = false

		_, err := ex.WithOptions(options).ExtractFromFile(context.Background(), path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("corrupt image", func(t *testing.T) {
		path := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

		_, err := ex.ExtractFromFile(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("engine failure", func(t *testing.T) {
		boom := errors.New("tesseract exploded")
		failing := newTestExtractor(t, &fakeEngine{err: boom}, DefaultExtractionOptions())
		path := writePNG(t, dir, "slide.png", 10, 10)

		_, err := failing.ExtractFromFile(context.Background(), path)
		assert.ErrorIs(t, err, boom)
	})
}

func TestExtractFromFile_Document(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}
	ex := newTestExtractor(t, engine, DefaultExtractionOptions())

	t.Run("plain text", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("go to https://www.example.org/\nindex now\r\n"), 0o644))

		result, err := ex.ExtractFromFile(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, SourceDocument, result.Source)
		assert.Equal(t, []string{"https://www.example.org/index"}, result.URLs)
	})

	t.Run("converted document", func(t *testing.T) {
		path := filepath.Join(dir, "paper.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

		var converted string
		conv := ex.WithConverter(func(p string) (string, error) {
			converted = p
			return "Data: http://data.example.net/set.csv.", nil
		})

		result, err := conv.ExtractFromFile(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, path, converted)
		assert.Equal(t, []string{"http://data.example.net/set.csv"}, result.URLs)
	})

	t.Run("empty document", func(t *testing.T) {
		path := filepath.Join(dir, "blank.html")
		require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

		conv := ex.WithConverter(func(string) (string, error) { return " \n ", nil })

		_, err := conv.ExtractFromFile(context.Background(), path)
		assert.ErrorIs(t, err, ErrNoText)
	})

	assert.Zero(t, engine.calls.Load(), "documents never reach the OCR engine")
}

func TestExtractFromLines(t *testing.T) {
	ex := newTestExtractor(t, &fakeEngine{}, DefaultExtractionOptions())

	result, err := ex.ExtractFromLines("stdin", links.SplitLines("ftp://files.example.com/pub\nwww.example.com"))
	require.NoError(t, err)

	assert.Equal(t, SourceText, result.Source)
	assert.Equal(t, []string{"ftp://files.example.com/pub", "www.example.com"}, result.URLs)

	_, err = ex.ExtractFromLines("stdin", []links.TextLine{{Index: 3, Text: "x"}})
	assert.ErrorIs(t, err, links.ErrInvalidInput)
}

func TestExtractFromData(t *testing.T) {
	t.Run("image bytes", func(t *testing.T) {
		engine := &fakeEngine{text: slideText}
		ex := newTestExtractor(t, engine, DefaultExtractionOptions())

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 40))))

		result, err := ex.ExtractFromData(context.Background(), "-", buf.Bytes())
		require.NoError(t, err)

		assert.Equal(t, SourceImage, result.Source)
		assert.Contains(t, result.URLs, "https://example.com/docs/main")
		assert.EqualValues(t, 1, engine.calls.Load())
		assert.EqualValues(t, 600, engine.width.Load())
	})

	t.Run("plain text", func(t *testing.T) {
		engine := &fakeEngine{}
		ex := newTestExtractor(t, engine, DefaultExtractionOptions())

		result, err := ex.ExtractFromData(context.Background(), "-", []byte("see www.example.com/ab\ncdef now"))
		require.NoError(t, err)

		assert.Equal(t, SourceText, result.Source)
		assert.Equal(t, []string{"www.example.com/abcdef"}, result.URLs)
		assert.Zero(t, engine.calls.Load())
	})

	t.Run("truncated image", func(t *testing.T) {
		ex := newTestExtractor(t, &fakeEngine{}, DefaultExtractionOptions())

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 30, 30))))

		_, err := ex.ExtractFromData(context.Background(), "-", buf.Bytes()[:20])
		assert.Error(t, err)
	})
}

func TestRecognizeFile(t *testing.T) {
	engine := &fakeEngine{text: "line one\nline two"}
	ex := newTestExtractor(t, engine, DefaultExtractionOptions())
	path := writePNG(t, t.TempDir(), "slide.png", 50, 50)

	lines, err := ex.RecognizeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []links.TextLine{{Index: 0, Text: "line one"}, {Index: 1, Text: "line two"}}, lines)

	_, err = ex.RecognizeFile(context.Background(), "/does/not/exist.png")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestReadPDFText_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text pretending to be a PDF"), 0o644))

	_, err := readPDFText(path)
	assert.Error(t, err)
}
