// Package tesseract implements ocr.Engine on top of the gosseract client.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/btraven00/ocrlinks/internal/links"
	"github.com/btraven00/ocrlinks/internal/ocr"
)

// Engine recognizes text with a local Tesseract installation.
type Engine struct {
	clientFactory func() *gosseract.Client
	options       ocr.Options
}

// New constructs a Tesseract-backed engine.
func New(options ocr.Options) *Engine {
	return &Engine{clientFactory: gosseract.NewClient, options: options}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize encodes img as PNG and runs Tesseract over it. A fresh client is
// used per call so the engine can serve several workers at once.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]links.TextLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if e.options.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.options.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}

	if err := c.SetLanguage(e.options.Languages()...); err != nil {
		return nil, fmt.Errorf("set language '%s': %w", e.options.Language, err)
	}

	if err := c.SetPageSegMode(gosseract.PageSegMode(e.options.PageSegMode)); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	return ocr.LinesFromText(text), nil
}
