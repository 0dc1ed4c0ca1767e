// Package preprocess prepares decoded images for OCR.
package preprocess

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Registers the WebP decoder with image.Decode; imaging covers the rest.
	_ "golang.org/x/image/webp"
)

// Options controls preprocessing.
type Options struct {
	// MinWidth is the width below which images are upscaled.
	MinWidth int `json:"min_width" mapstructure:"min_width"`
	// UpscaleFactor multiplies both dimensions of narrow images.
	UpscaleFactor int `json:"upscale_factor" mapstructure:"upscale_factor"`
}

// DefaultOptions returns the default preprocessing options.
func DefaultOptions() Options {
	return Options{
		MinWidth:      1000,
		UpscaleFactor: 2,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.MinWidth < 0 {
		return fmt.Errorf("min width must not be negative, got %d", o.MinWidth)
	}

	if o.UpscaleFactor < 1 {
		return fmt.Errorf("upscale factor must be at least 1, got %d", o.UpscaleFactor)
	}

	return nil
}

// Preprocessor converts images to grayscale and upscales small ones.
type Preprocessor struct {
	options Options
}

// New creates a Preprocessor.
func New(options Options) *Preprocessor {
	return &Preprocessor{options: options}
}

// Preprocess returns an OCR-ready copy of img. The input is not modified.
func (p *Preprocessor) Preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)

	bounds := gray.Bounds()
	if bounds.Dx() >= p.options.MinWidth || p.options.UpscaleFactor <= 1 {
		return gray
	}

	return imaging.Resize(gray, bounds.Dx()*p.options.UpscaleFactor, bounds.Dy()*p.options.UpscaleFactor, imaging.Lanczos)
}

// Open decodes the image at path, honouring EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image '%s': %w", path, err)
	}

	return img, nil
}

// Decode decodes an image from r, honouring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}
