package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btraven00/ocrlinks/internal/links"
)

type stubEngine struct {
	lines []links.TextLine
	err   error
}

func (s stubEngine) Name() string { return "stub" }

func (s stubEngine) Recognize(context.Context, image.Image) ([]links.TextLine, error) {
	return s.lines, s.err
}

func TestLinesFromText(t *testing.T) {
	got := LinesFromText("first line\r\nsecond\n\n")
	assert.Equal(t, []links.TextLine{
		{Index: 0, Text: "first line"},
		{Index: 1, Text: "second"},
	}, got)

	assert.Empty(t, LinesFromText("\n"))
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, []string{"eng"}, opts.Languages())

	opts.Language = "eng + deu"
	assert.Equal(t, []string{"eng", "deu"}, opts.Languages())

	opts.Language = " "
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.PageSegMode = 14
	assert.Error(t, opts.Validate())
}

func TestRecognize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))

	_, err := Recognize(context.Background(), nil, img)
	require.ErrorIs(t, err, ErrNoEngine)

	boom := errors.New("tesseract missing")
	_, err = Recognize(context.Background(), stubEngine{err: boom}, img)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stub")

	got, err := Recognize(context.Background(), stubEngine{}, img)
	require.NoError(t, err)
	assert.NotNil(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Recognize(ctx, stubEngine{}, img)
	assert.ErrorIs(t, err, context.Canceled)
}
