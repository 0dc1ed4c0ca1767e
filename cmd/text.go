package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/btraven00/ocrlinks/internal/report"
)

var (
	textOutputFile string
	rawText        bool
)

// textCmd represents the text command
var textCmd = &cobra.Command{
	Use:   "text [file...]",
	Short: "Print the text lines recognized in images and documents",
	Long: `Print the text lines that link extraction would see for each file.

This runs the same preprocessing and OCR as "extract" but stops before link
extraction, which helps to tune Tesseract settings or to inspect why a URL
was not rejoined. Line indices are shown unless --raw is given.

Examples:
  ocrlinks text slide.png
  ocrlinks text --raw --save slide.txt slide.png
  ocrlinks text -o json slide.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runText,
}

func init() {
	rootCmd.AddCommand(textCmd)

	textCmd.Flags().StringVar(&textOutputFile, "save", "", "write the output to a file instead of stdout")
	textCmd.Flags().BoolVar(&rawText, "raw", false, "print plain text without line indices")
}

func runText(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ex, err := newExtractor(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if textOutputFile != "" {
		f, err := os.Create(textOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		out = f
	}

	format, _ := report.ParseFormat(output)
	writer := report.NewWriter(out, format)

	var failures []error

	for _, filename := range args {
		log.Debug().Str("file", filename).Msg("Recognizing text")

		lines, err := ex.RecognizeFile(cmd.Context(), filename)
		if err != nil {
			log.Error().Err(err).Str("file", filename).Msg("Failed to recognize text")
			failures = append(failures, fmt.Errorf("%s: %w", filename, err))

			continue
		}

		if rawText {
			for _, l := range lines {
				fmt.Fprintln(out, l.Text)
			}

			continue
		}

		if err := writer.Lines(filename, lines); err != nil {
			return err
		}
	}

	if textOutputFile != "" {
		log.Info().Str("file", textOutputFile).Msg("Text written")
	}

	return errors.Join(failures...)
}
