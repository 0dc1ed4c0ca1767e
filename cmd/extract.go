package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/ocrlinks/internal/config"
	"github.com/btraven00/ocrlinks/internal/extractor"
	"github.com/btraven00/ocrlinks/internal/links"
	"github.com/btraven00/ocrlinks/internal/ocr/tesseract"
	"github.com/btraven00/ocrlinks/internal/preprocess"
	"github.com/btraven00/ocrlinks/internal/report"
)

var (
	uniqueURLs   bool
	includeText  bool
	includeTrace bool
	showProgress bool
	noDocuments  bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract URLs from images and documents",
	Long: `Extract URLs from slide images, screenshots and documents.

Images are converted to grayscale, upscaled when narrow, and recognized with
Tesseract. Documents (PDF, DOCX, ODT, RTF, HTML, plain text) are converted to
text directly. The text lines of every file then go through link extraction:
URLs wrapped onto a second line are rejoined and confusable characters in
hash-like segments are corrected.

Use "-" to read an image or already recognized text from standard input.

Examples:
  ocrlinks extract slide.png
  ocrlinks extract --workers 8 --unique slides/*.png
  ocrlinks extract -o json --trace screenshot.jpg
  tesseract slide.png - | ocrlinks extract -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Int("workers", 0, "number of parallel workers (default: number of CPUs)")
	extractCmd.Flags().String("lang", "", "Tesseract language(s), e.g. eng or eng+deu")
	extractCmd.Flags().Float64("hex-threshold", 0, "share of hex digits that marks a segment as hash-like")
	extractCmd.Flags().BoolVar(&uniqueURLs, "unique", false, "print the deduplicated URLs of all files as one list")
	extractCmd.Flags().BoolVar(&includeText, "include-text", false, "include the recognized text in the output")
	extractCmd.Flags().BoolVar(&includeTrace, "trace", false, "include rejoined and corrected URLs in the output")
	extractCmd.Flags().BoolVar(&showProgress, "progress", true, "show progress during batch processing")
	extractCmd.Flags().BoolVar(&noDocuments, "no-documents", false, "only accept image files")

	cobra.CheckErr(viper.BindPFlag(config.KeyWorkers, extractCmd.Flags().Lookup("workers")))
	cobra.CheckErr(viper.BindPFlag(config.KeyLanguage, extractCmd.Flags().Lookup("lang")))
	cobra.CheckErr(viper.BindPFlag(config.KeyHexThreshold, extractCmd.Flags().Lookup("hex-threshold")))
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ex, err := newExtractor(cfg)
	if err != nil {
		return err
	}

	format, _ := report.ParseFormat(output)
	writer := report.NewWriter(cmd.OutOrStdout(), format)
	ctx := cmd.Context()

	if len(args) == 1 && args[0] == "-" {
		return extractStdin(ctx, ex, cmd.InOrStdin(), writer)
	}

	startTime := time.Now()
	results, failures := processFiles(ctx, ex, args, cfg.Workers)
	elapsed := time.Since(startTime)

	if err := writeResults(writer, results, elapsed); err != nil {
		return err
	}

	if len(failures) > 0 {
		return fmt.Errorf("failed to process %d of %d files: %w", len(failures), len(args), errors.Join(failures...))
	}

	return nil
}

func newExtractor(cfg config.Config) (*extractor.ImageExtractor, error) {
	pipeline, err := links.NewPipeline(cfg.Links)
	if err != nil {
		return nil, err
	}

	options := extractor.DefaultExtractionOptions()
	options.IncludeText = includeText
	options.IncludeTrace = includeTrace
	options.Documents = !noDocuments

	return extractor.NewImageExtractor(
		pipeline,
		preprocess.New(cfg.Preprocess),
		tesseract.New(cfg.OCR),
		options,
	), nil
}

func extractStdin(ctx context.Context, ex *extractor.ImageExtractor, in io.Reader, writer *report.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read standard input: %w", err)
	}

	result, err := ex.ExtractFromData(ctx, "-", data)
	if err != nil {
		return err
	}

	if uniqueURLs {
		return writer.URLs(result.URLs)
	}

	return writer.Result(result)
}

// processFiles extracts every file in parallel. Failed files are reported as
// results carrying the error so the batch summary lists them.
func processFiles(ctx context.Context, ex *extractor.ImageExtractor, filenames []string, workers int) ([]*extractor.ExtractionResult, []error) {
	if len(filenames) > 1 {
		log.Info().Int("files", len(filenames)).Int("workers", workers).Msg("Processing files")
	}

	tracker := extractor.NewProgressTracker()
	trackProgress := showProgress && !quiet && len(filenames) > 1

	onProgress := func(update extractor.ProgressUpdate) {
		tracker.Update(update)

		if update.Status == extractor.TaskStatusFailed {
			log.Debug().Str("file", update.Filename).Msg(update.Message)
		}

		if trackProgress && (update.Status == extractor.TaskStatusCompleted || update.Status == extractor.TaskStatusFailed) {
			tracker.PrintProgress(os.Stderr)
		}
	}

	taskResults := extractor.ProcessFiles(ctx, ex, filenames, ex.Options(), workers, onProgress)

	if trackProgress {
		fmt.Fprintln(os.Stderr)
	}

	results := make([]*extractor.ExtractionResult, 0, len(taskResults))

	var failures []error

	for _, tr := range taskResults {
		if tr.Error != nil {
			log.Error().Err(tr.Error).Str("file", tr.Task.Filename).Msg("Failed to extract links")

			failures = append(failures, fmt.Errorf("%s: %w", tr.Task.Filename, tr.Error))
			results = append(results, &extractor.ExtractionResult{
				Filename: tr.Task.Filename,
				Error:    tr.Error.Error(),
			})

			continue
		}

		results = append(results, tr.Result)
	}

	if err := ctx.Err(); err != nil {
		failures = append(failures, err)
	}

	return results, failures
}

func writeResults(writer *report.Writer, results []*extractor.ExtractionResult, elapsed time.Duration) error {
	if uniqueURLs {
		return writer.URLs(report.UniqueURLs(results))
	}

	if len(results) == 1 {
		return writer.Result(results[0])
	}

	return writer.Batch(results, elapsed)
}
