package extractor

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// readPDFText extracts the text layer of a PDF page by page without external
// tools. Pages that fail to decode are skipped.
func readPDFText(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug().Err(err).Str("file", path).Int("page", i).Msg("Skipping unreadable PDF page")
			continue
		}

		b.WriteString(text)
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}
