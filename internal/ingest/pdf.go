package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"chatbot-retrieval-core/internal/logger"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText pulls plain text from a PDF document, page by page.
// Pages that fail to decode are skipped so one bad page does not sink
// the whole document.
func ExtractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from PDF page", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if len(extracted) == 0 {
		return "", fmt.Errorf("no text extracted from PDF")
	}

	return extracted, nil
}
