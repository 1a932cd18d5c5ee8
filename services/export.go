package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/models"

	"github.com/xuri/excelize/v2"
)

// ExportService renders the document inventory to a spreadsheet. The
// listing underneath is dual-path, so exports keep working during a
// primary-store outage and reflect whatever the process can see.
type ExportService struct {
	documents *store.DocumentStore
}

func NewExportService(documents *store.DocumentStore) *ExportService {
	return &ExportService{documents: documents}
}

// ExportDocumentsExcel builds an xlsx listing of up to limit documents,
// newest first, and returns the serialized file.
func (es *ExportService) ExportDocumentsExcel(ctx context.Context, limit int) ([]byte, int, error) {
	docs := es.documents.ListRecent(ctx, limit)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Error closing Excel file: %v\n", err)
		}
	}()

	sheetName := "Documents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Name", "Source", "Status", "Chunk Count", "Created At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, doc := range docs {
		row := rowIdx + 2 // after headers
		summary := doc.Summary()

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), summary.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), summary.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), summary.Source)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), summary.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), summary.ChunkCount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), summary.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), len(docs), nil
}

// ExportFilename names the download with the export timestamp.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("documents_export_%s.xlsx", now.Format("20060102_150405"))
}

// Summaries exposes the same listing as JSON-friendly rows.
func (es *ExportService) Summaries(ctx context.Context, limit int) []models.DocumentSummary {
	docs := es.documents.ListRecent(ctx, limit)
	summaries := make([]models.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summary())
	}
	return summaries
}
