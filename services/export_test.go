package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chatbot-retrieval-core/models"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestExportDocumentsExcelThroughFallback(t *testing.T) {
	_, documents := newDegradedChunkStore()
	es := NewExportService(documents)

	doc := &models.Document{
		ID:        primitive.NewObjectID(),
		Name:      "handbook",
		Source:    models.SourceUpload,
		CreatedAt: time.Now(),
	}
	documents.Save(context.Background(), doc)
	documents.SetChunks(context.Background(), doc, []models.Chunk{
		{ChunkID: "c1", Text: "refund policy", Order: 0},
	})

	data, count, err := es.ExportDocumentsExcel(context.Background(), 25)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 document exported, got %d", count)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("export is not a readable workbook: %v", err)
	}
	defer f.Close()

	name, err := f.GetCellValue("Documents", "B2")
	if err != nil {
		t.Fatalf("reading cell failed: %v", err)
	}
	if name != "handbook" {
		t.Fatalf("expected document name in export, got %q", name)
	}
}

func TestExportDocumentsExcelEmpty(t *testing.T) {
	_, documents := newDegradedChunkStore()
	es := NewExportService(documents)

	data, count, err := es.ExportDocumentsExcel(context.Background(), 25)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty export, got %d rows", count)
	}
	if len(data) == 0 {
		t.Fatalf("empty export still must be a valid workbook")
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)
	if got := ExportFilename(now); got != "documents_export_20260831_143005.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}
}
