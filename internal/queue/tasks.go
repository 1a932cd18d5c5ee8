package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatbot-retrieval-core/internal/ingest"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/models"
)

const TaskIngestDocument = "document:ingest"

type IngestPayload struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	Text       string `json:"text,omitempty"`
	URL        string `json:"url,omitempty"`
}

// NewIngestTask builds the background task that extracts and chunks a
// document after its metadata has been accepted.
func NewIngestTask(doc *models.Document, text, url string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		DocumentID: doc.ID.Hex(),
		Name:       doc.Name,
		Source:     doc.Source,
		Text:       text,
		URL:        url,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

// TaskProcessor runs ingestion tasks: extract text for the document's
// source, chunk it, and attach the chunks through the document store.
type TaskProcessor struct {
	documents *store.DocumentStore
	chunker   *ingest.Chunker
}

func NewTaskProcessor(documents *store.DocumentStore, chunker *ingest.Chunker) *TaskProcessor {
	return &TaskProcessor{
		documents: documents,
		chunker:   chunker,
	}
}

func (p *TaskProcessor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	id, err := primitive.ObjectIDFromHex(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	doc := &models.Document{
		ID:        id,
		Name:      payload.Name,
		Source:    payload.Source,
		SourceRef: payload.URL,
		Status:    models.StatusProcessing,
	}

	logger.Info("ingesting document", "document_id", payload.DocumentID, "source", payload.Source)

	text, err := p.extractText(ctx, payload)
	if err != nil {
		p.documents.MarkFailed(ctx, doc)
		return err
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		p.documents.MarkFailed(ctx, doc)
		return fmt.Errorf("document %s produced no chunks: %w", payload.DocumentID, asynq.SkipRetry)
	}

	p.documents.SetChunks(ctx, doc, chunks)
	logger.Info("document ingested", "document_id", payload.DocumentID, "chunks", len(chunks))
	return nil
}

func (p *TaskProcessor) extractText(ctx context.Context, payload IngestPayload) (string, error) {
	switch payload.Source {
	case models.SourceUpload:
		if strings.TrimSpace(payload.Text) == "" {
			return "", fmt.Errorf("empty upload text: %w", asynq.SkipRetry)
		}
		return payload.Text, nil
	case models.SourceURL:
		if looksLikePDF(payload.URL) {
			content, err := downloadFile(ctx, payload.URL)
			if err != nil {
				return "", err
			}
			return ingest.ExtractPDFText(content)
		}
		return ingest.FetchPageText(ctx, payload.URL)
	case models.SourcePDF:
		content, err := downloadFile(ctx, payload.URL)
		if err != nil {
			return "", err
		}
		return ingest.ExtractPDFText(content)
	default:
		return "", fmt.Errorf("unknown source %q: %w", payload.Source, asynq.SkipRetry)
	}
}

func looksLikePDF(url string) bool {
	return strings.HasSuffix(strings.ToLower(url), ".pdf")
}

func downloadFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
