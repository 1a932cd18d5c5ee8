package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingDocumentSource struct{}

var errStoreDown = errors.New("primary store down")

func (failingDocumentSource) Insert(ctx context.Context, doc *models.Document) error {
	return errStoreDown
}
func (failingDocumentSource) Get(ctx context.Context, id string) (*models.Document, error) {
	return nil, errStoreDown
}
func (failingDocumentSource) ListRecent(ctx context.Context, limit int) ([]models.Document, error) {
	return nil, errStoreDown
}
func (failingDocumentSource) ReplaceChunks(ctx context.Context, id string, chunks []models.Chunk, status string) error {
	return errStoreDown
}

func newDegradedChunkStore() (*store.ChunkStore, *store.DocumentStore) {
	registry := store.NewFallbackRegistry(0, nil)
	failover := store.NewFailover("test-primary", 100*time.Millisecond, nil)
	documents := store.NewDocumentStore(failingDocumentSource{}, registry, failover)
	return store.NewChunkStore(documents), documents
}

func TestGetContextEmptyQuery(t *testing.T) {
	chunks, _ := newDegradedChunkStore()
	svc := NewRetrievalService(chunks, 25, nil)

	for _, query := range []string{"", "   "} {
		if _, err := svc.GetContext(context.Background(), query, 6); !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("query %q: expected ErrEmptyQuery, got %v", query, err)
		}
	}
}

func TestGetContextDegradedPrimaryEmptyResult(t *testing.T) {
	// Primary fails on every call and the fallback registry is empty:
	// still a successful, empty answer.
	chunks, _ := newDegradedChunkStore()
	svc := NewRetrievalService(chunks, 25, nil)

	got, err := svc.GetContext(context.Background(), "anything", 6)
	if err != nil {
		t.Fatalf("degraded retrieval errored: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty context, got %v", got)
	}
}

func TestGetContextReadYourWritesThroughFallback(t *testing.T) {
	chunks, documents := newDegradedChunkStore()
	svc := NewRetrievalService(chunks, 25, nil)

	doc := &models.Document{
		ID:        primitive.NewObjectID(),
		Name:      "handbook",
		Source:    models.SourceUpload,
		CreatedAt: time.Now(),
	}
	documents.Save(context.Background(), doc)
	documents.SetChunks(context.Background(), doc, []models.Chunk{
		{ChunkID: "c1", Text: "refund policy lasts thirty days", Order: 0},
		{ChunkID: "c2", Text: "shipping takes one week", Order: 1},
	})

	got, err := svc.GetContext(context.Background(), "refund policy", 6)
	if err != nil {
		t.Fatalf("retrieval errored: %v", err)
	}
	if len(got) != 1 || got[0] != "refund policy lasts thirty days" {
		t.Fatalf("expected fallback-stored chunk, got %v", got)
	}
}

func TestGetContextAppliesLimit(t *testing.T) {
	chunks, documents := newDegradedChunkStore()
	svc := NewRetrievalService(chunks, 25, nil)

	doc := &models.Document{ID: primitive.NewObjectID(), Name: "faq", Source: models.SourceUpload}
	documents.Save(context.Background(), doc)

	var many []models.Chunk
	for i := 0; i < 10; i++ {
		many = append(many, models.Chunk{ChunkID: string(rune('a' + i)), Text: "billing answer", Order: i})
	}
	documents.SetChunks(context.Background(), doc, many)

	got, err := svc.GetContext(context.Background(), "billing", 3)
	if err != nil {
		t.Fatalf("retrieval errored: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(got))
	}
}
