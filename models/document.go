package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ingestion sources a document can originate from.
const (
	SourceUpload = "upload"
	SourcePDF    = "pdf"
	SourceURL    = "url"
)

// Document is an ingested piece of content. Chunks belong to exactly one
// document and never outlive it.
type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name" binding:"required,min=1,max=200"`
	Source    string             `bson:"source" json:"source"`
	SourceRef string             `bson:"source_ref,omitempty" json:"source_ref,omitempty"` // URL or original filename
	Chunks    []Chunk            `bson:"chunks,omitempty" json:"chunks,omitempty"`
	Status    string             `bson:"status" json:"status"` // pending, processing, completed, failed
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Chunk is a fragment of a document's text used as a unit of retrieval.
type Chunk struct {
	ChunkID    string `bson:"chunk_id" json:"chunk_id"`
	DocumentID string `bson:"document_id,omitempty" json:"document_id,omitempty"`
	Text       string `bson:"text" json:"text"`
	Order      int    `bson:"order" json:"order"`
	CharCount  int    `bson:"char_count,omitempty" json:"char_count,omitempty"`
	WordCount  int    `bson:"word_count,omitempty" json:"word_count,omitempty"`
}

// Document ingestion status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type CreateDocumentRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

type DocumentSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary flattens a document for listings and exports.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Source:     d.Source,
		Status:     d.Status,
		ChunkCount: len(d.Chunks),
		CreatedAt:  d.CreatedAt,
	}
}
