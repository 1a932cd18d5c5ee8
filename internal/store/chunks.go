package store

import (
	"context"
)

// Candidate is one chunk offered to the ranker.
type Candidate struct {
	ChunkID string
	Text    string
}

// ChunkStore produces ranking candidates from the most recently created
// documents. It never returns an error: primary-store trouble is handled
// below it by DocumentStore, and an empty candidate set is an acceptable
// degraded answer for the caller.
type ChunkStore struct {
	documents *DocumentStore
}

func NewChunkStore(documents *DocumentStore) *ChunkStore {
	return &ChunkStore{documents: documents}
}

// FetchCandidates flattens the chunks of up to maxDocuments recent
// documents. A chunk is only surfaced when its owning document resolved;
// dangling chunks never reach the ranker.
func (c *ChunkStore) FetchCandidates(ctx context.Context, maxDocuments int) []Candidate {
	docs := c.documents.ListRecent(ctx, maxDocuments)

	var candidates []Candidate
	for _, doc := range docs {
		if doc.ID.IsZero() {
			continue
		}
		for _, chunk := range doc.Chunks {
			if chunk.Text == "" {
				continue
			}
			candidates = append(candidates, Candidate{
				ChunkID: chunk.ChunkID,
				Text:    chunk.Text,
			})
		}
	}
	return candidates
}
