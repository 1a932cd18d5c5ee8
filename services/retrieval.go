package services

import (
	"context"
	"errors"
	"strings"

	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrEmptyQuery rejects blank queries before any store access.
var ErrEmptyQuery = errors.New("query must not be empty")

// RetrievalService selects the grounding context for a query: candidate
// chunks from the most recent documents, reduced to the top-K by lexical
// relevance. Session gating happens at the route layer so retrieval stays
// composable between guarded and public deployments.
type RetrievalService struct {
	chunks       *store.ChunkStore
	maxDocuments int
	metrics      *telemetry.Metrics
}

func NewRetrievalService(chunks *store.ChunkStore, maxDocuments int, metrics *telemetry.Metrics) *RetrievalService {
	if maxDocuments <= 0 {
		maxDocuments = 25
	}
	return &RetrievalService{
		chunks:       chunks,
		maxDocuments: maxDocuments,
		metrics:      metrics,
	}
}

// GetContext returns up to limit ranked text fragments for the query.
// "No results" is an empty slice, never an error; the only error is a
// malformed (empty) query.
func (s *RetrievalService) GetContext(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	tracer := otel.Tracer("retrieval-service")
	ctx, span := tracer.Start(ctx, "retrieval.get_context")
	defer span.End()

	candidates := s.chunks.FetchCandidates(ctx, s.maxDocuments)
	ranked := RankChunks(query, candidates, limit)

	span.SetAttributes(
		attribute.Int("retrieval.candidates", len(candidates)),
		attribute.Int("retrieval.returned", len(ranked)),
	)
	s.metrics.RecordRetrieval(len(ranked), len(candidates) == 0)

	return ranked, nil
}
