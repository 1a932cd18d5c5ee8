package ingest

import (
	"strings"
	"testing"
)

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200, 100)

	chunks := c.Chunk("A short paragraph that easily fits in one chunk.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Order != 0 {
		t.Fatalf("expected order 0, got %d", chunks[0].Order)
	}
	if chunks[0].ChunkID == "" {
		t.Fatalf("chunk has no ID")
	}
	if chunks[0].WordCount != 9 {
		t.Fatalf("expected 9 words, got %d", chunks[0].WordCount)
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := NewChunker(1000, 200, 100)

	for _, text := range []string{"", "   ", "\n\n\n"} {
		if chunks := c.Chunk(text); len(chunks) != 0 {
			t.Fatalf("text %q: expected no chunks, got %d", text, len(chunks))
		}
	}
}

func TestChunkSplitsLongText(t *testing.T) {
	c := NewChunker(500, 100, 100)

	paragraph := strings.Repeat("Sentence with several words in it. ", 10)
	text := paragraph + "\n\n" + paragraph + "\n\n" + paragraph

	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected the text split into multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Order != i {
			t.Fatalf("chunk %d has order %d", i, chunk.Order)
		}
		if chunk.CharCount != len(chunk.Text) {
			t.Fatalf("chunk %d char count mismatch", i)
		}
	}
}

func TestChunkRespectsParagraphBoundaries(t *testing.T) {
	c := NewChunker(100, 0, 10)

	chunks := c.Chunk("First paragraph stands alone here.\n\nSecond paragraph is also its own unit of text entirely.")
	for _, chunk := range chunks {
		if strings.HasPrefix(chunk.Text, "\n") || strings.HasSuffix(chunk.Text, "\n") {
			t.Fatalf("chunk carries boundary whitespace: %q", chunk.Text)
		}
	}
}
