package ingest

import (
	"regexp"
	"strings"

	"chatbot-retrieval-core/models"

	"github.com/google/uuid"
)

// Chunker splits document text into retrieval-sized pieces with
// sentence and paragraph boundary awareness.
type Chunker struct {
	maxChunkSize   int
	overlap        int
	minChunkSize   int
	sentenceRegex  *regexp.Regexp
	paragraphRegex *regexp.Regexp
}

// NewChunker creates a chunker with the given size limits.
func NewChunker(maxChunkSize, overlap, minChunkSize int) *Chunker {
	return &Chunker{
		maxChunkSize:   maxChunkSize,
		overlap:        overlap,
		minChunkSize:   minChunkSize,
		sentenceRegex:  regexp.MustCompile(`[.!?]+[\s]+`),
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// Chunk splits text into ordered chunks. Paragraphs are kept together
// where they fit; oversized runs are closed at paragraph boundaries and
// the next chunk starts with a sentence-aligned overlap from the
// previous one.
func (c *Chunker) Chunk(text string) []models.Chunk {
	paragraphs := filterEmpty(c.paragraphRegex.Split(text, -1))
	if len(paragraphs) == 0 {
		return []models.Chunk{}
	}

	var chunks []models.Chunk
	current := new(strings.Builder)
	currentSize := 0
	order := 0

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if len(paragraph) == 0 {
			continue
		}

		if currentSize+len(paragraph) > c.maxChunkSize && currentSize >= c.minChunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, c.newChunk(current.String(), order))
				order++
			}

			current = new(strings.Builder)
			currentSize = 0

			if len(chunks) > 0 && c.overlap > 0 {
				overlapText := c.overlapText(chunks[len(chunks)-1].Text)
				if len(overlapText) > 0 {
					current.WriteString(overlapText)
					currentSize += len(overlapText)
				}
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
		currentSize += len(paragraph)
	}

	if current.Len() > 0 {
		chunks = append(chunks, c.newChunk(current.String(), order))
	}

	return chunks
}

func (c *Chunker) newChunk(text string, order int) models.Chunk {
	return models.Chunk{
		ChunkID:   uuid.NewString(),
		Text:      text,
		Order:     order,
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
	}
}

// overlapText takes trailing sentences from the previous chunk so the
// next chunk keeps some surrounding context.
func (c *Chunker) overlapText(text string) string {
	if len(text) <= c.overlap {
		return text
	}

	sentences := filterEmpty(c.sentenceRegex.Split(text, -1))
	if len(sentences) <= 1 {
		return text[len(text)-c.overlap:]
	}

	start := len(sentences)
	size := 0
	for start > 0 && size+len(sentences[start-1]) <= c.overlap {
		size += len(sentences[start-1])
		start--
	}
	if start == len(sentences) {
		return text[len(text)-c.overlap:]
	}
	return strings.Join(sentences[start:], ". ")
}

func filterEmpty(slice []string) []string {
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if len(strings.TrimSpace(s)) > 0 {
			result = append(result, s)
		}
	}
	return result
}
