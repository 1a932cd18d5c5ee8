package services

import (
	"reflect"
	"strings"
	"testing"

	"chatbot-retrieval-core/internal/store"
)

func TestRankChunksOrdersByDistinctTermOverlap(t *testing.T) {
	candidates := []store.Candidate{
		{ChunkID: "a", Text: "the cat sat"},
		{ChunkID: "b", Text: "the dog ran"},
		{ChunkID: "c", Text: "cats and dogs"},
	}

	// "cats and dogs" matches both tokens via substring; the one-token
	// matches keep input order and fill the remaining slot.
	got := RankChunks("cat dog", candidates, 2)
	want := []string{"cats and dogs", "the cat sat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRankChunksEmptyQuery(t *testing.T) {
	candidates := []store.Candidate{{ChunkID: "a", Text: "anything"}}

	for _, query := range []string{"", "   ", "!!! ???"} {
		got := RankChunks(query, candidates, 5)
		if got == nil {
			t.Fatalf("query %q: expected empty slice, got nil", query)
		}
		if len(got) != 0 {
			t.Fatalf("query %q: expected no results, got %v", query, got)
		}
	}
}

func TestRankChunksEmptyCandidates(t *testing.T) {
	got := RankChunks("cat", nil, 5)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestRankChunksDropsZeroScore(t *testing.T) {
	candidates := []store.Candidate{
		{ChunkID: "a", Text: "completely unrelated"},
		{ChunkID: "b", Text: "has the cat though"},
	}

	got := RankChunks("cat", candidates, 10)
	if len(got) != 1 || got[0] != "has the cat though" {
		t.Fatalf("expected only the matching candidate, got %v", got)
	}
}

func TestRankChunksRepeatedTokenCountsOnce(t *testing.T) {
	candidates := []store.Candidate{
		{ChunkID: "a", Text: "cat cat cat cat"},
		{ChunkID: "b", Text: "cat and dog"},
	}

	// Repeats in neither the query nor the text raise a score. The
	// candidate matching two distinct tokens must win.
	got := RankChunks("cat cat dog", candidates, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %v", got)
	}
	if got[0] != "cat and dog" {
		t.Fatalf("expected two-token candidate first, got %v", got)
	}
}

func TestRankChunksLimit(t *testing.T) {
	var candidates []store.Candidate
	for i := 0; i < 20; i++ {
		candidates = append(candidates, store.Candidate{Text: "match target"})
	}

	if got := RankChunks("match", candidates, 3); len(got) != 3 {
		t.Fatalf("expected limit 3 applied, got %d results", len(got))
	}

	if got := RankChunks("match", candidates, 0); len(got) != DefaultContextLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultContextLimit, len(got))
	}
}

func TestRankChunksTiesKeepInputOrder(t *testing.T) {
	candidates := []store.Candidate{
		{ChunkID: "first", Text: "cat one"},
		{ChunkID: "second", Text: "cat two"},
		{ChunkID: "third", Text: "cat three"},
	}

	got := RankChunks("cat", candidates, 3)
	want := []string{"cat one", "cat two", "cat three"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tie-break changed input order: got %v", got)
	}
}

func TestRankChunksDeterministic(t *testing.T) {
	candidates := []store.Candidate{
		{Text: "alpha cat"},
		{Text: "beta cat dog"},
		{Text: "gamma dog"},
		{Text: "delta cat dog bird"},
	}

	first := RankChunks("cat dog bird", candidates, 4)
	for i := 0; i < 50; i++ {
		if got := RankChunks("cat dog bird", candidates, 4); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %v vs %v", i, got, first)
		}
	}
}

func TestRankChunksTruncatesLongQuery(t *testing.T) {
	// Tokens past the truncation point must not influence scoring.
	longQuery := strings.Repeat("x", 300) + " needle"
	candidates := []store.Candidate{{Text: "the needle is here"}}

	if got := RankChunks(longQuery, candidates, 5); len(got) != 0 {
		t.Fatalf("expected truncated query to miss, got %v", got)
	}
}

func TestRankChunksTruncationCountsRunes(t *testing.T) {
	// 180 two-byte runes followed by a match token: inside the 200-rune
	// cap even though the prefix alone is over 200 bytes.
	query := strings.Repeat("é", 180) + " cat"
	candidates := []store.Candidate{{Text: "the cat sat"}}

	got := RankChunks(query, candidates, 5)
	if len(got) != 1 || got[0] != "the cat sat" {
		t.Fatalf("token within 200 runes was lost to truncation, got %v", got)
	}

	// Past 200 runes the token must be cut.
	query = strings.Repeat("é", 200) + " cat"
	if got := RankChunks(query, candidates, 5); len(got) != 0 {
		t.Fatalf("expected token past the rune cap ignored, got %v", got)
	}
}

func TestRankChunksCaseInsensitive(t *testing.T) {
	candidates := []store.Candidate{{Text: "The CAT Sat"}}

	got := RankChunks("cAt", candidates, 1)
	if len(got) != 1 || got[0] != "The CAT Sat" {
		t.Fatalf("expected case-insensitive match preserving original text, got %v", got)
	}
}
