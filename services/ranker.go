package services

import (
	"sort"
	"strings"
	"unicode"

	"chatbot-retrieval-core/internal/store"
)

const (
	// DefaultContextLimit is the top-K applied when a caller omits a limit.
	DefaultContextLimit = 6

	// maxQueryLength caps normalization cost for hostile or pasted queries.
	maxQueryLength = 200
)

// RankChunks scores candidates against a query by term overlap and returns
// the text of the top candidates, at most limit.
//
// Each distinct query token contributes at most 1 to a candidate's score
// when it occurs anywhere in the lower-cased chunk text, regardless of
// repeats. Zero-score candidates are dropped. Ties keep the candidates'
// original relative order, so identical inputs always produce identical
// output. Pure function, no side effects.
func RankChunks(query string, candidates []store.Candidate, limit int) []string {
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	tokens := tokenizeQuery(query)
	if len(tokens) == 0 || len(candidates) == 0 {
		return []string{}
	}

	type scored struct {
		text  string
		score int
	}

	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		text := strings.ToLower(candidate.Text)
		score := 0
		for token := range tokens {
			if strings.Contains(text, token) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{text: candidate.Text, score: score})
		}
	}

	// Stability is the tie-break: no secondary sort key.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]string, len(ranked))
	for i, r := range ranked {
		result[i] = r.text
	}
	return result
}

// tokenizeQuery lower-cases and truncates the query, then splits it on
// non-alphanumeric runs into a set of distinct tokens.
func tokenizeQuery(query string) map[string]struct{} {
	query = strings.ToLower(query)
	if runes := []rune(query); len(runes) > maxQueryLength {
		query = string(runes[:maxQueryLength])
	}

	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field != "" {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}
