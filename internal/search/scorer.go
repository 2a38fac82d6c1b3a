package search

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// DefaultMaxChunks caps results when the caller passes a non-positive max.
const DefaultMaxChunks = 10

const (
	minTokenRunes = 3 // tokens of 2 runes or fewer are dropped
	floorResults  = 5
	perTokenLimit = 2
)

// CandidateSource returns every chunk whose lowercased content contains at
// least one of the given lowercase tokens. Implementations may return extra
// rows; the scorer re-checks each candidate.
type CandidateSource interface {
	MatchChunks(ctx context.Context, tokens []string) ([]domain.ChunkMatch, error)
}

// Scorer ranks stored chunks against a free-text query by counting how many
// distinct query tokens each chunk contains as a case-insensitive substring.
// There is no stemming, weighting or synonym expansion.
//
// Scorer is safe for concurrent use if its CandidateSource is.
type Scorer struct {
	src CandidateSource
}

// NewScorer returns a Scorer reading candidates from src.
func NewScorer(src CandidateSource) *Scorer {
	return &Scorer{src: src}
}

// FindRelevant returns at most EffectiveMax(maxChunks, tokens) chunks ordered
// by descending score, then ascending chunk index. A query without usable
// tokens returns an empty result without querying the source.
func (s *Scorer) FindRelevant(ctx context.Context, query string, maxChunks int) ([]domain.ScoredChunk, error) {
	tokens := QueryTokens(query)
	if len(tokens) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	limit := EffectiveMax(maxChunks, len(tokens))

	cands, err := s.src.MatchChunks(ctx, tokens)
	if err != nil {
		return nil, err
	}
	return Rank(cands, tokens, limit), nil
}

// QueryTokens lowercases q, splits it on single spaces, drops tokens shorter
// than three runes and removes duplicates while keeping first-seen order.
func QueryTokens(q string) []string {
	parts := strings.Split(strings.ToLower(q), " ")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) < minTokenRunes {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// EffectiveMax is min(maxChunks, max(5, 2*tokenCount)). A non-positive
// maxChunks means DefaultMaxChunks.
func EffectiveMax(maxChunks, tokenCount int) int {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return min(maxChunks, max(floorResults, perTokenLimit*tokenCount))
}

// Score counts the tokens contained in text. text must already be lowercase.
func Score(text string, tokens []string) int {
	n := 0
	for _, t := range tokens {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

// Rank scores cands against tokens, drops non-matching chunks, orders the
// rest and truncates to limit. Ties on score and chunk index fall back to
// document age and id so the order is stable across backends.
func Rank(cands []domain.ChunkMatch, tokens []string, limit int) []domain.ScoredChunk {
	type scored struct {
		m     domain.ChunkMatch
		score int
	}
	hits := make([]scored, 0, len(cands))
	for _, c := range cands {
		text := c.SearchText
		if text == "" {
			text = strings.ToLower(c.Content)
		}
		if n := Score(text, tokens); n > 0 {
			hits = append(hits, scored{m: c, score: n})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.m.ChunkIndex != b.m.ChunkIndex {
			return a.m.ChunkIndex < b.m.ChunkIndex
		}
		if !a.m.DocumentAt.Equal(b.m.DocumentAt) {
			return a.m.DocumentAt.Before(b.m.DocumentAt)
		}
		return a.m.DocumentID < b.m.DocumentID
	})

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{
			DocumentID:  h.m.DocumentID,
			ChunkIndex:  h.m.ChunkIndex,
			Content:     h.m.Content,
			DisplayName: h.m.DisplayName,
			IsSystem:    h.m.IsSystem,
			Score:       h.score,
		}
	}
	return out
}
