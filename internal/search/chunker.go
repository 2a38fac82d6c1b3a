// Package search holds the retrieval core: a word-window chunker used at
// ingestion time and a keyword scorer used on every chat turn. Neither part
// logs or touches storage directly; the scorer reads candidates through the
// CandidateSource interface so any store backend can feed it.
package search

import "strings"

// DefaultChunkSize is the number of words per chunk when none is configured.
const DefaultChunkSize = 500

// Piece is one chunk of a document before it is persisted. Its position in
// the slice returned by Chunk is its chunk index.
type Piece struct {
	Content   string
	WordCount int
}

// Chunk splits text on single spaces and groups the words into consecutive,
// non-overlapping windows of at most chunkSize words. Consecutive spaces
// yield empty words, which are kept so that joining all pieces with " "
// gives back the input. Empty text yields no pieces.
func Chunk(text string, chunkSize int) []Piece {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	words := strings.Split(text, " ")
	out := make([]Piece, 0, (len(words)+chunkSize-1)/chunkSize)
	for i := 0; i < len(words); i += chunkSize {
		end := min(i+chunkSize, len(words))
		out = append(out, Piece{
			Content:   strings.Join(words[i:end], " "),
			WordCount: end - i,
		})
	}
	return out
}
