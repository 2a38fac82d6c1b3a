package search

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinPieces(ps []Piece) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Content
	}
	return strings.Join(parts, " ")
}

func TestChunk_EmptyTextYieldsNothing(t *testing.T) {
	assert.Empty(t, Chunk("", 500))
}

func TestChunk_SingleWindow(t *testing.T) {
	text := "web development costs five thousand dollars web hosting is extra"
	ps := Chunk(text, 500)
	require.Len(t, ps, 1)
	assert.Equal(t, text, ps[0].Content)
	assert.Equal(t, len(strings.Split(text, " ")), ps[0].WordCount)
}

func TestChunk_ExactAndPartialWindows(t *testing.T) {
	ps := Chunk("a b c d e f g", 3)
	require.Len(t, ps, 3)
	assert.Equal(t, []Piece{
		{Content: "a b c", WordCount: 3},
		{Content: "d e f", WordCount: 3},
		{Content: "g", WordCount: 1},
	}, ps)

	ps = Chunk("a b c d e f", 3)
	require.Len(t, ps, 2)
	assert.Equal(t, 3, ps[1].WordCount)
}

func TestChunk_KeepsEmptyWordsFromRepeatedSpaces(t *testing.T) {
	text := "one  two\nthree   four"
	ps := Chunk(text, 2)
	// split on " " gives: one, "", two\nthree, "", "", four
	require.Len(t, ps, 3)
	assert.Equal(t, "one ", ps[0].Content)
	assert.Equal(t, "two\nthree ", ps[1].Content)
	assert.Equal(t, " four", ps[2].Content)
	assert.Equal(t, text, joinPieces(ps))
}

func TestChunk_NonPositiveSizeUsesDefault(t *testing.T) {
	words := make([]string, DefaultChunkSize+1)
	for i := range words {
		words[i] = "w"
	}
	ps := Chunk(strings.Join(words, " "), 0)
	require.Len(t, ps, 2)
	assert.Equal(t, DefaultChunkSize, ps[0].WordCount)
	assert.Equal(t, 1, ps[1].WordCount)
}

func TestChunk_RoundTripAndSizeBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []string{"alpha", "beta", "", "gamma\n", "delta\t", "é", "x"}

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(60)
		words := make([]string, n)
		for i := range words {
			words[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := strings.Join(words, " ")
		size := 1 + rng.Intn(7)

		ps := Chunk(text, size)
		if text == "" {
			assert.Empty(t, ps)
			continue
		}

		// Round trip: joining with single spaces reproduces split/join of the input.
		assert.Equal(t, strings.Join(strings.Split(text, " "), " "), joinPieces(ps))

		// Size bound: every window is full except possibly the last.
		total := 0
		for i, p := range ps {
			assert.LessOrEqual(t, p.WordCount, size)
			if i < len(ps)-1 {
				assert.Equal(t, size, p.WordCount)
			}
			assert.Equal(t, p.WordCount, len(strings.Split(p.Content, " ")))
			total += p.WordCount
		}
		assert.Equal(t, len(strings.Split(text, " ")), total)
	}
}
