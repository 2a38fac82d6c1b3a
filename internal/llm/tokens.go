package llm

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// DefaultTokenizerModel selects the BPE used for prompt accounting.
const DefaultTokenizerModel = "gpt-3.5-turbo"

// TokenCounter measures prompt size in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter loads its encoding once, in the background. tiktoken-go
// fetches BPE ranks over the network unless they are cached, so until the
// encoding is ready, or if loading fails, Count falls back to a whitespace
// word count instead of blocking or failing the request.
type tiktokenCounter struct {
	model string
	load  func(model string) (*tiktoken.Tiktoken, error)

	once    sync.Once
	started atomic.Bool
	enc     atomic.Pointer[tiktoken.Tiktoken]
}

// NewTokenCounter returns a tiktoken counter for model. Call WarmUp to load
// the encoding ahead of the first Count.
func NewTokenCounter(model string) TokenCounter {
	if model == "" {
		model = DefaultTokenizerModel
	}
	return &tiktokenCounter{model: model, load: tiktoken.EncodingForModel}
}

// WarmUp starts loading tc's encoding in the background. Counters without
// a lazy encoding are left alone.
func WarmUp(tc TokenCounter) {
	if t, ok := tc.(*tiktokenCounter); ok {
		t.start()
	}
}

func (t *tiktokenCounter) start() {
	if t.started.CompareAndSwap(false, true) {
		go t.warm()
	}
}

// warm loads the encoding, blocking until the first load attempt is done.
func (t *tiktokenCounter) warm() {
	t.once.Do(func() {
		enc, err := t.load(t.model)
		if err != nil {
			log.Warn().Err(err).Str("model", t.model).Msg("tokenizer unavailable; counting words")
			return
		}
		t.enc.Store(enc)
	})
}

func (t *tiktokenCounter) Count(text string) int {
	if enc := t.enc.Load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	t.start()
	return len(strings.Fields(text))
}
