package services

import (
	"context"
	"io"
	"iter"
	"sync"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/extract"
)

// ----- Fake LLM -----

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string

	answer string
	frags  []string
	err    error // returned by Generate, or yielded after frags by Stream
}

func (f *fakeLLM) Provider() string { return "fake" }

func (f *fakeLLM) record(p string) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()
}

func (f *fakeLLM) Generate(_ context.Context, p string) (string, error) {
	f.record(p)
	return f.answer, f.err
}

func (f *fakeLLM) Stream(ctx context.Context, p string) iter.Seq2[string, error] {
	f.record(p)
	return func(yield func(string, error) bool) {
		for _, fr := range f.frags {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(fr, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

// ----- Fake prompt source / retriever -----

type fakePrompts struct {
	text string
	err  error
}

func (f fakePrompts) Get(context.Context) (string, error) { return f.text, f.err }

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
	calls  int
	lastQ  string
	lastN  int
}

func (f *fakeRetriever) FindRelevant(_ context.Context, q string, n int) ([]domain.ScoredChunk, error) {
	f.calls++
	f.lastQ, f.lastN = q, n
	return f.chunks, f.err
}

// ----- Fake extractor -----

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, r io.Reader, ct string) (extract.Result, error) {
	f.calls++
	_, _ = io.Copy(io.Discard, r)
	if f.err != nil {
		return extract.Result{}, f.err
	}
	return extract.Result{Text: f.text, MediaType: ct}, nil
}

// ----- Fake prompt cache -----

type fakeCache struct {
	val         string
	has         bool
	sets        int
	invalidated int
}

func (c *fakeCache) Get(context.Context) (string, bool) { return c.val, c.has }

func (c *fakeCache) Set(_ context.Context, p string) {
	c.val, c.has = p, true
	c.sets++
}

func (c *fakeCache) Invalidate(context.Context) {
	c.val, c.has = "", false
	c.invalidated++
}
