package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

func newChat(l *fakeLLM, r *fakeRetriever) *ChatService {
	s := &ChatService{
		Prompts:   fakePrompts{text: "You are a helpful business assistant."},
		Retriever: r,
		MaxChunks: 10,
	}
	if l != nil {
		s.LLM = l
	}
	return s
}

func TestChatService_NotConfigured(t *testing.T) {
	r := &fakeRetriever{}
	s := newChat(nil, r)
	if s.Configured() {
		t.Fatal("expected unconfigured service")
	}
	if _, err := s.Answer(context.Background(), "hello"); !errors.Is(err, ErrLLMNotConfigured) {
		t.Fatalf("Answer: expected ErrLLMNotConfigured, got %v", err)
	}
	if _, err := s.Stream(context.Background(), "hello"); !errors.Is(err, ErrLLMNotConfigured) {
		t.Fatalf("Stream: expected ErrLLMNotConfigured, got %v", err)
	}
	if r.calls != 0 {
		t.Fatal("retrieval must not run without a model")
	}
}

func TestChatService_EmptyMessage(t *testing.T) {
	s := newChat(&fakeLLM{}, &fakeRetriever{})
	if _, err := s.Answer(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatService_AnswerAssemblesPrompt(t *testing.T) {
	l := &fakeLLM{answer: "Hosting is extra."}
	r := &fakeRetriever{chunks: []domain.ScoredChunk{
		{Content: "web hosting is extra", DisplayName: "Pricing", Score: 3},
		{Content: "we build sites", DisplayName: "system-1.txt", IsSystem: true, Score: 1},
	}}
	s := newChat(l, r)

	out, err := s.Answer(context.Background(), "web hosting cost")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if out != "Hosting is extra." {
		t.Fatalf("unexpected answer %q", out)
	}
	if r.lastQ != "web hosting cost" || r.lastN != 10 {
		t.Fatalf("retriever called with (%q, %d)", r.lastQ, r.lastN)
	}
	if len(l.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(l.prompts))
	}
	p := l.prompts[0]
	for _, want := range []string{
		"You are a helpful business assistant.",
		"[Pricing]\nweb hosting is extra",
		"[Company Knowledge]\nwe build sites",
		"User question: web hosting cost",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestChatService_NoChunksStillAnswers(t *testing.T) {
	l := &fakeLLM{answer: "hi"}
	s := newChat(l, &fakeRetriever{})
	if _, err := s.Answer(context.Background(), "is a to"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if strings.Contains(l.prompts[0], "Relevant information") {
		t.Fatal("knowledge section must be omitted without chunks")
	}
}

func TestChatService_PrepareErrors(t *testing.T) {
	boom := errors.New("db down")

	s := newChat(&fakeLLM{}, &fakeRetriever{err: boom})
	if _, err := s.Answer(context.Background(), "pricing"); !errors.Is(err, boom) || errors.Is(err, ErrModelFailed) {
		t.Fatalf("expected retrieval error, got %v", err)
	}

	s = newChat(&fakeLLM{}, &fakeRetriever{})
	s.Prompts = fakePrompts{err: boom}
	if _, err := s.Stream(context.Background(), "pricing"); !errors.Is(err, boom) {
		t.Fatalf("expected prompt error, got %v", err)
	}
}

func TestChatService_ModelErrorIsWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := newChat(&fakeLLM{err: boom}, &fakeRetriever{})
	_, err := s.Answer(context.Background(), "pricing")
	if !errors.Is(err, ErrModelFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("message lost: %v", err)
	}
}

func TestChatService_StreamFragments(t *testing.T) {
	l := &fakeLLM{frags: []string{"Web ", "hosting ", "is extra."}}
	s := newChat(l, &fakeRetriever{})

	seq, err := s.Stream(context.Background(), "web hosting cost")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var b strings.Builder
	for frag, err := range seq {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b.WriteString(frag)
	}
	if b.String() != "Web hosting is extra." {
		t.Fatalf("got %q", b.String())
	}
}

func TestChatService_StreamErrorMidway(t *testing.T) {
	boom := errors.New("connection reset")
	s := newChat(&fakeLLM{frags: []string{"partial"}, err: boom}, &fakeRetriever{})

	seq, err := s.Stream(context.Background(), "pricing")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var frags []string
	var got error
	for frag, err := range seq {
		if err != nil {
			got = err
			continue
		}
		frags = append(frags, frag)
	}
	if len(frags) != 1 || frags[0] != "partial" {
		t.Fatalf("fragments before failure: %v", frags)
	}
	if !errors.Is(got, ErrModelFailed) || !errors.Is(got, boom) {
		t.Fatalf("expected wrapped model error, got %v", got)
	}
}

func TestChatService_StreamStopsWhenCallerStops(t *testing.T) {
	s := newChat(&fakeLLM{frags: []string{"a", "b", "c"}}, &fakeRetriever{})
	seq, err := s.Stream(context.Background(), "pricing")
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2 fragments, got %d", n)
	}
}

func TestChatService_StreamCancelled(t *testing.T) {
	s := newChat(&fakeLLM{frags: []string{"a", "b"}}, &fakeRetriever{})
	ctx, cancel := context.WithCancel(context.Background())
	seq, err := s.Stream(ctx, "pricing")
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	var got error
	for _, err := range seq {
		if err != nil {
			got = err
		}
	}
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got)
	}
}

type countTokens struct{ n int }

func (c *countTokens) Count(string) int { c.n++; return 42 }

func TestChatService_CountsPromptTokens(t *testing.T) {
	tc := &countTokens{}
	s := newChat(&fakeLLM{answer: "ok"}, &fakeRetriever{})
	s.Tokens = tc
	if _, err := s.Answer(context.Background(), "pricing"); err != nil {
		t.Fatal(err)
	}
	if tc.n != 1 {
		t.Fatalf("expected one token count, got %d", tc.n)
	}
}
