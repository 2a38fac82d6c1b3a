package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/rag-chat-backend/internal/config"
)

type fakeClient struct {
	answer string
	frags  []string
	err    error
}

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) Generate(context.Context, string) (string, error) { return f.answer, f.err }

func (f *fakeClient) Stream(context.Context, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, fr := range f.frags {
			if !yield(fr, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for frag, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, frag)
	}
	return out, nil
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderGemini})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, GeminiAPIKey: "only-gemini"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())

	c, err = New(context.Background(), config.LLMConfig{Provider: config.ProviderGemini, GeminiAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider())

	_, err = New(context.Background(), config.LLMConfig{Provider: "mystery", GeminiAPIKey: "k"})
	assert.Error(t, err)
}

func TestInstrument_PassesThroughAndCounts(t *testing.T) {
	c := Instrument(&fakeClient{answer: "full", frags: []string{"a", "b", "c"}})
	assert.Equal(t, c, Instrument(c), "already instrumented clients are not wrapped twice")

	out, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "full", out)

	before := testutil.ToFloat64(llmFragments.WithLabelValues("fake"))
	frags, err := collect(c.Stream(context.Background(), "p"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, frags)
	assert.Equal(t, before+3, testutil.ToFloat64(llmFragments.WithLabelValues("fake")))
}

func TestInstrument_StreamErrorAndEarlyStop(t *testing.T) {
	boom := errors.New("upstream reset")
	c := Instrument(&fakeClient{frags: []string{"x", "y"}, err: boom})

	frags, err := collect(c.Stream(context.Background(), "p"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"x", "y"}, frags)

	n := 0
	for range c.Stream(context.Background(), "p") {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestTokenCounter_FallsBackToWords(t *testing.T) {
	var calls atomic.Int32
	tc := &tiktokenCounter{model: "m", load: func(string) (*tiktoken.Tiktoken, error) {
		calls.Add(1)
		return nil, errors.New("offline")
	}}
	tc.warm()
	tc.warm()
	assert.Equal(t, 3, tc.Count("one two  three"))
	assert.Equal(t, 0, tc.Count(""))
	assert.Equal(t, int32(1), calls.Load(), "encoding is loaded once")
}

func TestTokenCounter_CountDoesNotWaitForLoad(t *testing.T) {
	release := make(chan struct{})
	loading := make(chan struct{})
	tc := &tiktokenCounter{model: "m", load: func(string) (*tiktoken.Tiktoken, error) {
		close(loading)
		<-release
		return nil, errors.New("offline")
	}}

	WarmUp(tc)
	<-loading
	// The load is still in flight; Count answers from the word fallback.
	assert.Equal(t, 2, tc.Count("hosting costs"))
	assert.Equal(t, 2, tc.Count("hosting costs"))
	close(release)
	tc.warm()
	assert.Nil(t, tc.enc.Load())
}

func TestNewTokenCounter_DefaultModel(t *testing.T) {
	tc := NewTokenCounter("").(*tiktokenCounter)
	assert.Equal(t, DefaultTokenizerModel, tc.model)
}

func TestOpenAI_Generate(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hosting costs extra."}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "m", BaseURL: srv.URL + "/"})
	out, err := c.Generate(context.Background(), "what does hosting cost")
	require.NoError(t, err)
	assert.Equal(t, "Hosting costs extra.", out)
	assert.Contains(t, gotBody, "what does hosting cost")
	assert.Contains(t, gotBody, `"model":"m"`)
}

func TestOpenAI_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/"})
	frags, err := collect(c.Stream(context.Background(), "hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, frags)
}

func TestOpenAI_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/"})
	_, err := c.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai generate")

	_, err = collect(c.Stream(context.Background(), "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai stream")
}

func TestGemini_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Web hosting is extra."}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "hosting?")
	require.NoError(t, err)
	assert.Equal(t, "Web hosting is extra.", out)
}

func TestNewGemini_DefaultsAndKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, g.model)
}

func failingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNew_OpenAIDoesNotRetryByDefault(t *testing.T) {
	srv, hits := failingServer(t)

	c, err := New(context.Background(), config.LLMConfig{
		Provider:      config.ProviderOpenAI,
		OpenAIAPIKey:  "k",
		OpenAIBaseURL: srv.URL + "/",
	})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNew_OpenAIRetriesWhenConfigured(t *testing.T) {
	srv, hits := failingServer(t)

	c, err := New(context.Background(), config.LLMConfig{
		Provider:      config.ProviderOpenAI,
		OpenAIAPIKey:  "k",
		OpenAIBaseURL: srv.URL + "/",
		MaxRetries:    1,
	})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
