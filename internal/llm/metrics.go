package llm

import (
	"context"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// llmLatency records model call duration by provider, mode and outcome.
	// For streams it covers the first request through the last fragment.
	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of LLM calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64, 128},
		},
		[]string{"provider", "mode", "outcome"},
	)

	// llmFragments counts streamed fragments delivered to callers.
	llmFragments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_stream_fragments_total",
			Help: "Total number of streamed LLM response fragments.",
		},
		[]string{"provider"},
	)

	// promptTokens observes the size of assembled prompts.
	promptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_tokens",
			Help:    "Token count of prompts sent to the LLM.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64..32768
		},
	)
)

func init() {
	prometheus.MustRegister(llmLatency, llmFragments, promptTokens)
}

// ObservePromptTokens records the token size of one prompt.
func ObservePromptTokens(n int) {
	promptTokens.Observe(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// instrumented decorates a Client with Prometheus metrics.
type instrumented struct {
	next Client
}

// Instrument wraps c so every call is measured.
func Instrument(c Client) Client {
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{next: c}
}

func (i instrumented) Provider() string { return i.next.Provider() }

func (i instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	llmLatency.WithLabelValues(i.next.Provider(), "buffered", outcome(err)).Observe(time.Since(start).Seconds())
	return out, err
}

func (i instrumented) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		start := time.Now()
		provider := i.next.Provider()
		var failed error
		defer func() {
			llmLatency.WithLabelValues(provider, "streaming", outcome(failed)).Observe(time.Since(start).Seconds())
		}()

		for frag, err := range i.next.Stream(ctx, prompt) {
			if err != nil {
				failed = err
			} else {
				llmFragments.WithLabelValues(provider).Inc()
			}
			if !yield(frag, err) {
				return
			}
		}
	}
}
