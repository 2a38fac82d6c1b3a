package services

import "github.com/prometheus/client_golang/prometheus"

// retrievalChunks records how many chunks each chat request retrieved.
var retrievalChunks = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "retrieval_chunks_returned",
		Help:    "Number of knowledge base chunks included in a chat prompt.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
	},
)

func init() {
	prometheus.MustRegister(retrievalChunks)
}
