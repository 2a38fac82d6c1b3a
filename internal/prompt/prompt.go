// Package prompt builds the single text prompt sent to the model.
package prompt

import (
	"strings"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// SystemLabel replaces the display name of system documents in the prompt.
const SystemLabel = "Company Knowledge"

const (
	knowledgeHeader = "\n\nRelevant information from the knowledge base:\n\n"
	chunkSeparator  = "\n\n---\n\n"
)

// Assemble concatenates the system prompt, the retrieved chunks (if any)
// and the user's message. Nothing is truncated.
func Assemble(systemPrompt string, chunks []domain.ScoredChunk, message string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if len(chunks) > 0 {
		b.WriteString(knowledgeHeader)
		for i, c := range chunks {
			if i > 0 {
				b.WriteString(chunkSeparator)
			}
			b.WriteByte('[')
			b.WriteString(Label(c))
			b.WriteString("]\n")
			b.WriteString(c.Content)
		}
	}

	b.WriteString("\n\nUser question: ")
	b.WriteString(message)
	b.WriteString("\n\nPlease provide a helpful response.")
	return b.String()
}

// Label is the bracketed source name shown for a chunk.
func Label(c domain.ScoredChunk) string {
	if c.IsSystem {
		return SystemLabel
	}
	return c.DisplayName
}
