// Package seed loads the built-in business documents and inserts them as
// system documents into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

//go:embed business.toml
var businessTOML []byte

// Entry is one catalogue document.
type Entry struct {
	Name    string `toml:"name"`
	Content string `toml:"content"`
}

// Catalogue is the parsed seed file.
type Catalogue struct {
	Documents []Entry `toml:"documents"`
}

// Store is the subset of repo.Store that seeding needs.
type Store interface {
	CountSystemDocuments(ctx context.Context) (int64, error)
	AddDocument(ctx context.Context, in domain.NewDocument) (string, error)
}

// Parse decodes a TOML catalogue and checks every entry has a name and text.
func Parse(data []byte) (Catalogue, error) {
	var c Catalogue
	if err := toml.Unmarshal(data, &c); err != nil {
		return Catalogue{}, fmt.Errorf("seed catalogue: %w", err)
	}
	for i, e := range c.Documents {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Content) == "" {
			return Catalogue{}, fmt.Errorf("seed catalogue: document %d needs name and content", i+1)
		}
	}
	return c, nil
}

// Default returns the embedded business catalogue.
func Default() Catalogue {
	c, err := Parse(businessTOML)
	if err != nil {
		panic(err) // embedded file is validated by tests
	}
	return c
}

// Run inserts every catalogue document as a system document when the store
// holds none. It returns how many documents were added.
func Run(ctx context.Context, st Store, cat Catalogue) (int, error) {
	lg := zerolog.Ctx(ctx)

	n, err := st.CountSystemDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("count system documents: %w", err)
	}
	if n > 0 {
		lg.Debug().Int64("existing", n).Msg("system documents present; skipping seed")
		return 0, nil
	}

	added := 0
	for i, e := range cat.Documents {
		id, err := st.AddDocument(ctx, domain.NewDocument{
			Filename:     fmt.Sprintf("system-%d.txt", i+1),
			OriginalName: e.Name,
			Content:      e.Content,
			IsSystem:     true,
		})
		if err != nil {
			return added, fmt.Errorf("seed %q: %w", e.Name, err)
		}
		lg.Info().Str("document_id", id).Str("name", e.Name).Msg("seeded system document")
		added++
	}
	return added, nil
}
