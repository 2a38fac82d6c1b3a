package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/search"
)

// chunkBatchSize bounds a single multi-row INSERT of chunks.
const chunkBatchSize = 200

// buildDocument prepares the document row and its chunk rows. Content must
// already be known to be non-blank.
func buildDocument(in domain.NewDocument, chunkSize int, now time.Time) (*domain.Document, []domain.Chunk) {
	doc := &domain.Document{
		ID:               uuid.NewString(),
		Filename:         in.Filename,
		OriginalName:     in.OriginalName,
		Content:          in.Content,
		IsSystemDocument: in.IsSystem,
		FileSize:         int64(len(in.Content)),
		CreatedAt:        now,
	}
	pieces := search.Chunk(in.Content, chunkSize)
	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    p.Content,
			WordCount:  p.WordCount,
			SearchText: strings.ToLower(p.Content),
		}
	}
	return doc, chunks
}

// CreateDocument inserts a document, its chunks and in.Receipt in one
// transaction. Either every row is written or none is.
func CreateDocument(ctx context.Context, db *gorm.DB, in domain.NewDocument, chunkSize int, now time.Time) (*domain.Document, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}
	doc, chunks := buildDocument(in, chunkSize, now)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Receipt != nil {
			rec := *in.Receipt
			rec.DocumentID, rec.Filename = doc.ID, doc.Filename
			if err := replaceUploadReceipt(ctx, tx, rec, now); err != nil {
				return err
			}
		}
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, chunkBatchSize).Error
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents of the given kind, newest first.
// A zero page.Limit returns every row.
func ListDocuments(ctx context.Context, db *gorm.DB, system bool, page Page) ([]domain.Document, error) {
	var docs []domain.Document
	q := db.WithContext(ctx).
		Where("is_system_document = ?", system).
		Order("created_at DESC").Order("id DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}
	if err := q.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountDocuments returns the number of documents of the given kind.
func CountDocuments(ctx context.Context, db *gorm.DB, system bool) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Document{}).
		Where("is_system_document = ?", system).
		Count(&n).Error
	return n, err
}

// DeleteDocument removes the document id if its system flag equals system.
// Chunks go with it through the foreign key cascade. It reports whether a
// row was removed.
func DeleteDocument(ctx context.Context, db *gorm.DB, id string, system bool) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND is_system_document = ?", id, system).
		Delete(&domain.Document{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MatchChunks returns every chunk whose search text contains at least one
// token, joined with its document's display name, age and system flag.
// instr is used instead of LIKE so tokens need no wildcard escaping.
func MatchChunks(ctx context.Context, db *gorm.DB, tokens []string) ([]domain.ChunkMatch, error) {
	out := []domain.ChunkMatch{}
	if len(tokens) == 0 {
		return out, nil
	}

	conds := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, t := range tokens {
		conds[i] = "instr(dc.search_text, ?) > 0"
		args[i] = t
	}

	err := db.WithContext(ctx).
		Table("document_chunks AS dc").
		Select(`dc.document_id AS document_id,
			d.created_at AS document_at,
			dc.chunk_index AS chunk_index,
			dc.content AS content,
			dc.search_text AS search_text,
			d.original_name AS display_name,
			d.is_system_document AS is_system`).
		Joins("JOIN documents AS d ON d.id = dc.document_id").
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("d.created_at ASC").Order("dc.document_id ASC").Order("dc.chunk_index ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
