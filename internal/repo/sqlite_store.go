package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// SQLiteStore is the embedded Store backed by GORM.
type SQLiteStore struct {
	db   *gorm.DB
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an opened and migrated database.
func NewSQLiteStore(db *gorm.DB, opts ...Option) *SQLiteStore {
	return &SQLiteStore{db: db, opts: applyOptions(opts)}
}

// DB exposes the underlying handle for migrations and tests.
func (s *SQLiteStore) DB() *gorm.DB { return s.db }

func (s *SQLiteStore) AddDocument(ctx context.Context, in domain.NewDocument) (string, error) {
	doc, err := CreateDocument(ctx, s.db, in, s.opts.chunkSize, s.opts.now())
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *SQLiteStore) UserDocuments(ctx context.Context, page Page) ([]domain.Document, int64, error) {
	total, err := CountDocuments(ctx, s.db, false)
	if err != nil {
		return nil, 0, err
	}
	docs, err := ListDocuments(ctx, s.db, false, page)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *SQLiteStore) SystemDocuments(ctx context.Context) ([]domain.Document, error) {
	return ListDocuments(ctx, s.db, true, Page{})
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	return DeleteDocument(ctx, s.db, id, false)
}

func (s *SQLiteStore) DeleteSystemDocument(ctx context.Context, id string) (bool, error) {
	return DeleteDocument(ctx, s.db, id, true)
}

func (s *SQLiteStore) CountSystemDocuments(ctx context.Context) (int64, error) {
	return CountDocuments(ctx, s.db, true)
}

func (s *SQLiteStore) DocumentStats(ctx context.Context, system bool) (int64, *time.Time, error) {
	return DocumentsStats(ctx, s.db, system)
}

func (s *SQLiteStore) MatchChunks(ctx context.Context, tokens []string) ([]domain.ChunkMatch, error) {
	return MatchChunks(ctx, s.db, tokens)
}

func (s *SQLiteStore) SystemPrompt(ctx context.Context) (string, error) {
	v, ok, err := GetSetting(ctx, s.db, domain.SettingSystemPrompt)
	if err != nil {
		return "", err
	}
	if !ok {
		return domain.DefaultSystemPrompt, nil
	}
	return v, nil
}

func (s *SQLiteStore) SaveSystemPrompt(ctx context.Context, text string) error {
	return UpsertSetting(ctx, s.db, domain.SettingSystemPrompt, text, s.opts.now())
}

func (s *SQLiteStore) FindUploadReceipt(ctx context.Context, scope, key string, now time.Time) (*domain.UploadReceipt, error) {
	return GetUploadReceipt(ctx, s.db, scope, key, now)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
