package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// postgresSchema is applied statement by statement by Migrate.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id                 TEXT PRIMARY KEY,
		filename           VARCHAR(255) NOT NULL,
		original_name      VARCHAR(255) NOT NULL,
		content            TEXT NOT NULL,
		is_system_document BOOLEAN NOT NULL DEFAULT FALSE,
		file_size          BIGINT NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_system_created ON documents (is_system_document, created_at)`,
	`CREATE TABLE IF NOT EXISTS document_chunks (
		id          TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON UPDATE CASCADE ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		content     TEXT NOT NULL,
		word_count  INTEGER NOT NULL,
		search_text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_doc_index ON document_chunks (document_id, chunk_index)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		id            BIGSERIAL PRIMARY KEY,
		setting_name  VARCHAR(100) NOT NULL UNIQUE,
		setting_value TEXT,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS upload_receipts (
		id          TEXT PRIMARY KEY,
		scope       TEXT NOT NULL,
		key         TEXT NOT NULL,
		document_id TEXT NOT NULL,
		filename    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_receipt_scope_key ON upload_receipts (scope, key)`,
	`CREATE INDEX IF NOT EXISTS idx_upload_receipts_expires_at ON upload_receipts (expires_at)`,
}

const documentColumns = `id, filename, original_name, content, is_system_document, file_size, created_at`

// PostgresStore is the networked Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	opts options
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PostgresStore{pool: pool, opts: applyOptions(opts)}, nil
}

// Migrate creates the schema if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}

func (p *PostgresStore) AddDocument(ctx context.Context, in domain.NewDocument) (string, error) {
	if strings.TrimSpace(in.Content) == "" {
		return "", ErrEmptyContent
	}
	doc, chunks := buildDocument(in, p.opts.chunkSize, p.opts.now())

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if in.Receipt != nil {
		rec := *in.Receipt
		rec.DocumentID, rec.Filename = doc.ID, doc.Filename
		if err := p.replaceReceipt(ctx, tx, rec); err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Filename, doc.OriginalName, doc.Content, doc.IsSystemDocument, doc.FileSize, doc.CreatedAt)
	if err != nil {
		return "", err
	}

	rows := make([][]any, len(chunks))
	for i, c := range chunks {
		rows[i] = []any{c.ID, c.DocumentID, c.ChunkIndex, c.Content, c.WordCount, c.SearchText}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"document_chunks"},
		[]string{"id", "document_id", "chunk_index", "content", "word_count", "search_text"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (p *PostgresStore) listDocuments(ctx context.Context, system bool, page Page) ([]domain.Document, error) {
	sql := `SELECT ` + documentColumns + ` FROM documents
		WHERE is_system_document = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{system}
	if page.Limit > 0 {
		sql += ` LIMIT $2 OFFSET $3`
		args = append(args, page.Limit, page.Offset)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Document, error) {
		var d domain.Document
		err := row.Scan(&d.ID, &d.Filename, &d.OriginalName, &d.Content, &d.IsSystemDocument, &d.FileSize, &d.CreatedAt)
		return d, err
	})
}

func (p *PostgresStore) UserDocuments(ctx context.Context, page Page) ([]domain.Document, int64, error) {
	total, err := p.countDocuments(ctx, false)
	if err != nil {
		return nil, 0, err
	}
	docs, err := p.listDocuments(ctx, false, page)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (p *PostgresStore) SystemDocuments(ctx context.Context) ([]domain.Document, error) {
	return p.listDocuments(ctx, true, Page{})
}

func (p *PostgresStore) deleteDocument(ctx context.Context, id string, system bool) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND is_system_document = $2`, id, system)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	return p.deleteDocument(ctx, id, false)
}

func (p *PostgresStore) DeleteSystemDocument(ctx context.Context, id string) (bool, error) {
	return p.deleteDocument(ctx, id, true)
}

func (p *PostgresStore) countDocuments(ctx context.Context, system bool) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE is_system_document = $1`, system).Scan(&n)
	return n, err
}

func (p *PostgresStore) CountSystemDocuments(ctx context.Context) (int64, error) {
	return p.countDocuments(ctx, true)
}

func (p *PostgresStore) DocumentStats(ctx context.Context, system bool) (int64, *time.Time, error) {
	var (
		n      int64
		newest *time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT count(*), max(created_at) FROM documents WHERE is_system_document = $1`, system).
		Scan(&n, &newest)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}
	return n, newest, nil
}

// MatchChunks uses strpos rather than LIKE so tokens need no escaping.
func (p *PostgresStore) MatchChunks(ctx context.Context, tokens []string) ([]domain.ChunkMatch, error) {
	out := []domain.ChunkMatch{}
	if len(tokens) == 0 {
		return out, nil
	}
	rows, err := p.pool.Query(ctx, `
		SELECT dc.document_id, d.created_at, dc.chunk_index, dc.content, dc.search_text,
		       d.original_name, d.is_system_document
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE EXISTS (SELECT 1 FROM unnest($1::text[]) AS t(tok) WHERE strpos(dc.search_text, t.tok) > 0)
		ORDER BY d.created_at ASC, dc.document_id ASC, dc.chunk_index ASC`, tokens)
	if err != nil {
		return nil, err
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChunkMatch, error) {
		var m domain.ChunkMatch
		err := row.Scan(&m.DocumentID, &m.DocumentAt, &m.ChunkIndex, &m.Content, &m.SearchText, &m.DisplayName, &m.IsSystem)
		return m, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresStore) SystemPrompt(ctx context.Context) (string, error) {
	var v *string
	err := p.pool.QueryRow(ctx,
		`SELECT setting_value FROM system_settings WHERE setting_name = $1`, domain.SettingSystemPrompt).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && v == nil) {
		return domain.DefaultSystemPrompt, nil
	}
	if err != nil {
		return "", err
	}
	return *v, nil
}

func (p *PostgresStore) SaveSystemPrompt(ctx context.Context, text string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO system_settings (setting_name, setting_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_name) DO UPDATE
		SET setting_value = EXCLUDED.setting_value, updated_at = EXCLUDED.updated_at`,
		domain.SettingSystemPrompt, text, p.opts.now())
	return err
}

func (p *PostgresStore) FindUploadReceipt(ctx context.Context, scope, key string, now time.Time) (*domain.UploadReceipt, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var r domain.UploadReceipt
	err := p.pool.QueryRow(ctx, `
		SELECT id, scope, key, document_id, filename, created_at, expires_at
		FROM upload_receipts
		WHERE scope = $1 AND key = $2 AND expires_at > $3`, scope, key, now).
		Scan(&r.ID, &r.Scope, &r.Key, &r.DocumentID, &r.Filename, &r.CreatedAt, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// replaceReceipt drops an expired receipt for rec's (scope, key) and
// inserts rec within tx, mapping a live duplicate to ErrDuplicate.
func (p *PostgresStore) replaceReceipt(ctx context.Context, tx pgx.Tx, rec domain.UploadReceipt) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = p.opts.now()
	}
	_, err := tx.Exec(ctx, `
		DELETE FROM upload_receipts
		WHERE scope = $1 AND key = $2 AND expires_at <= $3`, rec.Scope, rec.Key, rec.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO upload_receipts (id, scope, key, document_id, filename, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Scope, rec.Key, rec.DocumentID, rec.Filename, rec.CreatedAt, rec.ExpiresAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
