// Package domain defines the persistence models for documents, their
// retrievable chunks, and system settings. These types are mapped with GORM
// for the embedded store and mirrored by hand-written SQL for Postgres.
package domain

import "time"

// DefaultSystemPrompt is returned when no system prompt has been saved yet.
const DefaultSystemPrompt = "You are a helpful business assistant."

// SettingSystemPrompt is the system_settings key holding the prompt text.
const SettingSystemPrompt = "system_prompt"

// Document is an uploaded (user) or business-owned (system) text source.
// Its content is split into Chunks at creation time and never edited.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Filename: storage name, "<unix-millis>-<original>.txt" for uploads.
//   - OriginalName: display name shown to users and used as prompt label.
//   - Content: full extracted text; never empty.
//   - IsSystemDocument: hidden from the user listing and protected from
//     user-facing deletion.
//   - FileSize: byte length of Content (UTF-8).
//   - CreatedAt: upload time; exposed as upload_date.
type Document struct {
	ID               string    `json:"id"            gorm:"type:char(36);primaryKey"`
	Filename         string    `json:"filename"      gorm:"type:varchar(255);not null"`
	OriginalName     string    `json:"original_name" gorm:"type:varchar(255);not null"`
	Content          string    `json:"-"             gorm:"type:text;not null"`
	IsSystemDocument bool      `json:"is_system_document" gorm:"not null;default:false;index:idx_documents_system_created,priority:1"`
	FileSize         int64     `json:"file_size"`
	CreatedAt        time.Time `json:"upload_date"   gorm:"index:idx_documents_system_created,priority:2"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Chunk is a contiguous word window of a Document's content and the unit
// of retrieval.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - DocumentID: owning document (indexed, cascade delete).
//   - ChunkIndex: zero-based position inside the document.
//   - Content: the window's words joined with single spaces.
//   - WordCount: number of words in the window.
//   - SearchText: lowercased Content used by the substring prefilter.
type Chunk struct {
	ID         string `json:"id"          gorm:"type:char(36);primaryKey"`
	DocumentID string `json:"document_id" gorm:"type:char(36);not null;index:idx_chunks_doc_index,priority:1"`
	ChunkIndex int    `json:"chunk_index" gorm:"not null;index:idx_chunks_doc_index,priority:2"`
	Content    string `json:"content"     gorm:"type:text;not null"`
	WordCount  int    `json:"word_count"  gorm:"not null"`
	SearchText string `json:"-"           gorm:"type:text;not null"`

	// Document is the owner. Chunks are cascade-deleted with it.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Chunk.
func (Chunk) TableName() string { return "document_chunks" }

// SystemSetting is a keyed singleton value such as the system prompt.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"column:setting_name;type:varchar(100);not null;uniqueIndex"`
	Value     string    `gorm:"column:setting_value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the database table name for SystemSetting.
func (SystemSetting) TableName() string { return "system_settings" }

// NewDocument is the input to a store's AddDocument.
type NewDocument struct {
	Filename     string
	OriginalName string
	Content      string
	IsSystem     bool
	// Receipt, when set, is written in the same transaction as the document
	// with DocumentID and Filename taken from it. A live receipt for the same
	// (Scope, Key) fails the whole insert.
	Receipt *UploadReceipt
}

// ChunkMatch is a candidate chunk returned by a store for scoring, joined
// with the owning document's metadata.
type ChunkMatch struct {
	DocumentID  string
	DocumentAt  time.Time
	ChunkIndex  int
	Content     string
	SearchText  string
	DisplayName string
	IsSystem    bool
}

// ScoredChunk is a retrieval result ready for prompt assembly.
type ScoredChunk struct {
	DocumentID  string `json:"document_id"`
	ChunkIndex  int    `json:"chunk_index"`
	Content     string `json:"content"`
	DisplayName string `json:"original_name"`
	IsSystem    bool   `json:"is_system_document"`
	Score       int    `json:"relevance_score"`
}
