package domain

import "time"

// UploadReceipt records the document produced by an upload carrying an
// Idempotency-Key, so a retried request returns the same document instead
// of ingesting the file twice. Receipts are unique per (scope, key) and
// stop matching after ExpiresAt.
type UploadReceipt struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_scope_key,priority:1"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_scope_key,priority:2"`
	DocumentID string    `gorm:"type:TEXT NOT NULL"`
	Filename   string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (UploadReceipt) TableName() string { return "upload_receipts" }
