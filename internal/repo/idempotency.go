package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// GetUploadReceipt returns a non-expired receipt for (scope, key) or ErrNotFound.
func GetUploadReceipt(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.UploadReceipt, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.UploadReceipt
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateUploadReceipt inserts rec and returns ErrDuplicate on unique violation.
// An empty ID is filled with a fresh UUID.
func CreateUploadReceipt(ctx context.Context, db *gorm.DB, rec domain.UploadReceipt) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// replaceUploadReceipt drops a receipt for rec's (scope, key) that expired
// by rec.CreatedAt (or now, when unset) and inserts rec. A live receipt
// makes it return ErrDuplicate.
func replaceUploadReceipt(ctx context.Context, db *gorm.DB, rec domain.UploadReceipt, now time.Time) error {
	if !rec.CreatedAt.IsZero() {
		now = rec.CreatedAt
	}
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at <= ?", rec.Scope, rec.Key, now).
		Delete(&domain.UploadReceipt{}).Error
	if err != nil {
		return err
	}
	return CreateUploadReceipt(ctx, db, rec)
}

// isUniqueViolation matches unique-key errors from GORM and SQLite.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
