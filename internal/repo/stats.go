package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// DocumentsStats returns the number of user (system=false) or system
// (system=true) documents and the newest CreatedAt among them. The HTTP
// layer derives listing ETags from these two values.
//
// When there are no rows, count is 0 and newest is nil.
func DocumentsStats(ctx context.Context, db *gorm.DB, system bool) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Document{}).Where("is_system_document = ?", system)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
