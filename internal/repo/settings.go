package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// GetSetting returns the value stored under name. ok is false when the
// setting has never been saved.
func GetSetting(ctx context.Context, db *gorm.DB, name string) (value string, ok bool, err error) {
	var s domain.SystemSetting
	err = db.WithContext(ctx).Where("setting_name = ?", name).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// UpsertSetting inserts or overwrites the setting called name.
func UpsertSetting(ctx context.Context, db *gorm.DB, name, value string, now time.Time) error {
	s := domain.SystemSetting{Name: name, Value: value, UpdatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&s).Error
}
