package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPreference returns the value for key and whether it is set.
func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var p Preference
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference: %w", err)
	}
	return p.Value, true, nil
}

// SetPreference inserts or replaces the value for key.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	p := Preference{Key: key, Value: value, UpdatedAt: s.now().Format(time.RFC3339)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}
