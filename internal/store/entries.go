package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pbaille/serenity/internal/domain"
)

// CreateEntry persists a new entry stamped with the store clock.
func (s *Store) CreateEntry(ctx context.Context, content string, prompt *string, analysis domain.AnalysisResult) (domain.Entry, error) {
	row := newEntry(s.now(), content, prompt, analysis)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return domain.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return row.toDomain()
}

// ListEntries returns entries most recent first. A limit <= 0 returns all.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	q := s.db.WithContext(ctx).Order("timestamp_epoch DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Entry
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return toDomain(rows)
}

// GetEntry retrieves an entry by id.
func (s *Store) GetEntry(ctx context.Context, id int64) (domain.Entry, error) {
	var row Entry
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Entry{}, ErrNotFound
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return row.toDomain()
}

// DeleteEntry removes an entry and reports whether it existed.
func (s *Store) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&Entry{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete entry: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClearEntries deletes every entry and returns how many were removed.
func (s *Store) ClearEntries(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SearchEntries finds entries whose content contains query, ignoring case.
func (s *Store) SearchEntries(ctx context.Context, query string) ([]domain.Entry, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var rows []Entry
	err := s.db.WithContext(ctx).
		Where(`LOWER(content) LIKE ? ESCAPE '\'`, pattern).
		Order("timestamp_epoch DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return toDomain(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func toDomain(rows []Entry) ([]domain.Entry, error) {
	entries := make([]domain.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
