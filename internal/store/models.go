package store

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
)

// ThemeList is stored as a JSON array of {name, score} objects.
type ThemeList []domain.Theme

// Value implements driver.Valuer.
func (l ThemeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]domain.Theme(l))
	if err != nil {
		return nil, fmt.Errorf("encode themes: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ThemeList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ThemeList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan themes: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = ThemeList{}
		return nil
	}
	var themes []domain.Theme
	if err := json.Unmarshal(raw, &themes); err != nil {
		return fmt.Errorf("decode themes: %w", err)
	}
	*l = themes
	return nil
}

// Entry is one saved journal entry.
type Entry struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Timestamp      string          `gorm:"not null"` // RFC3339 with the writer's offset
	TimestampEpoch int64           `gorm:"index:idx_entries_timestamp,sort:desc;not null"`
	Content        string          `gorm:"type:text;not null"`
	Prompt         sql.NullString  `gorm:"type:text"`
	WordCount      int             `gorm:"default:0;not null"`
	TokenCount     int             `gorm:"default:0;not null"`
	UniqueWords    int             `gorm:"default:0;not null"`
	SentimentLabel sql.NullString  `gorm:"type:text;check:sentiment_label IN ('POSITIVE', 'NEGATIVE')"`
	SentimentScore sql.NullFloat64 `gorm:"type:real"`
	Themes         ThemeList       `gorm:"type:text"`
}

func (Entry) TableName() string { return "entries" }

// Preference is a free-form key/value setting.
type Preference struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt string `gorm:"not null"`
}

func (Preference) TableName() string { return "preferences" }

func newEntry(ts time.Time, content string, prompt *string, a domain.AnalysisResult) *Entry {
	e := &Entry{
		Timestamp:      ts.Format(time.RFC3339Nano),
		TimestampEpoch: ts.UnixMilli(),
		Content:        content,
		WordCount:      a.WordCount,
		TokenCount:     a.TokenCount,
		UniqueWords:    a.UniqueWords,
		Themes:         ThemeList(a.Themes),
	}
	if prompt != nil {
		e.Prompt = sql.NullString{String: *prompt, Valid: true}
	}
	if a.Sentiment != nil {
		e.SentimentLabel = sql.NullString{String: string(a.Sentiment.Label), Valid: true}
		e.SentimentScore = sql.NullFloat64{Float64: a.Sentiment.Score, Valid: true}
	}
	return e
}

func (e *Entry) toDomain() (domain.Entry, error) {
	ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("parse timestamp of entry %d: %w", e.ID, err)
	}

	out := domain.Entry{
		ID:          e.ID,
		Timestamp:   ts,
		Content:     e.Content,
		WordCount:   e.WordCount,
		TokenCount:  e.TokenCount,
		UniqueWords: e.UniqueWords,
		Themes:      []domain.Theme(e.Themes),
	}
	if out.Themes == nil {
		out.Themes = []domain.Theme{}
	}
	if e.Prompt.Valid {
		p := e.Prompt.String
		out.Prompt = &p
	}
	if e.SentimentLabel.Valid && e.SentimentScore.Valid {
		out.Sentiment = &domain.Sentiment{
			Label: domain.Label(e.SentimentLabel.String),
			Score: e.SentimentScore.Float64,
		}
	}
	return out, nil
}
