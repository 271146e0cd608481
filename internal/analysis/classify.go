package analysis

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/inference"
)

const (
	// MaxInputChars is the model input limit; longer text is truncated.
	MaxInputChars = 512
	// MinThemeTextChars: text of this length or shorter is not classified.
	MinThemeTextChars = 20
	// ThemeThreshold is the exclusive lower bound for a theme to be kept.
	ThemeThreshold = 0.3
	// MaxThemes caps the ranked theme list.
	MaxThemes = 3
)

// Taxonomy is the fixed set of candidate themes.
var Taxonomy = []string{
	"work stress", "relationships", "family", "health",
	"creativity", "personal growth", "anxiety", "gratitude",
	"accomplishments", "challenges", "hobbies", "social life",
}

// Truncate returns the first n characters (runes) of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ClassifySentiment submits the first 512 characters of text. It returns nil
// with an error when the classifier is unavailable, fails, or answers
// outside the {POSITIVE, NEGATIVE} x [0,1] contract.
func ClassifySentiment(ctx context.Context, c inference.SentimentClassifier, text string) (*domain.Sentiment, error) {
	if c == nil {
		return nil, inference.ErrUnavailable
	}
	s, err := c.ClassifySentiment(ctx, Truncate(text, MaxInputChars))
	if err != nil {
		return nil, err
	}
	if !s.Label.Valid() || s.Score < 0 || s.Score > 1 {
		return nil, fmt.Errorf("invalid sentiment %s/%v", s.Label, s.Score)
	}
	return &s, nil
}

// ClassifyThemes scores text against the taxonomy and returns at most three
// themes scoring above 0.3, best first. Text of 20 characters or fewer is
// skipped. On failure the list is empty and the error is returned for
// reporting.
func ClassifyThemes(ctx context.Context, c inference.ThemeClassifier, text string) ([]domain.Theme, error) {
	if utf8.RuneCountInString(text) <= MinThemeTextChars {
		return []domain.Theme{}, nil
	}
	if c == nil {
		return []domain.Theme{}, inference.ErrUnavailable
	}

	scored, err := c.ClassifyThemes(ctx, Truncate(text, MaxInputChars), Taxonomy)
	if err != nil {
		return []domain.Theme{}, err
	}
	return RankThemes(scored), nil
}

// RankThemes keeps themes scoring strictly above the threshold, orders them
// by descending score (ties keep input order) and truncates to MaxThemes.
func RankThemes(scored []domain.Theme) []domain.Theme {
	kept := make([]domain.Theme, 0, len(scored))
	for _, t := range scored {
		if t.Score > ThemeThreshold && t.Score <= 1 {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > MaxThemes {
		kept = kept[:MaxThemes]
	}
	return kept
}
