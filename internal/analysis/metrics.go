// Package analysis turns raw entry text into a per-entry analysis record:
// text metrics, sentiment and ranked themes.
package analysis

import (
	"strings"

	"github.com/pbaille/serenity/internal/inference"
)

// Metrics are the lexical counts of a text.
type Metrics struct {
	WordCount   int `json:"word_count"`
	TokenCount  int `json:"token_count"`
	UniqueWords int `json:"unique_words"`
}

// ExtractMetrics counts whitespace-delimited words, distinct case-folded
// words and subword tokens. A nil or failing tokenizer yields TokenCount 0;
// the error is returned for the caller to report but the other counts are
// always filled.
func ExtractMetrics(text string, tok inference.Tokenizer) (Metrics, error) {
	fields := strings.Fields(text)

	unique := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		unique[strings.ToLower(f)] = struct{}{}
	}

	m := Metrics{
		WordCount:   len(fields),
		UniqueWords: len(unique),
	}

	if tok == nil || len(fields) == 0 {
		return m, nil
	}
	n, err := tok.CountTokens(text)
	if err != nil || n < 0 {
		return m, err
	}
	m.TokenCount = n
	return m, nil
}
