// Package prompts picks the reflective writing prompt shown before an entry
// is written, based on the tone and wording of the latest entries.
package prompts

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pbaille/serenity/internal/analysis"
	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/inference"
)

const (
	// RecentEntries is how many of the latest entries are inspected.
	RecentEntries = 3
	// SnippetChars is how much of each entry's content is used.
	SnippetChars = 200
)

// Signals are what the rules inspect.
type Signals struct {
	HasEntries bool
	Text       string // lower-cased concatenation of recent snippets
	Sentiment  *domain.Sentiment
}

// Rule maps a condition on the signals to a prompt pool.
type Rule struct {
	Name  string
	Match func(Signals) bool
	Pool  Pool
}

// Rules is the decision table, evaluated top to bottom; the first match wins.
//
//	no entries                              -> default
//	NEGATIVE with score > 0.6               -> stress
//	POSITIVE with score > 0.7               -> positive
//	idea|create|imagine|design|art          -> creative
//	wonder|think|feel|realize|understand    -> reflective
//	otherwise                               -> default
var Rules = []Rule{
	{Name: "empty history", Pool: Default, Match: func(s Signals) bool {
		return !s.HasEntries
	}},
	{Name: "negative tone", Pool: Stress, Match: func(s Signals) bool {
		return s.Sentiment != nil && s.Sentiment.Label == domain.Negative && s.Sentiment.Score > 0.6
	}},
	{Name: "positive tone", Pool: Positive, Match: func(s Signals) bool {
		return s.Sentiment != nil && s.Sentiment.Label == domain.Positive && s.Sentiment.Score > 0.7
	}},
	{Name: "creative words", Pool: Creative, Match: func(s Signals) bool {
		return containsAny(s.Text, creativeWords)
	}},
	{Name: "reflective words", Pool: Reflective, Match: func(s Signals) bool {
		return containsAny(s.Text, reflectiveWords)
	}},
}

var (
	creativeWords   = []string{"idea", "create", "imagine", "design", "art"}
	reflectiveWords = []string{"wonder", "think", "feel", "realize", "understand"}
)

// containsAny reports whether text contains any of the words as a substring,
// so "art" also matches "start".
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Selector chooses prompts. It keeps no memory of what it showed before.
type Selector struct {
	sentiment inference.SentimentClassifier
	rng       *rand.Rand
}

// NewSelector creates a Selector. A nil rng uses a randomly seeded source.
func NewSelector(sentiment inference.SentimentClassifier, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{sentiment: sentiment, rng: rng}
}

// Choose returns the pool for the given entries (most recent first) and a
// prompt drawn uniformly from it.
func (s *Selector) Choose(ctx context.Context, recent []domain.Entry) (Pool, string) {
	pool := s.Classify(ctx, recent)
	list := Pools[pool]
	return pool, list[s.rng.IntN(len(list))]
}

// Next returns a prompt for the given entries (most recent first).
func (s *Selector) Next(ctx context.Context, recent []domain.Entry) string {
	_, prompt := s.Choose(ctx, recent)
	return prompt
}

// Classify runs the decision table and returns the chosen pool.
func (s *Selector) Classify(ctx context.Context, recent []domain.Entry) Pool {
	sig := s.signals(ctx, recent)
	for _, r := range Rules {
		if r.Match(sig) {
			return r.Pool
		}
	}
	return Default
}

func (s *Selector) signals(ctx context.Context, recent []domain.Entry) Signals {
	if len(recent) == 0 {
		return Signals{}
	}
	if len(recent) > RecentEntries {
		recent = recent[:RecentEntries]
	}

	snippets := make([]string, len(recent))
	for i, e := range recent {
		snippets[i] = analysis.Truncate(e.Content, SnippetChars)
	}
	text := strings.Join(snippets, " ")

	sig := Signals{HasEntries: true, Text: strings.ToLower(text)}
	if strings.TrimSpace(text) == "" {
		return sig
	}

	sentiment, err := analysis.ClassifySentiment(ctx, s.sentiment, text)
	if err != nil {
		log.Debug().Err(err).Msg("Prompt sentiment unavailable, falling back to keywords")
		return sig
	}
	sig.Sentiment = sentiment
	return sig
}
