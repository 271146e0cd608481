// Package inference provides the language-model collaborators used to
// analyze journal entries: sentiment classification, multi-label theme
// classification and token counting.
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pbaille/serenity/internal/config"
	"github.com/pbaille/serenity/internal/domain"
)

// ErrUnavailable is returned when a collaborator is not configured.
var ErrUnavailable = errors.New("inference: collaborator unavailable")

// SentimentClassifier is a binary sentiment model.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (domain.Sentiment, error)
}

// ThemeClassifier scores every candidate label against text. Results cover
// all candidates and are neither thresholded nor truncated.
type ThemeClassifier interface {
	ClassifyThemes(ctx context.Context, text string, candidates []string) ([]domain.Theme, error)
}

// Tokenizer counts subword tokens.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// Provider bundles the three collaborators. Any of them may be nil, which
// the analyzer treats as unavailable.
type Provider struct {
	Sentiment SentimentClassifier
	Themes    ThemeClassifier
	Tokenizer Tokenizer
}

// New builds a Provider once from configuration. A backend that cannot be
// constructed (missing API key, unknown encoding) is left nil and reported in
// the returned warnings rather than failing start-up.
func New(cfg config.InferenceConfig) (*Provider, []string) {
	p := &Provider{}
	var warnings []string

	switch strings.ToLower(cfg.Sentiment) {
	case "", "lexicon":
		p.Sentiment = NewLexicon()
	case "anthropic":
		c, err := NewAnthropic(os.Getenv("ANTHROPIC_API_KEY"), cfg.AnthropicModel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sentiment: %v", err))
		} else {
			p.Sentiment = c
		}
	case "openai":
		c, err := NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.OpenAIModel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sentiment: %v", err))
		} else {
			p.Sentiment = c
		}
	case "none":
	default:
		warnings = append(warnings, fmt.Sprintf("sentiment: unknown backend %q", cfg.Sentiment))
	}

	switch strings.ToLower(cfg.Themes) {
	case "", "lexicon":
		p.Themes = NewLexicon()
	case "anthropic":
		c, err := NewAnthropic(os.Getenv("ANTHROPIC_API_KEY"), cfg.AnthropicModel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("themes: %v", err))
		} else {
			p.Themes = c
		}
	case "openai":
		c, err := NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.OpenAIModel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("themes: %v", err))
		} else {
			p.Themes = c
		}
	case "voyage":
		c, err := NewVoyage(os.Getenv("VOYAGE_API_KEY"), cfg.VoyageModel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("themes: %v", err))
		} else {
			p.Themes = c
		}
	case "none":
	default:
		warnings = append(warnings, fmt.Sprintf("themes: unknown backend %q", cfg.Themes))
	}

	if !strings.EqualFold(cfg.Tokenizer, "none") {
		tok, err := NewTiktoken(cfg.Tokenizer)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("tokenizer: %v", err))
		} else {
			p.Tokenizer = tok
		}
	}

	return p, warnings
}
