package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/inference"
)

// Analyzer composes the metrics extractor and the two classifier adapters.
type Analyzer struct {
	provider *inference.Provider
}

// NewAnalyzer creates an Analyzer around a provider built once at start-up.
func NewAnalyzer(p *inference.Provider) *Analyzer {
	if p == nil {
		p = &inference.Provider{}
	}
	return &Analyzer{provider: p}
}

// Provider returns the underlying inference provider.
func (a *Analyzer) Provider() *inference.Provider {
	return a.provider
}

// Analyze produces the analysis record for one entry. The caller must have
// rejected empty text. Metrics, sentiment and themes are computed
// independently; a failure in one degrades only its own field and adds a
// warning, so Analyze never fails.
func (a *Analyzer) Analyze(ctx context.Context, text string) domain.AnalysisResult {
	var (
		metrics    Metrics
		metricsErr error
		sentiment  *domain.Sentiment
		sentErr    error
		themes     []domain.Theme
		themesErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		sentiment, sentErr = ClassifySentiment(ctx, a.provider.Sentiment, text)
		return nil
	})
	g.Go(func() error {
		themes, themesErr = ClassifyThemes(ctx, a.provider.Themes, text)
		return nil
	})
	metrics, metricsErr = ExtractMetrics(text, a.provider.Tokenizer)
	_ = g.Wait()

	result := domain.AnalysisResult{
		WordCount:   metrics.WordCount,
		TokenCount:  metrics.TokenCount,
		UniqueWords: metrics.UniqueWords,
		Sentiment:   sentiment,
		Themes:      themes,
	}

	if metricsErr != nil {
		log.Warn().Err(metricsErr).Msg("Tokenization failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("Tokenization error: %v", metricsErr))
	}
	if sentErr != nil {
		log.Warn().Err(sentErr).Msg("Sentiment analysis failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("Sentiment analysis error: %v", sentErr))
	}
	if themesErr != nil {
		log.Warn().Err(themesErr).Msg("Theme classification failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("Theme classification error: %v", themesErr))
	}

	return result
}
