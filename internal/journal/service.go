// Package journal is the application layer shared by the CLI and the REST
// API. It validates and analyzes new entries, persists them through a
// Repository, and assembles insight reports from the stored history.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pbaille/serenity/internal/analysis"
	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/inference"
	"github.com/pbaille/serenity/internal/insights"
	"github.com/pbaille/serenity/internal/prompts"
)

// ErrEmptyContent rejects entries with no visible text.
var ErrEmptyContent = errors.New("entry content is empty")

// ErrInvalidPeriod is returned when a reporting period ends before it starts.
var ErrInvalidPeriod = errors.New("period ends before it starts")

// PromptHistory is how many recent entries the prompt selector loads.
const PromptHistory = 5

// Repository is the entry store the service depends on.
type Repository interface {
	CreateEntry(ctx context.Context, content string, prompt *string, analysis domain.AnalysisResult) (domain.Entry, error)
	ListEntries(ctx context.Context, limit int) ([]domain.Entry, error)
	GetEntry(ctx context.Context, id int64) (domain.Entry, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
	ClearEntries(ctx context.Context) (int64, error)
	SearchEntries(ctx context.Context, query string) ([]domain.Entry, error)
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// Service implements the journal use cases.
type Service struct {
	repo     Repository
	analyzer *analysis.Analyzer
	selector *prompts.Selector
	now      func() time.Time
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	now func() time.Time
	rng *rand.Rand
}

// WithClock sets the reference clock for time-windowed reports.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// WithRand sets the prompt selector's random source.
func WithRand(rng *rand.Rand) Option {
	return func(o *serviceOptions) { o.rng = rng }
}

// NewService wires the analyzer and prompt selector around one provider.
func NewService(repo Repository, provider *inference.Provider, opts ...Option) *Service {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if provider == nil {
		provider = &inference.Provider{}
	}
	return &Service{
		repo:     repo,
		analyzer: analysis.NewAnalyzer(provider),
		selector: prompts.NewSelector(provider.Sentiment, o.rng),
		now:      o.now,
	}
}

// WriteResult is a saved entry and the analysis warnings it produced.
type WriteResult struct {
	Entry    domain.Entry `json:"entry"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Write validates, analyzes once and persists a new entry. Analysis
// failures are reported as warnings; only invalid input and store errors
// fail the call.
func (s *Service) Write(ctx context.Context, content string, prompt *string) (WriteResult, error) {
	if strings.TrimSpace(content) == "" {
		return WriteResult{}, ErrEmptyContent
	}
	if prompt != nil && strings.TrimSpace(*prompt) == "" {
		prompt = nil
	}

	result := s.analyzer.Analyze(ctx, content)

	entry, err := s.repo.CreateEntry(ctx, content, prompt, result)
	if err != nil {
		return WriteResult{}, fmt.Errorf("save entry: %w", err)
	}

	log.Info().
		Int64("id", entry.ID).
		Int("words", entry.WordCount).
		Int("warnings", len(result.Warnings)).
		Msg("Entry saved")

	return WriteResult{Entry: entry, Warnings: result.Warnings}, nil
}

// NextPrompt suggests a writing prompt from the most recent entries.
func (s *Service) NextPrompt(ctx context.Context) (prompts.Pool, string, error) {
	recent, err := s.repo.ListEntries(ctx, PromptHistory)
	if err != nil {
		return "", "", fmt.Errorf("load recent entries: %w", err)
	}
	pool, prompt := s.selector.Choose(ctx, recent)
	log.Debug().Str("pool", string(pool)).Msg("Prompt selected")
	return pool, prompt, nil
}

// CountTokens returns the live metrics for a draft.
func (s *Service) CountTokens(text string) analysis.Metrics {
	m, err := analysis.ExtractMetrics(text, s.analyzer.Provider().Tokenizer)
	if err != nil {
		log.Debug().Err(err).Msg("Token count unavailable")
	}
	return m
}

// Entries lists stored entries matching opts. A limit <= 0 returns all.
func (s *Service) Entries(ctx context.Context, opts insights.FilterOptions, limit int) ([]domain.Entry, error) {
	var (
		all []domain.Entry
		err error
	)
	if q := strings.TrimSpace(opts.Query); q != "" {
		all, err = s.repo.SearchEntries(ctx, q)
	} else {
		all, err = s.repo.ListEntries(ctx, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	filtered := insights.Filter(all, opts)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Entry returns one entry.
func (s *Service) Entry(ctx context.Context, id int64) (domain.Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// Delete removes one entry; false means it did not exist.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteEntry(ctx, id)
}

// Clear removes every entry.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearEntries(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("deleted", n).Msg("Entries cleared")
	return n, nil
}

// Statistics returns the store-level aggregate.
func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	return s.repo.Statistics(ctx)
}

// Streak computes streaks over the whole history.
func (s *Service) Streak(ctx context.Context) (domain.StreakInfo, error) {
	all, err := s.repo.ListEntries(ctx, 0)
	if err != nil {
		return domain.StreakInfo{}, fmt.Errorf("load entries: %w", err)
	}
	return insights.Streak(all), nil
}

// Preference reads a stored preference.
func (s *Service) Preference(ctx context.Context, key string) (string, bool, error) {
	return s.repo.GetPreference(ctx, key)
}

// SetPreference stores a preference.
func (s *Service) SetPreference(ctx context.Context, key, value string) error {
	return s.repo.SetPreference(ctx, key, value)
}

// Export writes every entry in the given format.
func (s *Service) Export(ctx context.Context, w io.Writer, f export.Format) error {
	all, err := s.repo.ListEntries(ctx, 0)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	return export.Write(w, f, all, s.now())
}
