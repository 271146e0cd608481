package inference

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
)

// sentimentAnswer is the JSON shape LLM backends return for sentiment.
type sentimentAnswer struct {
	Label string  `json:"label" jsonschema:"enum=POSITIVE,enum=NEGATIVE"`
	Score float64 `json:"score"`
}

func (a sentimentAnswer) toSentiment() (domain.Sentiment, error) {
	label := domain.Label(strings.ToUpper(strings.TrimSpace(a.Label)))
	if !label.Valid() {
		return domain.Sentiment{}, fmt.Errorf("unexpected sentiment label %q", a.Label)
	}
	if a.Score < 0 || a.Score > 1 {
		return domain.Sentiment{}, fmt.Errorf("sentiment score %v out of range", a.Score)
	}
	return domain.Sentiment{Label: label, Score: a.Score}, nil
}

// themesAnswer is the JSON shape LLM backends return for theme scores.
type themesAnswer struct {
	Themes []themeScore `json:"themes"`
}

type themeScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// toThemes maps the answer back onto the candidate list: names are matched
// case-insensitively, unknown names are dropped, missing candidates score 0
// and scores are clamped to [0,1].
func (a themesAnswer) toThemes(candidates []string) []domain.Theme {
	scores := make(map[string]float64, len(a.Themes))
	for _, t := range a.Themes {
		scores[strings.ToLower(strings.TrimSpace(t.Name))] = t.Score
	}

	themes := make([]domain.Theme, len(candidates))
	for i, c := range candidates {
		themes[i] = domain.Theme{Name: c, Score: clamp01(scores[strings.ToLower(c)])}
	}
	return themes
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// decodeModelJSON unmarshals JSON from a model response, tolerating markdown
// code fences and leading or trailing prose around the object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("parse json: %w (response: %s)", err, sub)
	}
	return nil
}
