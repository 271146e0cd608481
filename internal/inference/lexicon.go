package inference

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/pbaille/serenity/internal/domain"
)

// Lexicon is an offline word-list classifier. It needs no model download or
// API key, so it is the default backend for both sentiment and themes.
type Lexicon struct {
	positive map[string]bool
	negative map[string]bool
	keywords map[string][]string
}

// NewLexicon returns a Lexicon with the built-in word lists.
func NewLexicon() *Lexicon {
	return &Lexicon{
		positive: wordSet(positiveWords),
		negative: wordSet(negativeWords),
		keywords: themeKeywords,
	}
}

// ClassifySentiment labels text by the balance of positive and negative
// words. Confidence is the Laplace-smoothed share of the winning side, so it
// stays in [0.5, 1) and an empty or neutral text yields POSITIVE at 0.5.
func (l *Lexicon) ClassifySentiment(_ context.Context, text string) (domain.Sentiment, error) {
	var pos, neg int
	negate := false
	for _, w := range words(text) {
		switch {
		case negators[w]:
			negate = true
			continue
		case l.positive[w]:
			if negate {
				neg++
			} else {
				pos++
			}
		case l.negative[w]:
			if negate {
				pos++
			} else {
				neg++
			}
		}
		negate = false
	}

	label := domain.Positive
	hits := pos
	if neg > pos {
		label = domain.Negative
		hits = neg
	}
	score := float64(hits+1) / float64(pos+neg+2)
	return domain.Sentiment{Label: label, Score: score}, nil
}

// ClassifyThemes scores each candidate by how many of its keywords appear
// in text. Unknown candidates score 0.
func (l *Lexicon) ClassifyThemes(_ context.Context, text string, candidates []string) ([]domain.Theme, error) {
	tokens := words(text)
	themes := make([]domain.Theme, 0, len(candidates))
	for _, c := range candidates {
		hits := 0
		for _, tok := range tokens {
			for _, kw := range l.keywords[c] {
				if strings.HasPrefix(tok, kw) {
					hits++
					break
				}
			}
		}
		// 1 hit ≈ 0.39, 2 ≈ 0.63, 3 ≈ 0.78
		score := 1 - math.Exp(-float64(hits)/2)
		themes = append(themes, domain.Theme{Name: c, Score: score})
	}
	return themes, nil
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func wordSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, w := range list {
		m[w] = true
	}
	return m
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "didn't": true,
	"isn't": true, "wasn't": true, "can't": true, "couldn't": true, "won't": true,
}

var positiveWords = []string{
	"good", "great", "happy", "joy", "joyful", "love", "loved", "lovely", "calm",
	"grateful", "thankful", "proud", "excited", "wonderful", "amazing", "peaceful",
	"relaxed", "fun", "glad", "hopeful", "inspired", "energized", "content",
	"delighted", "enjoyed", "beautiful", "fantastic", "success", "successful",
	"accomplished", "better", "best", "smile", "smiled", "laugh", "laughed",
	"kind", "nice", "productive", "satisfied", "confident", "rested", "blessed",
}

var negativeWords = []string{
	"bad", "sad", "angry", "upset", "stressed", "stress", "anxious", "anxiety",
	"worried", "worry", "tired", "exhausted", "lonely", "afraid", "scared",
	"frustrated", "frustrating", "overwhelmed", "awful", "terrible", "horrible",
	"hate", "hated", "hurt", "pain", "painful", "sick", "depressed", "miserable",
	"annoyed", "failed", "failure", "worse", "worst", "cry", "cried", "crying",
	"disappointed", "nervous", "panic", "struggle", "struggling", "difficult",
}

var themeKeywords = map[string][]string{
	"work stress":     {"work", "boss", "deadline", "meeting", "office", "job", "overtime", "project", "colleague"},
	"relationships":   {"partner", "boyfriend", "girlfriend", "husband", "wife", "relationship", "date", "dating", "romance"},
	"family":          {"family", "mom", "mother", "dad", "father", "sister", "brother", "parent", "kids", "child", "son", "daughter"},
	"health":          {"health", "doctor", "sick", "exercise", "workout", "sleep", "diet", "gym", "run", "medication"},
	"creativity":      {"idea", "create", "creative", "art", "paint", "draw", "music", "design", "imagine", "poem"},
	"personal growth": {"grow", "growth", "learn", "improve", "goal", "habit", "change", "better", "progress"},
	"anxiety":         {"anxious", "anxiety", "worry", "worried", "nervous", "panic", "fear", "afraid", "overthink"},
	"gratitude":       {"grateful", "thankful", "gratitude", "appreciate", "blessed", "thanks"},
	"accomplishments": {"accomplish", "achieve", "finished", "completed", "proud", "success", "win", "won", "promoted"},
	"challenges":      {"challenge", "difficult", "hard", "struggle", "obstacle", "problem", "setback"},
	"hobbies":         {"hobby", "read", "book", "garden", "cook", "bake", "game", "hike", "knit", "guitar"},
	"social life":     {"friend", "party", "dinner", "social", "hang", "coffee", "people", "together", "celebrate"},
}
