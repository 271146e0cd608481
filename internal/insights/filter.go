package insights

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

// SortOrder orders a filtered entry list.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortLongest  SortOrder = "longest"
	SortShortest SortOrder = "shortest"
)

// ParseSortOrder accepts the four order names; empty means newest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortLongest, SortShortest:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// FilterOptions narrow an entry collection. Zero values disable a filter.
type FilterOptions struct {
	From       *time.Time // calendar date, inclusive
	To         *time.Time // calendar date, inclusive
	Sentiments []domain.Label
	Query      string
	Sort       SortOrder
}

// Filter returns the entries matching opts in the requested order. Entries
// without a sentiment label are never dropped by the sentiment filter.
func Filter(entries []domain.Entry, opts FilterOptions) []domain.Entry {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		day := Day(e.Timestamp)
		if opts.From != nil && day.Before(Day(*opts.From)) {
			continue
		}
		if opts.To != nil && day.After(Day(*opts.To)) {
			continue
		}
		if len(opts.Sentiments) > 0 && e.Sentiment != nil && !slices.Contains(opts.Sentiments, e.Sentiment.Label) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Content), query) {
			continue
		}
		out = append(out, e)
	}

	switch opts.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	case SortLongest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].WordCount > out[j].WordCount })
	case SortShortest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].WordCount < out[j].WordCount })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	}
	return out
}
