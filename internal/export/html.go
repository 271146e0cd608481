package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pbaille/serenity/internal/domain"
)

const stylesheet = `body{font-family:Georgia,serif;max-width:46rem;margin:2rem auto;color:#1f2937}
article{border-bottom:1px solid #e5e7eb;padding:1rem 0}
.prompt{font-style:italic;color:#6b7280}
.content{white-space:pre-wrap}
.sentiment,.themes{font-size:.9rem;color:#374151}`

// WriteHTML renders entries newest first as a standalone page. Unlike the
// markdown form it keeps exact timestamps, scores and metrics in data
// attributes, so ParseHTML recovers the entries unchanged.
func WriteHTML(w io.Writer, entries []domain.Entry, now time.Time) error {
	body := elem(atom.Body)
	body.AppendChild(withText(elem(atom.H1), "My Journal Entries"))
	body.AppendChild(withText(elem(atom.P, attr("class", "exported")), "Exported on "+now.Format(DayLayout)))
	for _, e := range sortNewestFirst(entries) {
		body.AppendChild(newline())
		body.AppendChild(entryNode(e))
	}
	body.AppendChild(newline())

	head := elem(atom.Head)
	head.AppendChild(elem(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(withText(elem(atom.Title), "My Journal Entries"))
	head.AppendChild(withText(elem(atom.Style), stylesheet))

	root := elem(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func entryNode(e domain.Entry) *html.Node {
	article := elem(atom.Article,
		attr("class", "entry"),
		attr("data-id", strconv.FormatInt(e.ID, 10)),
		attr("data-timestamp", e.Timestamp.Format(time.RFC3339Nano)),
		attr("data-word-count", strconv.Itoa(e.WordCount)),
		attr("data-token-count", strconv.Itoa(e.TokenCount)),
		attr("data-unique-words", strconv.Itoa(e.UniqueWords)),
	)
	article.AppendChild(withText(elem(atom.H2), e.Timestamp.Format(HeadingLayout)))

	if e.Prompt != nil {
		article.AppendChild(withText(elem(atom.P, attr("class", "prompt")), *e.Prompt))
	}
	article.AppendChild(withText(elem(atom.Div, attr("class", "content")), e.Content))

	if e.Sentiment != nil {
		label := fmt.Sprintf("%s (%.0f%%)", e.Sentiment.Label, e.Sentiment.Score*100)
		article.AppendChild(withText(elem(atom.P,
			attr("class", "sentiment"),
			attr("data-label", string(e.Sentiment.Label)),
			attr("data-score", formatScore(e.Sentiment.Score)),
		), label))
	}

	if len(e.Themes) > 0 {
		ul := elem(atom.Ul, attr("class", "themes"))
		for _, t := range e.Themes {
			ul.AppendChild(withText(elem(atom.Li, attr("data-score", formatScore(t.Score))), t.Name))
		}
		article.AppendChild(ul)
	}
	return article
}

// ParseHTML reads a page produced by WriteHTML.
func ParseHTML(r io.Reader) ([]domain.Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		entries []domain.Entry
		walkErr error
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Article && hasClass(n, "entry") {
			e, err := parseEntry(n)
			if err != nil {
				walkErr = err
				return
			}
			entries = append(entries, e)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if walkErr != nil {
		return nil, walkErr
	}
	return entries, nil
}

func parseEntry(n *html.Node) (domain.Entry, error) {
	var e domain.Entry
	var err error

	if e.ID, err = strconv.ParseInt(getAttr(n, "data-id"), 10, 64); err != nil {
		return e, fmt.Errorf("parse entry id: %w", err)
	}
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, getAttr(n, "data-timestamp")); err != nil {
		return e, fmt.Errorf("parse entry %d timestamp: %w", e.ID, err)
	}
	for name, dst := range map[string]*int{
		"data-word-count":   &e.WordCount,
		"data-token-count":  &e.TokenCount,
		"data-unique-words": &e.UniqueWords,
	} {
		if *dst, err = strconv.Atoi(getAttr(n, name)); err != nil {
			return e, fmt.Errorf("parse entry %d %s: %w", e.ID, name, err)
		}
	}

	e.Themes = []domain.Theme{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case hasClass(c, "prompt"):
			p := textOf(c)
			e.Prompt = &p
		case hasClass(c, "content"):
			e.Content = textOf(c)
		case hasClass(c, "sentiment"):
			score, err := strconv.ParseFloat(getAttr(c, "data-score"), 64)
			if err != nil {
				return e, fmt.Errorf("parse entry %d sentiment score: %w", e.ID, err)
			}
			e.Sentiment = &domain.Sentiment{Label: domain.Label(getAttr(c, "data-label")), Score: score}
		case hasClass(c, "themes"):
			for li := c.FirstChild; li != nil; li = li.NextSibling {
				if li.Type != html.ElementNode || li.DataAtom != atom.Li {
					continue
				}
				score, err := strconv.ParseFloat(getAttr(li, "data-score"), 64)
				if err != nil {
					return e, fmt.Errorf("parse entry %d theme score: %w", e.ID, err)
				}
				e.Themes = append(e.Themes, domain.Theme{Name: textOf(li), Score: score})
			}
		}
	}
	return e, nil
}

func elem(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return strings.Contains(" "+getAttr(n, "class")+" ", " "+class+" ")
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
