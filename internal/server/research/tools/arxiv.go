package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type Arxiv struct {
	endpoint string
	client   *http.Client
}

func NewArxiv(endpoint string, client *http.Client) *Arxiv {
	return &Arxiv{endpoint: endpoint, client: client}
}

func (a *Arxiv) Name() string { return "arxiv" }

func (a *Arxiv) Description() string {
	return "Search arXiv for scientific preprints. Input is a search query; returns the date, title, authors and abstract of the best match."
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

func (a *Arxiv) Run(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", "1")

	body, err := get(ctx, a.client, a.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("arxiv: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fmt.Errorf("arxiv: decode feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return NoResults, nil
	}

	e := feed.Entries[0]
	authors := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		authors = append(authors, au.Name)
	}
	published := e.Published
	if len(published) >= 10 {
		published = published[:10]
	}

	out := fmt.Sprintf("Published: %s\nTitle: %s\nAuthors: %s\nSummary: %s",
		published, collapse(e.Title), strings.Join(authors, ", "), collapse(e.Summary))
	return truncate(out, MaxSnippet), nil
}

// collapse folds the line-wrapped whitespace arXiv puts in titles and
// abstracts.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
