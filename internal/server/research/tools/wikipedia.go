package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

type Wikipedia struct {
	endpoint string
	client   *http.Client
}

func NewWikipedia(endpoint string, client *http.Client) *Wikipedia {
	return &Wikipedia{endpoint: endpoint, client: client}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Description() string {
	return "Look up a topic on Wikipedia. Input is a search query; returns the intro of the best matching article."
}

// Run returns the title and intro of the top search hit.
func (w *Wikipedia) Run(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("generator", "search")
	q.Set("gsrsearch", query)
	q.Set("gsrlimit", "1")
	q.Set("prop", "extracts")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")

	body, err := get(ctx, w.client, w.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("wikipedia: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("wikipedia: invalid json response")
	}

	var page gjson.Result
	gjson.GetBytes(body, "query.pages").ForEach(func(_, value gjson.Result) bool {
		page = value
		return false
	})
	if !page.Exists() {
		return NoResults, nil
	}

	out := fmt.Sprintf("Page: %s\nSummary: %s",
		page.Get("title").String(),
		strings.TrimSpace(page.Get("extract").String()))
	return truncate(out, MaxSnippet), nil
}
