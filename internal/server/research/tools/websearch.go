package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// WebSearch queries the DuckDuckGo instant answer API.
type WebSearch struct {
	endpoint string
	client   *http.Client
}

func NewWebSearch(endpoint string, client *http.Client) *WebSearch {
	return &WebSearch{endpoint: endpoint, client: client}
}

func (s *WebSearch) Name() string { return "web_search" }

func (s *WebSearch) Description() string {
	return "Search the web for current facts and definitions. Input is a search query."
}

func (s *WebSearch) Run(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	body, err := get(ctx, s.client, s.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("web search: invalid json response")
	}

	res := gjson.ParseBytes(body)

	var parts []string
	for _, path := range []string{"Answer", "AbstractText", "Definition"} {
		if v := strings.TrimSpace(res.Get(path).String()); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		res.Get("RelatedTopics.#.Text").ForEach(func(_, v gjson.Result) bool {
			if t := strings.TrimSpace(v.String()); t != "" {
				parts = append(parts, t)
			}
			return len(parts) < 3
		})
	}
	if len(parts) == 0 {
		return NoResults, nil
	}

	out := strings.Join(parts, "\n")
	if src := res.Get("AbstractURL").String(); src != "" {
		out += "\nSource: " + src
	}
	return truncate(out, MaxSnippet), nil
}
